package tree_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/recomp/tree"
)

func Example() {
	b := tree.NewBuilder(nil)

	root := b.Root()
	defer root.Destroy()

	cond := b.If(1, "$n gt 0", tree.WithChance("25"))
	root.Append(cond, b.Closing(cond, b.Return(2)))

	if err := tree.Validate(root); err != nil {
		fmt.Println(err)

		return
	}

	for n := range tree.All(root) {
		if tag, ok := tree.Tag(n); ok {
			fmt.Println(n.Head().Depth, n.Kind(), tag)
		} else {
			fmt.Println(n.Head().Depth, n.Kind())
		}
	}

	// Output:
	// 0 block
	// 1 if do_if
	// 1 block
	// 2 return
}

func ExampleDecode() {
	doc := `
- kind: while
  value: $i lt 3
  body:
    - kind: assign
      name: $i
      op: add
`

	root, err := tree.Decode(context.Background(), strings.NewReader(doc), nil)
	if err != nil {
		fmt.Println(err)

		return
	}
	defer root.Destroy()

	fmt.Println(tree.Count(root), "nodes")

	if err := tree.Encode(context.Background(), os.Stdout, root, tree.FormatJSON, 0); err != nil {
		fmt.Println(err)
	}

	// Output:
	// 4 nodes
	// [{"kind":"while","value":"$i lt 3","body":[{"kind":"assign","name":"$i","op":"add"}]}]
}
