package tree

import (
	"iter"
	"log/slog"
	"strconv"

	"github.com/edwingeng/deque"

	"github.com/ardnew/recomp/pkg"
)

// Walk calls fn for n and then, if fn returns true and n is a [Block], for
// each of its children in order, depth first.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	if b, ok := n.(*Block); ok {
		for c := range b.Nodes() {
			Walk(c, fn)
		}
	}
}

// All returns an iterator over n and all of its descendants in pre-order.
func All(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		more := true

		Walk(n, func(c Node) bool {
			more = more && yield(c)

			return more
		})
	}
}

// Count returns the number of nodes in the tree rooted at n, including n.
func Count(n Node) int {
	count := 0

	Walk(n, func(Node) bool {
		count++

		return true
	})

	return count
}

// pending is a block awaiting a visit during a breadth-first traversal.
type pending struct {
	block *Block
	path  string
}

// breadthFirst calls visit for every block reachable from root, shallowest
// first, with the slash-separated child indices that lead to it.
func breadthFirst(root *Block, visit func(*Block, string) []*Block) {
	queue := deque.NewDeque()
	queue.PushBack(pending{block: root, path: ""})

	for !queue.Empty() {
		p := queue.Front().(pending)
		queue.PopFront()

		for i, next := range visit(p.block, p.path) {
			if next != nil {
				queue.PushBack(pending{block: next, path: p.path + "/" + strconv.Itoa(i)})
			}
		}
	}
}

// Validate checks the structure of the tree rooted at root.
//
// Every child of a block must be exactly one level deeper than the block.
// A node may set [Header.Opens] only if its kind can open a body, and must
// then be followed by a sibling [Block] at its own depth named by its
// [Tag]. All violations are reported together as a [pkg.Error] of
// [*Error] values.
func Validate(root *Block) error {
	if root == nil {
		return ErrNilNode
	}

	var errs []error

	if root.Depth < 0 {
		errs = append(errs, ErrInvalidDepth.With(
			slog.String("path", "/"), slog.Int("depth", root.Depth)))
	}

	breadthFirst(root, func(b *Block, path string) []*Block {
		children := b.children.Slice()
		next := make([]*Block, len(children))

		for i, child := range children {
			at := slog.String("path", path+"/"+strconv.Itoa(i))

			if child == nil {
				errs = append(errs, ErrNilNode.With(at))

				continue
			}

			h := child.Head()

			if h.Depth != b.Depth+1 {
				errs = append(errs, ErrInvalidDepth.With(at, kindAttr(child),
					slog.Int("depth", h.Depth), slog.Int("want", b.Depth+1)))
			}

			if h.Opens && child.Kind() != KindBlock {
				if err := checkOpener(child, children[i+1:]); err != nil {
					errs = append(errs, err.With(at))
				}
			}

			if cb, ok := child.(*Block); ok {
				next[i] = cb
			}
		}

		return next
	})

	return pkg.Join(errs...)
}

// checkOpener verifies that opener is followed by its closing block.
func checkOpener(opener Node, rest []Node) *Error {
	tag, ok := Tag(opener)
	if !ok {
		return ErrInvalidOpener.With(kindAttr(opener))
	}

	if len(rest) > 0 {
		if closer, ok := rest[0].(*Block); ok &&
			closer.Name == tag && closer.Depth == opener.Head().Depth {
			return nil
		}
	}

	return ErrDanglingOpener.With(kindAttr(opener), slog.String("tag", tag))
}

// closes reports whether next is the closing block of opener.
func closes(opener, next Node) bool {
	if !opener.Head().Opens {
		return false
	}

	return checkOpener(opener, []Node{next}) == nil
}

// Prune removes every node for which pred returns true, along with
// everything it owns, and returns the number of nodes removed from their
// parents. An opener and its closing block are removed together when pred
// matches either of them. The root itself is never removed.
func Prune(root *Block, pred func(Node) bool) int {
	if root == nil || pred == nil {
		return 0
	}

	removed := 0

	breadthFirst(root, func(b *Block, _ string) []*Block {
		children := b.children.Slice()

		var next []*Block

		for i := 0; i < len(children); i++ {
			child := children[i]

			if i+1 < len(children) && closes(child, children[i+1]) {
				closer := children[i+1]
				i++

				if pred(child) || pred(closer) {
					b.children.Remove(child)
					b.children.Remove(closer)

					removed += 2
				} else {
					next = append(next, closer.(*Block))
				}

				continue
			}

			if pred(child) {
				b.children.Remove(child)

				removed++

				continue
			}

			if cb, ok := child.(*Block); ok {
				next = append(next, cb)
			}
		}

		return next
	})

	return removed
}
