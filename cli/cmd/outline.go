package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltree "github.com/charmbracelet/lipgloss/tree"

	"github.com/ardnew/recomp/tree"
)

// Styles.
var (
	rootStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	decoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	enumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).MarginRight(1)
)

// Tree prints a styled outline of decoded tree documents.
//
// An opener and the closing block that follows it are shown as a single
// entry whose children are the body.
type Tree struct {
	Input `embed:""`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	root, err := t.load(ctx)
	if err != nil {
		return err
	}
	defer root.Destroy()

	_, err = fmt.Fprintln(outputFrom(ctx),
		outline(root, strings.Join(t.Sources, " ")))

	return err
}

func outline(root *tree.Block, title string) *ltree.Tree {
	if title == "" {
		title = stdioPath
	}

	t := ltree.Root(rootStyle.Render(title)).
		Enumerator(ltree.RoundedEnumerator).
		EnumeratorStyle(enumStyle)

	branch(t, root)

	return t
}

// branch adds the children of b to t.
func branch(t *ltree.Tree, b *tree.Block) {
	kids := b.Children().Slice()

	for i := 0; i < len(kids); i++ {
		n := kids[i]

		body, ok := n.(*tree.Block)
		if n.Head().Opens && i+1 < len(kids) {
			body, ok = kids[i+1].(*tree.Block)
			i++
		}

		if !ok || body.Len() == 0 {
			t.Child(label(n))

			continue
		}

		sub := ltree.Root(label(n))
		branch(sub, body)
		t.Child(sub)
	}
}

// label describes a single node.
func label(n tree.Node) string {
	var text string

	switch n := n.(type) {
	case *tree.Block:
		text = n.Name
	case *tree.Comment:
		text = n.Text
	case *tree.Raw:
		var sb strings.Builder

		sb.WriteString(n.ID)

		for a := range n.Attrs() {
			sb.WriteString(" " + a.Key + "=" + a.Value)
		}

		text = sb.String()
	case *tree.Assign:
		text = n.Var + " " + n.Op.String()
		if n.Expr != "" {
			text += " " + n.Expr
		}
	case *tree.If:
		text = n.Cond
	case *tree.ElseIf:
		text = n.Cond
	case *tree.While:
		text = n.Cond
	case *tree.For:
		text = n.Var + " in " + n.Ident
		if n.Reversed {
			text += " reversed"
		}
	case *tree.DebugText:
		text = n.Text
		if n.Filter != "" {
			text += " [" + n.Filter + "]"
		}
	case *tree.Undef:
		text = n.Name
	}

	s := kindStyle.Render(n.Kind().String())
	if text != "" {
		s += " " + textStyle.Render(text)
	}

	h := n.Head()
	if h.Chance != "" {
		s += " " + decoStyle.Render("chance="+h.Chance)
	}

	if h.Comment != "" {
		s += " " + decoStyle.Render("# "+h.Comment)
	}

	return s
}
