// Package markup renders program trees as XML-like script markup.
//
// Every statement becomes a tag indented by its depth. A named block emits
// its children followed by its closing tag; every other node is a single
// tag closed with ">" when it opens a body and "/>" otherwise. Nodes at
// depth 0 belong to the implicit document and are left unterminated.
package markup

import (
	"io"
	"log/slog"

	"github.com/valyala/bytebufferpool"

	"github.com/ardnew/recomp/log"
	"github.com/ardnew/recomp/pkg"
	"github.com/ardnew/recomp/tree"
)

// IndentWidth is the default number of spaces per nesting level.
const IndentWidth = 2

// Encoder renders program trees.
// An Encoder is safe for concurrent use.
type Encoder struct {
	logger log.Logger
	width  int
}

// Option configures an [Encoder].
type Option func(*Encoder)

// WithIndent sets the number of spaces per nesting level.
// Negative widths are treated as zero.
func WithIndent(width int) Option {
	return func(e *Encoder) { e.width = max(width, 0) }
}

// WithLogger sets the logger that receives rendering diagnostics.
func WithLogger(l log.Logger) Option {
	return func(e *Encoder) { e.logger = l }
}

// New returns an encoder configured by opts.
func New(opts ...Option) *Encoder {
	e := &Encoder{logger: log.Default(), width: IndentWidth}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// Render returns the markup for the tree rooted at root.
func Render(root tree.Node, opts ...Option) string {
	return New(opts...).Render(root)
}

// Render returns the markup for the tree rooted at root.
func (e *Encoder) Render(root tree.Node) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	e.node(buf, root)

	return buf.String()
}

// Encode writes the markup for the tree rooted at root to w in a single
// call.
func (e *Encoder) Encode(w io.Writer, root tree.Node) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	e.node(buf, root)

	e.logger.Trace("rendered markup", slog.Int("bytes", buf.Len()))

	if _, err := w.Write(buf.B); err != nil {
		return pkg.ErrWriteOutput.Wrap(err)
	}

	return nil
}

func (e *Encoder) indent(buf *bytebufferpool.ByteBuffer, depth int) {
	const spaces = "                                "

	for n := max(depth, 0) * e.width; n > 0; n -= len(spaces) {
		buf.WriteString(spaces[:min(n, len(spaces))])
	}
}

func (e *Encoder) node(buf *bytebufferpool.ByteBuffer, n tree.Node) {
	if n == nil {
		e.logger.Error("unknown node", slog.String("kind", "nil"))

		return
	}

	if _, ok := n.(*tree.BlankLine); ok {
		buf.WriteByte('\n')

		return
	}

	h := n.Head()

	if _, ok := n.(*tree.Block); !ok {
		e.indent(buf, h.Depth)
	}

	switch n := n.(type) {
	case *tree.Comment:
		buf.WriteString("<!--")
		buf.WriteString(n.Text)
		buf.WriteString("-->\n")

		return

	case *tree.Block:
		for c := range n.Nodes() {
			e.node(buf, c)
		}

		if n.Name == "" {
			return
		}

		e.indent(buf, h.Depth)
		buf.WriteString("</")
		buf.WriteString(n.Name)

	case *tree.Raw:
		buf.WriteByte('<')
		buf.WriteString(n.ID)

		for a := range n.Attrs() {
			buf.WriteByte(' ')
			buf.WriteString(a.Key)
			buf.WriteByte('=')
			buf.WriteString(a.Value)
		}

	case *tree.Assign:
		buf.WriteString(`<set_value name="`)
		buf.WriteString(n.Var)
		buf.WriteByte('"')

		switch n.Op {
		case tree.AssignNormal:
			if n.Expr != "" {
				attr(buf, "exact", n.Expr)
			}
		case tree.AssignSpecial:
			buf.WriteByte(' ')
			buf.WriteString(n.Expr)
		case tree.AssignAdd:
			attr(buf, "operation", "add")
		}

	case *tree.If:
		buf.WriteString("<do_if")
		attr(buf, "value", n.Cond)

	case *tree.ElseIf:
		buf.WriteString("<do_elseif")
		attr(buf, "value", n.Cond)

	case *tree.Else:
		buf.WriteString("<do_else")

	case *tree.While:
		buf.WriteString("<do_while")
		attr(buf, "value", n.Cond)

	case *tree.For:
		buf.WriteString("<do_all")
		attr(buf, "exact", n.Var)
		attr(buf, "counter", n.Ident)

		if n.Reversed {
			attr(buf, "reverse", "true")
		}

	case *tree.DebugText:
		buf.WriteString("<debug_text")
		attr(buf, "text", n.Text)

		if n.Filter != "" {
			attr(buf, "filter", n.Filter)
		}

	case *tree.Keyword:
		buf.WriteByte('<')
		buf.WriteString(n.Word)

	case *tree.Undef:
		buf.WriteString("<remove_value")
		attr(buf, "name", n.Name)

	default:
		e.logger.Error("unknown node",
			slog.String("kind", n.Kind().String()),
			slog.Int("depth", h.Depth),
		)
	}

	if h.Chance != "" {
		attr(buf, "chance", h.Chance)
	}

	if h.Comment != "" {
		attr(buf, "comment", h.Comment)
	}

	if h.Depth > 0 {
		if _, ok := n.(*tree.Block); ok || h.Opens {
			buf.WriteString(">\n")
		} else {
			buf.WriteString("/>\n")
		}
	}
}

// attr writes ` key="value"`. Values are written verbatim.
func attr(buf *bytebufferpool.ByteBuffer, key, value string) {
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteString(`="`)
	buf.WriteString(value)
	buf.WriteByte('"')
}
