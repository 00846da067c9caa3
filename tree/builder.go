package tree

import (
	"github.com/ardnew/recomp/arena"
	"github.com/ardnew/recomp/list"
)

// Option sets optional header fields of a node under construction.
type Option func(*Header)

// WithChance sets the chance decoration.
func WithChance(v string) Option { return func(h *Header) { h.Chance = v } }

// WithComment sets the trailing line comment.
func WithComment(v string) Option { return func(h *Header) { h.Comment = v } }

// Opening marks the node as the opener of the closing block that follows it.
func Opening() Option { return func(h *Header) { h.Opens = true } }

// Builder constructs nodes owned by a common arena.
//
// Each node gets its own arena under the builder's owner. Appending a node
// to a [Block] moves it under the block, so freeing the owner releases only
// nodes that were never attached to a tree.
type Builder struct {
	owner *arena.Arena
}

// NewBuilder returns a builder whose nodes are owned by owner.
// A nil owner makes every node a root that must be freed through its tree.
func NewBuilder(owner *arena.Arena) *Builder {
	return &Builder{owner: owner}
}

func (b *Builder) header(depth int, name string, opts []Option) Header {
	h := Header{arena: arena.Named(b.owner, name), Depth: depth}

	for _, opt := range opts {
		if opt != nil {
			opt(&h)
		}
	}

	return h
}

// Root returns an unnamed block at depth 0.
func (b *Builder) Root() *Block {
	return b.Block(0, "")
}

// Block returns an empty block. An empty name makes a plain grouping that
// renders nothing of its own.
func (b *Builder) Block(depth int, name string, opts ...Option) *Block {
	n := &Block{Header: b.header(depth, "block", opts), Name: name}
	n.children = list.New[Node](n.arena)

	return n
}

// Comment returns a comment line.
func (b *Builder) Comment(depth int, text string, opts ...Option) *Comment {
	return &Comment{Header: b.header(depth, "comment", opts), Text: text}
}

// Blank returns a blank line.
func (b *Builder) Blank(depth int) *BlankLine {
	return &BlankLine{Header: b.header(depth, "blank", nil)}
}

// Raw returns a statement emitted as tag id with attrs in order.
func (b *Builder) Raw(depth int, id string, attrs []Attr, opts ...Option) *Raw {
	n := &Raw{Header: b.header(depth, "raw", opts), ID: id}
	n.attrs = list.New[Attr](n.arena)

	for _, a := range attrs {
		n.attrs.Append(a)
	}

	return n
}

// Assign returns an assignment of expr to name.
func (b *Builder) Assign(
	depth int,
	op AssignOp,
	name, expr string,
	opts ...Option,
) *Assign {
	return &Assign{
		Header: b.header(depth, "assign", opts),
		Op:     op,
		Var:    name,
		Expr:   expr,
	}
}

// If returns a conditional.
func (b *Builder) If(depth int, cond string, opts ...Option) *If {
	return &If{Header: b.header(depth, "if", opts), Cond: cond}
}

// ElseIf returns a conditional continuation.
func (b *Builder) ElseIf(depth int, cond string, opts ...Option) *ElseIf {
	return &ElseIf{Header: b.header(depth, "elseif", opts), Cond: cond}
}

// Else returns the final branch of a conditional.
func (b *Builder) Else(depth int, opts ...Option) *Else {
	return &Else{Header: b.header(depth, "else", opts)}
}

// While returns a conditional loop.
func (b *Builder) While(depth int, cond string, opts ...Option) *While {
	return &While{Header: b.header(depth, "while", opts), Cond: cond}
}

// For returns a loop of variable over ident, optionally reversed.
func (b *Builder) For(
	depth int,
	variable, ident string,
	reversed bool,
	opts ...Option,
) *For {
	return &For{
		Header:   b.header(depth, "for", opts),
		Var:      variable,
		Ident:    ident,
		Reversed: reversed,
	}
}

// Debug returns a debug message with an optional filter.
func (b *Builder) Debug(depth int, text, filter string, opts ...Option) *DebugText {
	return &DebugText{
		Header: b.header(depth, "debug", opts),
		Text:   text,
		Filter: filter,
	}
}

// Return returns a return statement.
func (b *Builder) Return(depth int, opts ...Option) *Keyword {
	return &Keyword{
		Header: b.header(depth, "return", opts),
		Word:   "return",
	}
}

// Break returns a break statement.
func (b *Builder) Break(depth int, opts ...Option) *Keyword {
	return &Keyword{
		Header: b.header(depth, "break", opts),
		Word:   "break",
	}
}

// Undef returns a statement removing the variable name.
func (b *Builder) Undef(depth int, name string, opts ...Option) *Undef {
	return &Undef{Header: b.header(depth, "undef", opts), Name: name}
}

// Closing marks opener as opening a body and returns the block, at the
// opener's depth, that holds body and closes it. It panics if the kind of
// opener cannot open a body.
func (b *Builder) Closing(opener Node, body ...Node) *Block {
	tag, ok := Tag(opener)
	if !ok {
		panic(ErrInvalidOpener.With(kindAttr(opener)))
	}

	opener.Head().Opens = true

	return b.Block(opener.Head().Depth, tag).Append(body...)
}
