package tree

import (
	"iter"

	"github.com/ardnew/recomp/arena"
	"github.com/ardnew/recomp/list"
)

// Node is a statement in a program tree.
// The set of implementations is closed: one concrete type per [Kind].
type Node interface {
	arena.Owner

	// Kind returns the node's kind.
	Kind() Kind

	// Head returns the header shared by every node.
	Head() *Header

	node()
}

// Header holds the fields common to every node.
type Header struct {
	arena *arena.Arena

	// Chance is the optional chance decoration; empty means unset.
	Chance string

	// Comment is the optional trailing line comment; empty means unset.
	Comment string

	// Depth is the nesting depth. The document root is at depth 0.
	Depth int

	// Opens marks a node whose body follows it as a closing [Block] named by
	// the node's tag. Only kinds for which [Kind.CanOpen] is true may set it.
	Opens bool
}

// Head returns h.
func (h *Header) Head() *Header { return h }

// Arena returns the arena that owns the node.
func (h *Header) Arena() *arena.Arena { return h.arena }

func (*Header) node() {}

// Block is an ordered group of child statements.
// A named block renders a closing tag after its children.
type Block struct {
	Header

	children *list.List[Node]
	Name     string
}

// Comment is a standalone comment line.
type Comment struct {
	Header

	Text string
}

// BlankLine is an empty line preserved from the source.
type BlankLine struct {
	Header
}

// Attr is a key/value pair of a [Raw] statement, emitted verbatim.
type Attr struct {
	Key   string `json:"key"   toml:"key"   yaml:"key"`
	Value string `json:"value" toml:"value" yaml:"value"`
}

// Raw is a statement with no dedicated representation, emitted as a tag
// named by its ID with its attributes in order.
type Raw struct {
	Header

	attrs *list.List[Attr]
	ID    string
}

// AssignOp selects the form of an [Assign] statement.
type AssignOp int

const (
	AssignNormal AssignOp = iota
	AssignSpecial
	AssignAdd
)

var assignOpName = [...]string{
	AssignNormal:  "normal",
	AssignSpecial: "special",
	AssignAdd:     "add",
}

func (op AssignOp) String() string {
	if op < 0 || int(op) >= len(assignOpName) {
		return "normal"
	}

	return assignOpName[op]
}

// ParseAssignOp returns the operation named s.
func ParseAssignOp(s string) (AssignOp, bool) {
	for op, name := range assignOpName {
		if name == s {
			return AssignOp(op), true
		}
	}

	return AssignNormal, false
}

// Assign sets a variable.
//
// A normal assignment takes Expr as its exact value, if any. A special
// assignment inlines Expr verbatim as attribute text. An add assignment
// ignores Expr.
type Assign struct {
	Header

	Var  string
	Expr string
	Op   AssignOp
}

// If opens a conditional.
type If struct {
	Header

	Cond string
}

// ElseIf continues a conditional.
type ElseIf struct {
	Header

	Cond string
}

// Else closes a conditional chain.
type Else struct {
	Header
}

// While is a conditional loop.
type While struct {
	Header

	Cond string
}

// For iterates Var over the collection Ident.
type For struct {
	Header

	Var      string
	Ident    string
	Reversed bool
}

// DebugText writes a debug message, optionally limited by Filter.
type DebugText struct {
	Header

	Text   string
	Filter string
}

// Keyword is a bare control statement: return, or break when Word is
// "break".
type Keyword struct {
	Header

	Word string
}

// Undef removes a variable.
type Undef struct {
	Header

	Name string
}

func (*Block) Kind() Kind     { return KindBlock }
func (*Comment) Kind() Kind   { return KindComment }
func (*BlankLine) Kind() Kind { return KindBlank }
func (*Raw) Kind() Kind       { return KindRaw }
func (*Assign) Kind() Kind    { return KindAssign }
func (*If) Kind() Kind        { return KindIf }
func (*ElseIf) Kind() Kind    { return KindElseIf }
func (*Else) Kind() Kind      { return KindElse }
func (*While) Kind() Kind     { return KindWhile }
func (*For) Kind() Kind       { return KindFor }
func (*DebugText) Kind() Kind { return KindDebug }
func (k *Keyword) Kind() Kind {
	if k.Word == "break" {
		return KindBreak
	}

	return KindReturn
}
func (*Undef) Kind() Kind     { return KindUndef }

// Children returns the block's child list.
func (b *Block) Children() *list.List[Node] { return b.children }

// Append adds nodes to the end of the block, which takes ownership of them.
func (b *Block) Append(nodes ...Node) *Block {
	for _, n := range nodes {
		b.children.Append(n)
	}

	return b
}

// Len returns the number of children.
func (b *Block) Len() int { return b.children.Len() }

// Nodes returns an iterator over a snapshot of the block's children.
func (b *Block) Nodes() iter.Seq[Node] { return b.children.Values() }

// Destroy frees the block and everything it owns.
func (b *Block) Destroy() { b.arena.Free() }

// Attrs returns an iterator over the statement's attributes in order.
func (r *Raw) Attrs() iter.Seq[Attr] { return r.attrs.Values() }

// AddAttr appends an attribute.
func (r *Raw) AddAttr(key, value string) {
	r.attrs.Append(Attr{Key: key, Value: value})
}

// Tag returns the tag name a node is rendered with and whether its kind may
// open a body. It is the name its closing [Block] must carry.
func Tag(n Node) (string, bool) {
	switch n := n.(type) {
	case *Raw:
		return n.ID, true
	case *If:
		return "do_if", true
	case *ElseIf:
		return "do_elseif", true
	case *Else:
		return "do_else", true
	case *While:
		return "do_while", true
	case *For:
		return "do_all", true
	default:
		return "", false
	}
}
