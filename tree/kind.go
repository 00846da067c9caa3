package tree

import (
	"iter"
	"strconv"
	"strings"

	"github.com/ardnew/recomp/pkg"
)

// Kind identifies the concrete type of a [Node].
type Kind int

const (
	KindBlock Kind = iota
	KindComment
	KindBlank
	KindRaw
	KindAssign
	KindIf
	KindElseIf
	KindElse
	KindWhile
	KindFor
	KindDebug
	KindReturn
	KindBreak
	KindUndef
)

var kindName = [...]string{
	KindBlock:   "block",
	KindComment: "comment",
	KindBlank:   "blank",
	KindRaw:     "raw",
	KindAssign:  "assign",
	KindIf:      "if",
	KindElseIf:  "elseif",
	KindElse:    "else",
	KindWhile:   "while",
	KindFor:     "for",
	KindDebug:   "debug",
	KindReturn:  "return",
	KindBreak:   "break",
	KindUndef:   "undef",
}

// String returns the document name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindName[k]
}

// ParseKind returns the kind named s, ignoring case and surrounding space.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))

	for k, name := range kindName {
		if name == s {
			return Kind(k), true
		}
	}

	return 0, false
}

// Kinds returns an iterator over every kind in declaration order.
func Kinds() iter.Seq[Kind] {
	return func(yield func(Kind) bool) {
		for k := range kindName {
			if !yield(Kind(k)) {
				return
			}
		}
	}
}

// KindNames returns an iterator over the names of every kind.
func KindNames() iter.Seq[string] {
	kinds := make([]Kind, len(kindName))
	for k := range kinds {
		kinds[k] = Kind(k)
	}

	return pkg.TypeCast[Kind, string](Kind.String).Values(kinds...)
}

// CanOpen reports whether nodes of kind k may own a body that is closed by
// the block that follows them.
func (k Kind) CanOpen() bool {
	switch k {
	case KindRaw, KindIf, KindElseIf, KindElse, KindWhile, KindFor:
		return true
	default:
		return false
	}
}
