// Package argv implements a growable vector of command-line arguments.
//
// A [Vector] always keeps one free slot past its last element, mirroring the
// terminating sentinel an exec-style argument array carries. It is not safe
// for concurrent use.
package argv

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Vector is an ordered list of argument strings.
type Vector struct {
	items []string // len(items) is the capacity; items[count] is the sentinel
	owned []bool
	count int
}

// New returns an empty vector with capacity n, or 1 if n is 0.
func New(n int) *Vector {
	if n < 0 {
		panic(ErrCapacity.With(slog.Int("capacity", n)))
	}

	n = max(n, 1)

	return &Vector{items: make([]string, n), owned: make([]bool, n)}
}

// Of returns a vector holding copies of args.
func Of(args ...string) *Vector {
	v := New(len(args) + 1)
	for _, s := range args {
		v.Append(s, true)
	}

	return v
}

// Fields returns a vector holding the whitespace-separated fields of s.
func Fields(s string) *Vector {
	return Of(strings.Fields(s)...)
}

// Append adds s to the end of the vector.
// If own is true, the vector stores its own copy of s; otherwise it borrows
// the caller's string. The capacity doubles when only the sentinel slot
// remains.
func (v *Vector) Append(s string, own bool) {
	if v.count == len(v.items)-1 {
		v.grow(len(v.items) * 2)
	}

	if own {
		s = strings.Clone(s)
	}

	v.items[v.count] = s
	v.owned[v.count] = own
	v.count++
}

// Appendf formats according to format and appends the result.
// The vector owns the formatted string.
func (v *Vector) Appendf(format string, args ...any) {
	v.Append(fmt.Sprintf(format, args...), false)
	v.owned[v.count-1] = true
}

// Len returns the number of arguments.
func (v *Vector) Len() int { return v.count }

// Cap returns the allocated capacity, including the sentinel slot.
func (v *Vector) Cap() int { return len(v.items) }

// At returns the argument at index i. It panics if i is out of range.
func (v *Vector) At(i int) string {
	v.check(i)

	return v.items[i]
}

// Owned reports whether the vector owns its copy of argument i.
// It panics if i is out of range.
func (v *Vector) Owned(i int) bool {
	v.check(i)

	return v.owned[i]
}

// Strings returns the arguments as a new slice, without the sentinel.
func (v *Vector) Strings() []string {
	out := make([]string, v.count)
	copy(out, v.items[:v.count])

	return out
}

// String joins the arguments with spaces.
func (v *Vector) String() string {
	return strings.Join(v.items[:v.count], " ")
}

// Reset removes every argument while keeping the allocated capacity.
func (v *Vector) Reset() {
	clear(v.items)
	clear(v.owned)
	v.count = 0
}

// Dump writes the vector to standard error under the heading name, along
// with the file and line of the caller.
func (v *Vector) Dump(name string) {
	_ = v.dump(os.Stderr, name, 2)
}

// DumpTo is like [Vector.Dump] but writes to w.
func (v *Vector) DumpTo(w io.Writer, name string) error {
	return v.dump(w, name, 2)
}

func (v *Vector) dump(w io.Writer, name string, skip int) error {
	file, line := "???", 0
	if _, f, l, ok := runtime.Caller(skip); ok {
		file, line = filepath.Base(f), l
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Dumping list \"%s\" (%s at %d)\n", name, file, line)

	for _, s := range v.items[:v.count] {
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())

	return err
}

func (v *Vector) grow(n int) {
	items := make([]string, n)
	owned := make([]bool, n)

	copy(items, v.items[:v.count])
	copy(owned, v.owned[:v.count])

	v.items, v.owned = items, owned
}

func (v *Vector) check(i int) {
	if i < 0 || i >= v.count {
		panic(ErrIndex.With(slog.Int("index", i), slog.Int("len", v.count)))
	}
}
