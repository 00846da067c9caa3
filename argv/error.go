package argv

import (
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrIndex    = NewError("argument index out of range")
	ErrCapacity = NewError("negative argument vector capacity")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	base  *Error
	msg   string
	attrs []slog.Attr
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.base = e

	return e
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	for _, a := range e.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.String())
	}

	return sb.String()
}

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.base == e.base
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	return slog.GroupValue(
		append([]slog.Attr{slog.String("error", e.msg)}, e.attrs...)...)
}

// With returns a copy of e carrying additional attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	return &Error{
		base:  e.base,
		msg:   e.msg,
		attrs: append(e.attrs[:len(e.attrs):len(e.attrs)], attrs...),
	}
}
