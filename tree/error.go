package tree

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrInvalidDepth   = NewError("inconsistent nesting depth")
	ErrInvalidOpener  = NewError("kind cannot open a body")
	ErrDanglingOpener = NewError("opener is not followed by its closing block")
	ErrNilNode        = NewError("nil node")
	ErrDecode         = NewError("failed to decode document")
	ErrEncode         = NewError("failed to encode document")
	ErrUnknownKind    = NewError("unknown statement kind")
	ErrMissingField   = NewError("missing required field")
	ErrUnexpectedBody = NewError("statement kind cannot have a body")
	ErrInvalidOp      = NewError("invalid assignment operation")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	base  *Error
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.base = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
// Attributes are appended as key=value pairs, so that every failure of an
// aggregated validation remains identifiable.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	s := strings.Join(part, ": ")

	if len(e.attrs) > 0 {
		attrs := make([]string, 0, len(e.attrs))
		for _, a := range e.attrs {
			attrs = append(attrs, a.String())
		}

		s += " [" + strings.Join(attrs, " ") + "]"
	}

	return s
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.base != nil && t.base == e.base
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{base: e.base, msg: e.msg, err: err, attrs: e.attrs}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	return &Error{
		base:  e.base,
		msg:   e.msg,
		err:   e.err,
		attrs: append(e.attrs[:len(e.attrs):len(e.attrs)], attrs...),
	}
}

func kindAttr(n Node) slog.Attr {
	if n == nil {
		return slog.String("kind", "nil")
	}

	return slog.String("kind", n.Kind().String())
}
