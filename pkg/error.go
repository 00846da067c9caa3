package pkg

// Sentinel errors shared by the recomp command and its subpackages.
// These errors can be tested using errors.Is for reliable error checking.

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Error represents a chain of errors.
type Error []error

// ErrReadInput is returned when reading the input document fails.
//
// This error should be wrapped with the underlying I/O error
// to preserve the error chain.
var ErrReadInput = MakeErrorf("failed to read input")

// ErrWriteOutput is returned when writing rendered markup fails.
//
// This error should be wrapped with the underlying I/O error
// to preserve the error chain.
var ErrWriteOutput = MakeErrorf("failed to write output")

// ErrInvalidFileType is returned when an input or output path names
// something other than a regular file, FIFO, or character device.
var ErrInvalidFileType = MakeErrorf("invalid file type")

// ErrInvalidFormat is returned when an invalid document format is specified.
//
// This error should be wrapped with additional context that specifies the
// invalid format along with a list of valid formats.
var ErrInvalidFormat = MakeErrorf("invalid format")

// MakeError constructs an Error from the given errors.
// The errors are stored in the order they are provided:
// the first argument is the innermost error in the chain.
// Nil is returned if no errors are provided.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted error message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error returns a concatenated string representation of all errors
// in the error chain, separated by ": ", from innermost to outermost.
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range slices.All(e) {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap appends one or more errors to the receiver and returns the result.
func (e Error) Wrap(err ...error) Error {
	return append(slices.Clip(e), err...)
}

// Wrapf appends a formatted error to the receiver and returns the result.
func (e Error) Wrapf(format string, args ...any) Error {
	return append(slices.Clip(e), fmt.Errorf(format, args...))
}

// Unwrap returns the slice of errors contained in the receiver.
func (e Error) Unwrap() []error {
	return e
}

// Is reports whether every error in target also appears in the receiver's
// chain. This lets callers match sentinels such as [ErrReadInput] with
// errors.Is even though an Error (a slice) is not comparable.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	for _, want := range t {
		if _, nested := want.(Error); nested {
			continue
		}

		if !slices.ContainsFunc(e, func(have error) bool {
			return errors.Is(have, want)
		}) {
			return false
		}
	}

	return true
}

// Join collects the non-nil errors into a single Error without flattening
// them. Unlike [MakeError], each argument remains one element of the chain,
// which keeps independent failures (e.g. one per invalid tree node) apart.
// Nil is returned when every argument is nil.
func Join(errs ...error) error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, err)
		}
	}

	if len(e) == 0 {
		return nil
	}

	return e
}

// UnwrapErrors recursively unwraps an error chain and returns a slice
// containing all errors in the chain, starting from the innermost error.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	chain := Error{}

	if e, ok := err.(interface{ Unwrap() []error }); ok {
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	} else if e, ok := err.(interface{ Unwrap() error }); ok {
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
