package list

import (
	"log/slog"
	"strconv"

	"github.com/ardnew/recomp/pkg"
)

// ErrInvariant is matched by every [InvariantError].
var ErrInvariant = pkg.MakeErrorf("list invariant violated")

// InvariantError is the panic value raised when a [List] is misused or its
// internal state is inconsistent. Such failures are never returned as
// ordinary errors.
type InvariantError struct {
	Op     string // method that detected the violation
	Reason string
	Len    int
	Cap    int
}

func (e *InvariantError) Error() string {
	return ErrInvariant.Error() + ": " + e.Op + ": " + e.Reason +
		" (len=" + strconv.Itoa(e.Len) + ", cap=" + strconv.Itoa(e.Cap) + ")"
}

// Unwrap returns [ErrInvariant].
func (e *InvariantError) Unwrap() error { return ErrInvariant }

// LogValue implements slog.LogValuer.
func (e *InvariantError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", ErrInvariant.Error()),
		slog.String("op", e.Op),
		slog.String("reason", e.Reason),
		slog.Int("len", e.Len),
		slog.Int("cap", e.Cap),
	)
}
