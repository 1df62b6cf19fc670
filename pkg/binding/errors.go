package binding

import (
	"fmt"

	ierrors "github.com/loom-ui/loom/internal/errors"
	"github.com/loom-ui/loom/pkg/part"
)

// TypeError reports a value incompatible with the part it targets. It is
// raised synchronously at bind time, never deferred to commit.
type TypeError struct {
	// Part is the locator the value was bound to.
	Part part.Part

	// Value is the offending value.
	Value any

	// Reason describes the incompatibility.
	Reason string

	err error
}

// NewTypeError creates a TypeError for a part/value mismatch.
func NewTypeError(p part.Part, v any, reason string) *TypeError {
	return &TypeError{
		Part:   p,
		Value:  v,
		Reason: reason,
		err:    ierrors.New("E101"),
	}
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot bind %T to %s part: %s", e.Value, e.Part.Kind, e.Reason)
}

// Unwrap exposes the registered error code for errors.Is/As.
func (e *TypeError) Unwrap() error {
	return e.err
}
