package part

import (
	"fmt"

	ierrors "github.com/loom-ui/loom/internal/errors"
)

// HydrationError reports a tree-shape mismatch while adopting a pre-built
// tree. It is fatal to that hydration attempt only; sibling subtrees are
// unaffected.
type HydrationError struct {
	// Expected describes the node the template called for ("element <ul>",
	// "text", "marker").
	Expected string

	// Got describes the node the walker produced, or "end of tree".
	Got string

	err error
}

// NewHydrationError creates a HydrationError for a node mismatch.
func NewHydrationError(expected, got string) *HydrationError {
	return &HydrationError{
		Expected: expected,
		Got:      got,
		err:      ierrors.New("E201"),
	}
}

// NewHydrationExhausted creates a HydrationError for a walker that ran out
// of nodes.
func NewHydrationExhausted(expected string) *HydrationError {
	return &HydrationError{
		Expected: expected,
		Got:      "end of tree",
		err:      ierrors.New("E202"),
	}
}

// Error implements the error interface.
func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydration mismatch: expected %s, got %s", e.Expected, e.Got)
}

// Unwrap exposes the registered error code for errors.Is/As.
func (e *HydrationError) Unwrap() error {
	return e.err
}
