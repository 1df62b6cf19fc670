package loom

import (
	"errors"
	"fmt"

	ierrors "github.com/loom-ui/loom/internal/errors"
)

// ErrCanceled is returned by Completion.Wait when the awaited update was
// superseded, its coroutine detached, or its cycle aborted.
var ErrCanceled = errors.New("loom: update canceled")

// ErrFlushReentered is returned when Flush is called while a flush is
// already running on the same engine. The commit queues are drained by a
// single scheduler loop only.
var ErrFlushReentered = errors.New("loom: flush re-entered")

// ProtocolError reports a violated engine contract: hooks read out of
// order, a frozen hook store appended to, or a binding initialized twice.
// It is raised at the call site that violated the contract, never swallowed.
type ProtocolError struct {
	// Code is the registered error code (E001..E005).
	Code string

	// Reason describes the specific violation.
	Reason string

	err error
}

// NewProtocolError creates a ProtocolError for a registered code.
func NewProtocolError(code, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Code:   code,
		Reason: fmt.Sprintf(format, args...),
		err:    ierrors.New(code),
	}
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Unwrap exposes the registered error for errors.Is/As.
func (e *ProtocolError) Unwrap() error {
	return e.err
}

// RenderError wraps an error thrown during a render pass that no error
// boundary on the coroutine chain handled. The cycle it belongs to was
// aborted without committing, so the previously committed tree is intact.
type RenderError struct {
	// CoroutineID identifies the coroutine whose render failed.
	CoroutineID uint64

	// Cause is the error the render pass produced.
	Cause error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed in coroutine %d: %v", e.CoroutineID, e.Cause)
}

// Unwrap returns the render-time cause.
func (e *RenderError) Unwrap() error {
	return e.Cause
}
