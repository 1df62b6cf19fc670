package loom

import (
	"context"
	"sync"

	"github.com/loom-ui/loom/pkg/lanes"
)

// Completion is a one-shot future. It resolves exactly once, either
// normally or canceled, and is safe to await from any goroutine.
type Completion struct {
	done     chan struct{}
	once     sync.Once
	canceled bool
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// resolvedCompletion returns an already-resolved completion.
func resolvedCompletion(canceled bool) *Completion {
	c := newCompletion()
	c.resolve(canceled)
	return c
}

func (c *Completion) resolve(canceled bool) {
	c.once.Do(func() {
		c.canceled = canceled
		close(c.done)
	})
}

// Done returns a channel closed when the completion resolves.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Canceled reports whether the completion resolved canceled. Only
// meaningful after Done is closed.
func (c *Completion) Canceled() bool {
	select {
	case <-c.done:
		return c.canceled
	default:
		return false
	}
}

// Wait blocks until the completion resolves or ctx ends. Returns
// ErrCanceled for a canceled resolution.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		if c.canceled {
			return ErrCanceled
		}
		return nil
	}
}

// UpdateHandle is returned by RequestUpdate. Scheduled resolves when the
// request is registered for a flush; Finished resolves when the update's
// commit completes, or canceled if the request was superseded, its
// coroutine detached, or its cycle aborted.
type UpdateHandle struct {
	// Lanes is the lane set the update was requested under.
	Lanes lanes.Lanes

	scheduled *Completion
	finished  *Completion
}

func newHandle(l lanes.Lanes) *UpdateHandle {
	return &UpdateHandle{
		Lanes:     l,
		scheduled: newCompletion(),
		finished:  newCompletion(),
	}
}

// NoopHandle returns the handle a detached coroutine hands out: no lanes,
// both completions already resolved canceled.
func NoopHandle() *UpdateHandle {
	return &UpdateHandle{
		Lanes:     lanes.NoLanes,
		scheduled: resolvedCompletion(true),
		finished:  resolvedCompletion(true),
	}
}

// Scheduled returns the scheduling completion.
func (h *UpdateHandle) Scheduled() *Completion { return h.scheduled }

// Finished returns the commit completion.
func (h *UpdateHandle) Finished() *Completion { return h.finished }
