package loom

import (
	"github.com/loom-ui/loom/pkg/lanes"
)

// State is the coroutine lifecycle state.
type State uint8

const (
	StateIdle       State = iota // No pending lanes
	StatePending                 // Lanes requested, not yet flushed
	StateRendering               // Executing a hook-driven render pass
	StateCommitting              // Effects from this render are draining
	StateSuspended               // Deferred behind an updating ancestor
	StateDetached                // Finalized; no further updates accepted
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePending:
		return "Pending"
	case StateRendering:
		return "Rendering"
	case StateCommitting:
		return "Committing"
	case StateSuspended:
		return "Suspended"
	case StateDetached:
		return "Detached"
	default:
		return "Unknown"
	}
}

// RenderFunc is a coroutine's resumption continuation: one effect-free
// render pass. It may enqueue commit callbacks through the update context
// but must not touch the real tree directly.
type RenderFunc func(co *Coroutine, uc *UpdateContext) error

// pendingChild is a child request deferred while an ancestor was mid-update.
type pendingChild struct {
	co     *Coroutine
	lanes  lanes.Lanes
	handle *UpdateHandle
}

// Coroutine is the schedulable unit: one component instance's renderable
// state, its hook store, its pending lane set, and a reference to its
// parent for inherited priority and suspension propagation.
//
// Coroutines live in the engine's arena and reference their parent by
// stable id, never by ownership pointer.
type Coroutine struct {
	id       uint64
	parentID uint64
	engine   *Engine

	// All fields below are guarded by engine.mu except hooks and uc,
	// which only the render pass touches.
	state        State
	pendingLanes lanes.Lanes
	render       RenderFunc
	waiters      []*UpdateHandle
	pendingKids  []pendingChild
	boundary     func(error) bool

	hooks hookStore
	uc    *UpdateContext
}

// ID returns the coroutine's stable arena id.
func (co *Coroutine) ID() uint64 { return co.id }

// Parent returns the parent coroutine, or nil for a root.
func (co *Coroutine) Parent() *Coroutine {
	co.engine.mu.Lock()
	defer co.engine.mu.Unlock()
	return co.engine.arena[co.parentID]
}

// State returns the current lifecycle state.
func (co *Coroutine) State() State {
	co.engine.mu.Lock()
	defer co.engine.mu.Unlock()
	return co.state
}

// PendingLanes returns the requested-but-not-yet-flushed lane set.
func (co *Coroutine) PendingLanes() lanes.Lanes {
	co.engine.mu.Lock()
	defer co.engine.mu.Unlock()
	return co.pendingLanes
}

// IsDetached reports whether the coroutine was finalized.
func (co *Coroutine) IsDetached() bool {
	return co.State() == StateDetached
}

// SetErrorBoundary registers a render-error handler. When a render pass in
// this coroutine or a descendant fails, the chain is walked outward and the
// first boundary returning true absorbs the error; that coroutine's staged
// effects for the cycle are dropped.
func (co *Coroutine) SetErrorBoundary(fn func(error) bool) {
	co.engine.mu.Lock()
	defer co.engine.mu.Unlock()
	co.boundary = fn
}

// RequestUpdate unions l into the coroutine's pending lane set and
// registers it with the engine.
//
// On a detached coroutine this is a no-op returning an already-canceled
// handle. While an ancestor is mid-update the request is pushed onto that
// ancestor's pending-coroutine list instead of registering directly, so a
// child never commits out of order relative to a parent already rendering
// it.
func (co *Coroutine) RequestUpdate(l lanes.Lanes) *UpdateHandle {
	e := co.engine
	e.mu.Lock()

	if co.state == StateDetached {
		e.mu.Unlock()
		return NoopHandle()
	}

	if l == lanes.NoLanes {
		l = e.cfg.DefaultLane
	}

	if anc := e.updatingAncestorLocked(co); anc != nil {
		h := newHandle(l)
		if co.state == StateIdle {
			co.state = StateSuspended
		}
		anc.pendingKids = append(anc.pendingKids, pendingChild{co: co, lanes: l, handle: h})
		e.mu.Unlock()
		return h
	}

	h := newHandle(l)
	co.pendingLanes = lanes.Union(co.pendingLanes, l)
	co.waiters = append(co.waiters, h)
	if co.state == StateIdle || co.state == StateSuspended {
		co.state = StatePending
	}
	e.registerPendingLocked(co)
	e.mu.Unlock()

	h.scheduled.resolve(false)
	e.wake()
	return h
}

// CancelUpdate clears pending lanes without rendering. It has no effect
// once rendering has started; render-to-commit is atomic from the
// scheduler's point of view.
func (co *Coroutine) CancelUpdate() {
	e := co.engine
	e.mu.Lock()
	if co.state != StatePending {
		e.mu.Unlock()
		return
	}
	co.pendingLanes = lanes.NoLanes
	co.state = StateIdle
	waiters := co.waiters
	co.waiters = nil
	e.unregisterPendingLocked(co)
	e.checkSettledLocked()
	e.mu.Unlock()

	for _, h := range waiters {
		h.finished.resolve(true)
	}
}

// Detach finalizes the coroutine: a terminal finalizer hook is appended,
// the hook store freezes, effect cleanups run in reverse order, and any
// queued child requests resolve canceled. All future RequestUpdate calls
// short-circuit to a no-op handle.
func (co *Coroutine) Detach() {
	e := co.engine
	e.mu.Lock()
	if co.state == StateDetached {
		e.mu.Unlock()
		return
	}
	co.state = StateDetached
	co.pendingLanes = lanes.NoLanes
	waiters := co.waiters
	co.waiters = nil
	kids := co.pendingKids
	co.pendingKids = nil
	for _, pc := range kids {
		if pc.co.state == StateSuspended {
			pc.co.state = StateIdle
		}
	}
	e.unregisterPendingLocked(co)
	delete(e.arena, co.id)
	e.checkSettledLocked()
	e.mu.Unlock()

	co.hooks.finalize()
	co.hooks.runCleanups()

	for _, h := range waiters {
		h.finished.resolve(true)
	}
	for _, pc := range kids {
		pc.handle.scheduled.resolve(true)
		pc.handle.finished.resolve(true)
	}
}
