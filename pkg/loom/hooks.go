package loom

import (
	"fmt"

	"github.com/loom-ui/loom/pkg/lanes"
)

// HookKind identifies the tagged variant of a hook slot. Hook identity is
// positional: the Nth hook read during one render must be the Nth hook of
// the same kind on every later render.
type HookKind uint8

const (
	HookID HookKind = iota + 1
	HookReducer
	HookMemo
	HookInsertion
	HookLayout
	HookPassive
	HookFinalizer
)

// String returns a human-readable name for the hook kind.
func (k HookKind) String() string {
	switch k {
	case HookID:
		return "ID"
	case HookReducer:
		return "Reducer"
	case HookMemo:
		return "Memo"
	case HookInsertion:
		return "InsertionEffect"
	case HookLayout:
		return "LayoutEffect"
	case HookPassive:
		return "PassiveEffect"
	case HookFinalizer:
		return "Finalizer"
	default:
		return "Unknown"
	}
}

// Cleanup is an optional function returned by an effect, run before the
// effect re-runs and when the coroutine detaches.
type Cleanup func()

type hookSlot struct {
	kind  HookKind
	state any
}

// hookStore is the ordered, append-only-per-render slot list owned by one
// coroutine. Only the owning coroutine's render pass touches it.
type hookStore struct {
	slots    []hookSlot
	cursor   int
	frozen   bool
	anchored bool // First render completed; slot count is fixed
}

// next advances the cursor and returns the slot for this call position,
// appending a fresh slot on the first render. A kind mismatch or an append
// past the anchored count panics with a ProtocolError; the engine converts
// render-time panics into render errors.
func (hs *hookStore) next(kind HookKind) (*hookSlot, bool) {
	if hs.frozen {
		panic(NewProtocolError("E002", "hook %s read after finalizer", kind))
	}
	idx := hs.cursor
	hs.cursor++

	if idx < len(hs.slots) {
		slot := &hs.slots[idx]
		if slot.kind != kind {
			panic(NewProtocolError("E001", "slot %d holds %s, render asked for %s", idx, slot.kind, kind))
		}
		return slot, false
	}
	if hs.anchored {
		panic(NewProtocolError("E001", "extra %s hook at slot %d", kind, idx))
	}
	hs.slots = append(hs.slots, hookSlot{kind: kind})
	return &hs.slots[idx], true
}

func (hs *hookStore) beginRender() {
	hs.cursor = 0
}

func (hs *hookStore) endRender() {
	if hs.anchored && hs.cursor != len(hs.slots) {
		panic(NewProtocolError("E001", "render read %d hook(s), store holds %d", hs.cursor, len(hs.slots)))
	}
	hs.anchored = true
}

// finalize appends the terminal finalizer slot and freezes the store.
func (hs *hookStore) finalize() {
	if hs.frozen {
		return
	}
	hs.slots = append(hs.slots, hookSlot{kind: HookFinalizer})
	hs.frozen = true
}

// runCleanups runs effect cleanups in reverse slot order.
func (hs *hookStore) runCleanups() {
	for i := len(hs.slots) - 1; i >= 0; i-- {
		if es, ok := hs.slots[i].state.(*effectState); ok && es.cleanup != nil {
			cleanup := es.cleanup
			es.cleanup = nil
			cleanup()
		}
	}
}

// =============================================================================
// Reducer / state hooks
// =============================================================================

type reducerState[S, A any] struct {
	memoized     S
	pending      []A
	pendingLanes lanes.Lanes
	reducer      func(S, A) S
	dispatch     func(A) *UpdateHandle
}

// UseReducer reads the reducer slot at the current hook position. The
// returned dispatch stages an action and requests an update under the
// engine's current priority; staged actions fold into the memoized state on
// the next render pass whose lanes include theirs.
func UseReducer[S, A any](co *Coroutine, reducer func(S, A) S, initial S) (S, func(A) *UpdateHandle) {
	slot, first := co.hooks.next(HookReducer)
	var rs *reducerState[S, A]
	if first {
		rs = &reducerState[S, A]{memoized: initial, reducer: reducer}
		rs.dispatch = func(action A) *UpdateHandle {
			e := co.engine
			l := e.CurrentPriority()
			e.mu.Lock()
			if co.state == StateDetached {
				e.mu.Unlock()
				return NoopHandle()
			}
			rs.pending = append(rs.pending, action)
			rs.pendingLanes = lanes.Union(rs.pendingLanes, l)
			e.mu.Unlock()
			return co.RequestUpdate(l)
		}
		slot.state = rs
	} else {
		var ok bool
		rs, ok = slot.state.(*reducerState[S, A])
		if !ok {
			panic(NewProtocolError("E001", "reducer slot %d changed value type", co.hooks.cursor-1))
		}
	}

	// Fold in pending actions whose lanes are covered by this pass. The
	// pending list is shared with dispatch, which may run on another
	// goroutine, so it is detached under the engine lock.
	e := co.engine
	e.mu.Lock()
	var fold []A
	if rs.pendingLanes != lanes.NoLanes && lanes.Intersect(rs.pendingLanes, co.renderLanes()) != lanes.NoLanes {
		fold = rs.pending
		rs.pending = nil
		rs.pendingLanes = lanes.NoLanes
	}
	e.mu.Unlock()
	for _, a := range fold {
		rs.memoized = rs.reducer(rs.memoized, a)
	}
	return rs.memoized, rs.dispatch
}

// UseState is UseReducer with a replacing reducer.
func UseState[S any](co *Coroutine, initial S) (S, func(S) *UpdateHandle) {
	return UseReducer(co, func(_, next S) S { return next }, initial)
}

// =============================================================================
// Memo hook
// =============================================================================

type memoState[T any] struct {
	value T
	deps  []any
	valid bool
}

// UseMemo returns the memoized value, recomputing when the dependency
// sequence changes (shallow equality). Nil deps recompute every render.
func UseMemo[T any](co *Coroutine, compute func() T, deps []any) T {
	slot, first := co.hooks.next(HookMemo)
	var ms *memoState[T]
	if first {
		ms = &memoState[T]{}
		slot.state = ms
	} else {
		var ok bool
		ms, ok = slot.state.(*memoState[T])
		if !ok {
			panic(NewProtocolError("E001", "memo slot %d changed value type", co.hooks.cursor-1))
		}
	}

	if !ms.valid || deps == nil || !depsEqual(ms.deps, deps) {
		ms.value = compute()
		ms.deps = deps
		ms.valid = true
	}
	return ms.value
}

// =============================================================================
// Effect hooks
// =============================================================================

type effectState struct {
	cleanup func()
	deps    []any
	ran     bool
}

func useEffectKind(co *Coroutine, kind HookKind, phase Phase, fn func() Cleanup, deps []any) {
	slot, first := co.hooks.next(kind)
	var es *effectState
	if first {
		es = &effectState{}
		slot.state = es
	} else {
		es = slot.state.(*effectState)
	}

	changed := !es.ran || deps == nil || !depsEqual(es.deps, deps)
	es.deps = deps
	if !changed {
		return
	}
	es.ran = true

	uc := co.uc
	if uc == nil {
		panic(NewProtocolError("E001", "%s hook called outside a render pass", kind))
	}
	uc.Enqueue(phase, func() {
		if es.cleanup != nil {
			es.cleanup()
			es.cleanup = nil
		}
		if c := fn(); c != nil {
			es.cleanup = c
		}
	})
}

// UseEffect stages a passive effect: it runs in the deferred phase after
// the cycle's mutation and layout work.
func UseEffect(co *Coroutine, fn func() Cleanup, deps []any) {
	useEffectKind(co, HookPassive, PhasePassive, fn, deps)
}

// UseLayoutEffect stages a layout effect: post-mutation, pre-paint.
func UseLayoutEffect(co *Coroutine, fn func() Cleanup, deps []any) {
	useEffectKind(co, HookLayout, PhaseLayout, fn, deps)
}

// UseInsertionEffect stages a mutation-phase effect, ordered with the
// cycle's structural writes.
func UseInsertionEffect(co *Coroutine, fn func() Cleanup, deps []any) {
	useEffectKind(co, HookInsertion, PhaseMutation, fn, deps)
}

// =============================================================================
// ID hook
// =============================================================================

// UseID returns an identifier stable across renders, derived from the
// coroutine id and the hook position.
func UseID(co *Coroutine) string {
	slot, first := co.hooks.next(HookID)
	if first {
		slot.state = fmt.Sprintf("co%d:%d", co.id, co.hooks.cursor-1)
	}
	return slot.state.(string)
}

// depsEqual is shallow sequence equality over dependency snapshots.
func depsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderLanes returns the lane set of the in-flight render pass, or the
// engine default outside one.
func (co *Coroutine) renderLanes() lanes.Lanes {
	if co.uc != nil {
		return co.uc.Lanes
	}
	return co.engine.cfg.DefaultLane
}
