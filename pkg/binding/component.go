package binding

import (
	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/part"
)

// Component is the declarative value behind a component binding: a named
// render function plus a prop bag. Two component values are equal when the
// name matches and the props are shallow-equal; a name change restarts the
// instance with fresh hook state.
type Component struct {
	Name   string
	Props  map[string]any
	Render func(co *loom.Coroutine, props map[string]any) any
}

// componentBinding owns one coroutine and renders its output into a child
// range. Parent-driven rebinds and self-requested updates both flow through
// the engine, so the instance's commits are always ordered by the scheduler.
type componentBinding struct {
	p part.Part

	pending *Component
	comp    *Component

	co    *loom.Coroutine
	inner *childBinding
	ctx   *Context

	restart   bool
	connected bool
	committed bool
}

func (b *componentBinding) Part() part.Part { return b.p }

func (b *componentBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.comp
}

func (b *componentBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	c, ok := next.(*Component)
	if !ok || b.comp == nil {
		return true
	}
	return c.Name != b.comp.Name || !shallowEqual(c.Props, b.comp.Props)
}

func (b *componentBinding) Bind(next any) error {
	c, ok := next.(*Component)
	if !ok || c == nil || c.Render == nil {
		return NewTypeError(b.p, next, "component parts take *Component values with a render function")
	}
	b.pending = c
	return nil
}

func (b *componentBinding) Connect(ctx *Context) error {
	b.ctx = ctx
	switch {
	case b.co == nil:
		b.spawn(ctx, b.pending)
		b.co.RequestUpdate(lanes.SyncLane)
	case b.pending.Name != b.comp.Name:
		// Identity change: the old instance tears down at commit and a
		// fresh coroutine starts with empty hook state.
		b.restart = true
	default:
		b.comp = b.pending
		b.co.RequestUpdate(ctx.Engine.CurrentPriority())
	}
	b.connected = true
	return nil
}

// spawn creates the instance: a coroutine parented under the connecting
// render pass and a fresh child binding for its output.
func (b *componentBinding) spawn(ctx *Context, c *Component) {
	b.comp = c
	b.inner = &childBinding{p: b.p}
	b.co = ctx.Engine.NewCoroutine(ctx.Owner, func(co *loom.Coroutine, uc *loom.UpdateContext) error {
		v := b.comp.Render(co, b.comp.Props)
		inner := b.inner
		if !inner.ShouldBind(v) {
			return nil
		}
		if err := inner.Bind(v); err != nil {
			return err
		}
		childCtx := &Context{Host: b.ctx.Host, Engine: b.ctx.Engine, Owner: co}
		if err := inner.Connect(childCtx); err != nil {
			return err
		}
		uc.EnqueueMutation(func() { inner.Commit(childCtx) })
		return nil
	})
}

func (b *componentBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// Component output is serialized empty; the first flush renders it.
	if err := b.Connect(ctx); err != nil {
		return err
	}
	b.Commit(ctx)
	return nil
}

func (b *componentBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if b.restart {
		old := b.co
		if b.inner != nil {
			b.inner.Rollback(ctx)
			b.inner.Disconnect(ctx)
		}
		old.Detach()
		b.spawn(ctx, b.pending)
		b.co.RequestUpdate(lanes.SyncLane)
		b.restart = false
	}
	// Output commits through the engine's queues when the coroutine's
	// render pass flushes; there is nothing to apply here.
	b.committed = true
}

func (b *componentBinding) Disconnect(ctx *Context) {
	b.restart = false
	if b.co != nil {
		b.co.Detach()
		b.co = nil
	}
	if b.inner != nil {
		b.inner.Disconnect(ctx)
	}
	b.connected = false
}

func (b *componentBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.inner != nil {
		b.inner.Rollback(ctx)
	}
	b.committed = false
}

func (b *componentBinding) committedNodes() []part.Node {
	if b.inner == nil {
		return nil
	}
	return b.inner.committedNodes()
}
