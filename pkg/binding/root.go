package binding

import (
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/part"
)

// Root drives a top-level child binding inside a host container. It owns the
// container's end anchor and settles the engine after each render so
// component coroutines spawned during the pass flush before Render returns.
type Root struct {
	ctx *Context
	p   part.Part
	b   Binding
}

// NewRoot mounts a render root at the end of container.
func NewRoot(h part.Host, e *loom.Engine, container part.Node) *Root {
	anchor := h.CreateMarker()
	h.InsertBefore(container, anchor, nil)
	return &Root{
		ctx: &Context{Host: h, Engine: e},
		p:   part.Part{Kind: part.KindChild, Node: container, Anchor: anchor},
	}
}

// Render binds v into the root, commits, and settles the engine.
func (r *Root) Render(v any) error {
	if r.b == nil {
		b, err := New(r.p, v)
		if err != nil {
			return err
		}
		r.b = b
	} else if r.b.ShouldBind(v) {
		if err := r.b.Bind(v); err != nil {
			return err
		}
	} else {
		return nil
	}
	if err := r.b.Connect(r.ctx); err != nil {
		return err
	}
	r.b.Commit(r.ctx)
	return r.ctx.Engine.Settle()
}

// Hydrate adopts a pre-rendered template result from the walker instead of
// building fresh nodes. The root's anchor is appended after the adopted
// content; later renders reconcile against it as usual.
func (r *Root) Hydrate(v part.Result, w part.Walker) error {
	if r.b != nil {
		return errAlreadyInitialized(r.p)
	}
	tb := &templateBinding{p: r.p}
	if err := tb.Bind(v); err != nil {
		return err
	}
	if err := tb.Hydrate(w, r.ctx); err != nil {
		return err
	}
	r.b = &childBinding{
		p:         r.p,
		kind:      childTemplate,
		inner:     tb,
		value:     v,
		connected: true,
		committed: true,
	}
	return r.ctx.Engine.Settle()
}

// Binding returns the root's binding, or nil before the first render.
func (r *Root) Binding() Binding { return r.b }

// Dispose rolls the rendered content out of the tree and removes the
// root's anchor.
func (r *Root) Dispose() {
	if r.b != nil {
		r.b.Rollback(r.ctx)
		r.b.Disconnect(r.ctx)
		r.b = nil
	}
	r.ctx.Host.Remove(r.p.Anchor)
}
