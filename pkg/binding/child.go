package binding

import (
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/part"
)

// childKind is the resolved content variant behind a child part.
type childKind uint8

const (
	childNone childKind = iota
	childText
	childTemplate
	childList
	childComponent
)

func classify(v any) childKind {
	switch v.(type) {
	case part.Result:
		return childTemplate
	case List:
		return childList
	case *Component:
		return childComponent
	default:
		return childText
	}
}

// childBinding renders arbitrary dynamic content into a child-node range
// anchored before a marker. It resolves the content variant once per value
// kind and swaps variants by tearing the old one down at commit time.
type childBinding struct {
	p part.Part

	directive Directive
	dirPrev   any

	kind  childKind
	inner Binding

	pendingKind  childKind
	pendingInner Binding
	stagedKind   childKind
	switching    bool

	pendingValue any
	value        any
	connected    bool
	committed    bool
}

func (b *childBinding) Part() part.Part { return b.p }

func (b *childBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.value
}

func (b *childBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	if _, ok := next.(Directive); ok {
		// Directives re-render every pass; Render decides what changes.
		return true
	}
	if classify(next) != b.kind || b.inner == nil {
		return true
	}
	return b.inner.ShouldBind(next)
}

func (b *childBinding) Bind(next any) error {
	if d, ok := next.(Directive); ok {
		if b.directive != nil && b.directive.DirectiveKind() != d.DirectiveKind() {
			return loom.NewProtocolError("E005", "directive %q rebound as %q",
				b.directive.DirectiveKind(), d.DirectiveKind())
		}
		b.directive = d
		next = d.Render(b.dirPrev)
		b.dirPrev = next
	} else {
		b.directive = nil
		b.dirPrev = nil
	}

	b.pendingValue = next
	b.pendingKind = classify(next)
	if b.inner != nil && b.pendingKind == b.kind && !b.switching {
		return b.inner.Bind(next)
	}
	return nil
}

func (b *childBinding) Connect(ctx *Context) error {
	if b.inner != nil && b.pendingKind == b.kind && !b.switching {
		if err := b.inner.Connect(ctx); err != nil {
			return err
		}
		b.connected = true
		return nil
	}

	// Variant switch: stage a fresh inner binding; the old one tears down
	// at commit. Re-connecting before that commit restages into the same
	// pending inner, so only the last call's state survives. A staged
	// inner of the wrong kind is dropped and replaced, so a rebind to a
	// different variant between connects cannot land in the old one.
	if !b.switching || b.pendingInner == nil || b.stagedKind != b.pendingKind {
		if b.pendingInner != nil {
			b.pendingInner.Disconnect(ctx)
		}
		b.pendingInner = newContentBinding(b.p, b.pendingKind)
		b.stagedKind = b.pendingKind
		b.switching = true
	}
	if err := b.pendingInner.Bind(b.pendingValue); err != nil {
		return err
	}
	if err := b.pendingInner.Connect(ctx); err != nil {
		return err
	}
	b.connected = true
	return nil
}

func newContentBinding(p part.Part, kind childKind) Binding {
	switch kind {
	case childTemplate:
		return &templateBinding{p: p}
	case childList:
		return &listBinding{p: p}
	case childComponent:
		return &componentBinding{p: p}
	default:
		return &childTextBinding{p: p}
	}
}

func (b *childBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// Dynamic child content is serialized empty: the marker is adopted by
	// the enclosing template and the content builds fresh against it.
	if err := b.Connect(ctx); err != nil {
		return err
	}
	b.Commit(ctx)
	return nil
}

func (b *childBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if b.switching {
		if b.inner != nil {
			b.inner.Rollback(ctx)
			b.inner.Disconnect(ctx)
		}
		b.inner = b.pendingInner
		b.kind = b.stagedKind
		b.pendingInner = nil
		b.stagedKind = childNone
		b.switching = false
	}
	if b.inner != nil {
		b.inner.Commit(ctx)
	}
	b.value = b.pendingValue
	b.committed = true
}

func (b *childBinding) Disconnect(ctx *Context) {
	if b.switching {
		if b.pendingInner != nil {
			b.pendingInner.Disconnect(ctx)
		}
		b.pendingInner = nil
		b.stagedKind = childNone
		b.switching = false
	}
	if b.inner != nil {
		b.inner.Disconnect(ctx)
	}
	b.connected = false
}

func (b *childBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.inner != nil {
		b.inner.Rollback(ctx)
	}
	b.committed = false
	b.value = nil
}

func (b *childBinding) committedNodes() []part.Node {
	if b.inner == nil {
		return nil
	}
	return b.inner.committedNodes()
}

// =============================================================================
// Leaf text content
// =============================================================================

// childTextBinding renders a stringified leaf into a child range through one
// owned text node.
type childTextBinding struct {
	p part.Part

	pending   string
	node      part.Node
	inserted  bool
	connected bool
	committed bool
	value     string
}

func (b *childTextBinding) Part() part.Part { return b.p }

func (b *childTextBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.value
}

func (b *childTextBinding) ShouldBind(next any) bool {
	return !b.committed || stringify(next) != b.value
}

func (b *childTextBinding) Bind(next any) error {
	b.pending = stringify(next)
	return nil
}

func (b *childTextBinding) Connect(ctx *Context) error {
	if b.node == nil {
		b.node = ctx.Host.CreateText("")
	}
	b.connected = true
	return nil
}

func (b *childTextBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	if err := b.Connect(ctx); err != nil {
		return err
	}
	b.Commit(ctx)
	return nil
}

func (b *childTextBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if !b.inserted {
		ctx.Host.InsertBefore(b.p.Node, b.node, b.p.Anchor)
		b.inserted = true
	}
	ctx.Host.SetText(b.node, b.pending)
	b.value = b.pending
	b.committed = true
}

func (b *childTextBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *childTextBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.inserted {
		ctx.Host.Remove(b.node)
		b.inserted = false
	}
	b.node = nil
	b.committed = false
	b.value = ""
}

func (b *childTextBinding) committedNodes() []part.Node {
	if !b.inserted {
		return nil
	}
	return []part.Node{b.node}
}
