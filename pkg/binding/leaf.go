package binding

import (
	"fmt"

	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/part"
)

// stringify renders a leaf value into text. Nil renders empty.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// errAlreadyInitialized is the protocol error for hydrating a binding that
// already connected or committed.
func errAlreadyInitialized(p part.Part) error {
	return loom.NewProtocolError("E004", "hydrate on initialized %s binding", p.Kind)
}

// =============================================================================
// Text run
// =============================================================================

// textBinding writes a text run into an existing text node.
type textBinding struct {
	p part.Part

	pending   string
	committed bool
	connected bool
	value     string
}

func (b *textBinding) Part() part.Part { return b.p }

func (b *textBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.value
}

func (b *textBinding) ShouldBind(next any) bool {
	return !b.committed || stringify(next) != b.value
}

func (b *textBinding) Bind(next any) error {
	b.pending = stringify(next)
	return nil
}

func (b *textBinding) Connect(*Context) error {
	b.connected = true
	return nil
}

func (b *textBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// The text node was adopted with its content already serialized.
	b.connected = true
	b.committed = true
	b.value = b.pending
	return nil
}

func (b *textBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	ctx.Host.SetText(b.p.Node, b.pending)
	b.value = b.pending
	b.committed = true
}

func (b *textBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *textBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	ctx.Host.SetText(b.p.Node, "")
	b.committed = false
	b.value = ""
}

func (b *textBinding) committedNodes() []part.Node { return nil }

// =============================================================================
// Attribute
// =============================================================================

// attrBinding sets or removes a named attribute. Nil and false remove the
// attribute; true sets it empty; anything printable stringifies.
type attrBinding struct {
	p part.Part

	pending        string
	pendingPresent bool
	connected      bool
	committed      bool
	value          string
	present        bool
}

func attrValue(p part.Part, v any) (val string, present bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case bool:
		return "", x, nil
	case string:
		return x, true, nil
	case fmt.Stringer:
		return x.String(), true, nil
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return fmt.Sprint(x), true, nil
	default:
		return "", false, NewTypeError(p, v, "attribute values must be strings, booleans, or numbers")
	}
}

func (b *attrBinding) Part() part.Part { return b.p }

func (b *attrBinding) Value() any {
	if !b.committed || !b.present {
		return nil
	}
	return b.value
}

func (b *attrBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	val, present, err := attrValue(b.p, next)
	if err != nil {
		return true // Let Bind raise the descriptive error.
	}
	return val != b.value || present != b.present
}

func (b *attrBinding) Bind(next any) error {
	val, present, err := attrValue(b.p, next)
	if err != nil {
		return err
	}
	b.pending = val
	b.pendingPresent = present
	return nil
}

func (b *attrBinding) Connect(*Context) error {
	b.connected = true
	return nil
}

func (b *attrBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// Attributes were serialized with the tree.
	b.connected = true
	b.committed = true
	b.value = b.pending
	b.present = b.pendingPresent
	return nil
}

func (b *attrBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if b.pendingPresent {
		ctx.Host.SetAttribute(b.p.Node, b.p.Name, b.pending)
	} else if b.present {
		ctx.Host.RemoveAttribute(b.p.Node, b.p.Name)
	}
	b.value = b.pending
	b.present = b.pendingPresent
	b.committed = true
}

func (b *attrBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *attrBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.present {
		ctx.Host.RemoveAttribute(b.p.Node, b.p.Name)
	}
	b.committed = false
	b.present = false
	b.value = ""
}

func (b *attrBinding) committedNodes() []part.Node { return nil }

// =============================================================================
// Property
// =============================================================================

// propBinding sets a named property. Properties carry typed values and are
// compared by interface equality; non-comparable values always rebind.
type propBinding struct {
	p part.Part

	pending   any
	connected bool
	committed bool
	value     any
}

func (b *propBinding) Part() part.Part { return b.p }

func (b *propBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.value
}

func (b *propBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	return !comparableEqual(b.value, next)
}

// comparableEqual reports a == b, treating non-comparable values as unequal
// instead of panicking.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func (b *propBinding) Bind(next any) error {
	b.pending = next
	return nil
}

func (b *propBinding) Connect(*Context) error {
	b.connected = true
	return nil
}

func (b *propBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// Properties never serialize; apply on adoption.
	ctx.Host.SetProperty(b.p.Node, b.p.Name, b.pending)
	b.connected = true
	b.committed = true
	b.value = b.pending
	return nil
}

func (b *propBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	ctx.Host.SetProperty(b.p.Node, b.p.Name, b.pending)
	b.value = b.pending
	b.committed = true
}

func (b *propBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *propBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	ctx.Host.SetProperty(b.p.Node, b.p.Name, nil)
	b.committed = false
	b.value = nil
}

func (b *propBinding) committedNodes() []part.Node { return nil }

// =============================================================================
// Event listener
// =============================================================================

// eventBinding attaches a named event listener. Nil detaches.
type eventBinding struct {
	p part.Part

	pending   part.Listener
	connected bool
	committed bool
	attached  bool
}

func eventListener(p part.Part, v any) (part.Listener, error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case part.Listener:
		return fn, nil
	case func(any):
		return part.Listener(fn), nil
	case func():
		return func(any) { fn() }, nil
	default:
		return nil, NewTypeError(p, v, "event values must be listener functions")
	}
}

func (b *eventBinding) Part() part.Part { return b.p }

func (b *eventBinding) Value() any {
	if !b.committed || b.pending == nil {
		return nil
	}
	return b.pending
}

// ShouldBind always rebinds: listener functions have no useful equality.
func (b *eventBinding) ShouldBind(next any) bool { return true }

func (b *eventBinding) Bind(next any) error {
	fn, err := eventListener(b.p, next)
	if err != nil {
		return err
	}
	b.pending = fn
	return nil
}

func (b *eventBinding) Connect(*Context) error {
	b.connected = true
	return nil
}

func (b *eventBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	// Listeners never serialize; attach on adoption.
	b.connected = true
	b.Commit(ctx)
	return nil
}

func (b *eventBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if b.pending != nil {
		ctx.Host.AddListener(b.p.Node, b.p.Name, b.pending)
		b.attached = true
	} else if b.attached {
		ctx.Host.RemoveListener(b.p.Node, b.p.Name)
		b.attached = false
	}
	b.committed = true
}

func (b *eventBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *eventBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.attached {
		ctx.Host.RemoveListener(b.p.Node, b.p.Name)
		b.attached = false
	}
	b.committed = false
}

func (b *eventBinding) committedNodes() []part.Node { return nil }

// =============================================================================
// Element reference
// =============================================================================

// elementBinding hands the element node to a ref callback on commit, and nil
// on rollback.
type elementBinding struct {
	p part.Part

	pending   func(part.Node)
	connected bool
	committed bool
	ref       func(part.Node)
}

func (b *elementBinding) Part() part.Part { return b.p }

func (b *elementBinding) Value() any {
	if !b.committed || b.ref == nil {
		return nil
	}
	return b.ref
}

func (b *elementBinding) ShouldBind(next any) bool { return true }

func (b *elementBinding) Bind(next any) error {
	switch fn := next.(type) {
	case nil:
		b.pending = nil
	case func(part.Node):
		b.pending = fn
	default:
		return NewTypeError(b.p, next, "element values must be ref callbacks")
	}
	return nil
}

func (b *elementBinding) Connect(*Context) error {
	b.connected = true
	return nil
}

func (b *elementBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	b.connected = true
	b.Commit(ctx)
	return nil
}

func (b *elementBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	b.ref = b.pending
	if b.ref != nil {
		b.ref(b.p.Node)
	}
	b.committed = true
}

func (b *elementBinding) Disconnect(*Context) {
	b.connected = false
}

func (b *elementBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	if b.ref != nil {
		b.ref(nil)
		b.ref = nil
	}
	b.committed = false
}

func (b *elementBinding) committedNodes() []part.Node { return nil }
