package binding

import (
	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/part"
)

// Context carries the collaborators a binding needs across its lifecycle:
// the host adapter the tree is driven through and the engine that schedules
// component coroutines.
type Context struct {
	Host   part.Host
	Engine *loom.Engine

	// Owner is the coroutine whose render pass is creating bindings, or
	// nil outside one. Component bindings parent their coroutines under it.
	Owner *loom.Coroutine
}

// Binding is the live, stateful counterpart of a declarative renderable
// value, attached to one part of the output tree.
//
// The interface is sealed: variants are created only through New, so every
// implementation lives in this package and the set is closed.
type Binding interface {
	// Part returns the immutable locator this binding attaches to.
	Part() part.Part

	// Value returns the committed value, or nil before the first commit.
	Value() any

	// ShouldBind reports whether next should be staged. It returns false
	// only if the binding has previously committed and next is considered
	// equal to the committed value under the variant's equality policy.
	ShouldBind(next any) bool

	// Bind stages next as the pending value. A value incompatible with
	// the part raises a BindingTypeError synchronously.
	Bind(next any) error

	// Connect computes the pending side effects and sub-bindings for the
	// staged value without touching the committed tree. Calling it again
	// before a commit replaces the previous staging; only the last call's
	// pending state survives.
	Connect(ctx *Context) error

	// Hydrate adopts a pre-built tree instead of connecting fresh. It is
	// mutually exclusive with Connect/Commit: calling it on a binding that
	// already connected or committed raises a ProtocolError.
	Hydrate(w part.Walker, ctx *Context) error

	// Commit applies the staged results to the real tree. After Commit,
	// ShouldBind compares against the just-committed value.
	Commit(ctx *Context)

	// Disconnect undoes Connect: cleanups run in reverse dependency order
	// and staged state is dropped. Committed tree content is untouched.
	Disconnect(ctx *Context)

	// Rollback undoes Commit: committed nodes detach from the tree. The
	// binding may be reconnected later with a fresh value.
	Rollback(ctx *Context)

	// committedNodes returns the top-level tree nodes this binding has
	// committed, in document order. Leaf bindings that own no nodes
	// return nil. Sealing method.
	committedNodes() []part.Node
}

// Directive is the escape hatch for custom rendering behavior. A directive
// renders to an ordinary bindable value; the child binding re-invokes Render
// on every pass, feeding it the previously rendered value.
//
// Rebinding a directive of a different kind onto the same part is a
// protocol violation, not a silent reset.
type Directive interface {
	// DirectiveKind discriminates directive types for rebind checks.
	DirectiveKind() string

	// Render produces the value to bind. prev is the directive's previous
	// rendered value, or nil on the first pass.
	Render(prev any) any
}

// New resolves the binding variant for a part and an initial value. The
// variant is fixed for the binding's lifetime; the value is staged as
// pending and not yet connected.
func New(p part.Part, v any) (Binding, error) {
	var b Binding
	switch p.Kind {
	case part.KindText:
		b = &textBinding{p: p}
	case part.KindAttribute:
		b = &attrBinding{p: p}
	case part.KindProperty:
		b = &propBinding{p: p}
	case part.KindEvent:
		b = &eventBinding{p: p}
	case part.KindElement:
		b = &elementBinding{p: p}
	case part.KindChild:
		b = &childBinding{p: p}
	default:
		return nil, NewTypeError(p, v, "unsupported part kind")
	}
	if err := b.Bind(v); err != nil {
		return nil, err
	}
	return b, nil
}

// shallowEqual is the equality policy for prop bags: same keys, same values
// by interface comparison.
func shallowEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}
