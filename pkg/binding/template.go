package binding

import (
	"github.com/loom-ui/loom/pkg/part"
)

// templateBinding renders a compiled-template result into a child range.
// Identity is the template fingerprint: the same template rebinds slot
// values in place; a different template stages a full remount.
type templateBinding struct {
	p part.Part

	pendingResult part.Result

	inst     *part.Instance
	slots    []Binding
	fp       uint64
	inserted bool

	// Staged remount, swapped in at commit.
	pendingInst  *part.Instance
	pendingSlots []Binding
	remount      bool

	// Slots staged for commit on the in-place update path.
	staged []Binding

	connected bool
	committed bool
}

func (b *templateBinding) Part() part.Part { return b.p }

func (b *templateBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.pendingResult
}

func (b *templateBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	r, ok := next.(part.Result)
	if !ok {
		return true
	}
	if r.Template.Fingerprint() != b.fp {
		return true
	}
	for i, sb := range b.slots {
		if sb.ShouldBind(r.Values[i]) {
			return true
		}
	}
	return false
}

func (b *templateBinding) Bind(next any) error {
	r, ok := next.(part.Result)
	if !ok {
		return NewTypeError(b.p, next, "template parts take compiled template results")
	}
	if len(r.Values) != r.Template.SlotCount() {
		return NewTypeError(b.p, next, "slot value count does not match template")
	}
	b.pendingResult = r
	return nil
}

func (b *templateBinding) Connect(ctx *Context) error {
	r := b.pendingResult

	if b.inst != nil && r.Template.Fingerprint() == b.fp {
		// Same template: rebind changed slot values in place.
		b.staged = b.staged[:0]
		for i, sb := range b.slots {
			v := r.Values[i]
			if !sb.ShouldBind(v) {
				continue
			}
			if err := sb.Bind(v); err != nil {
				return err
			}
			if err := sb.Connect(ctx); err != nil {
				return err
			}
			b.staged = append(b.staged, sb)
		}
		b.connected = true
		return nil
	}

	// Fresh mount or template identity change: instantiate detached and
	// swap at commit.
	inst, err := r.Template.Mount(ctx.Host)
	if err != nil {
		return err
	}
	slots := make([]Binding, len(inst.Parts))
	for i, pt := range inst.Parts {
		sb, err := New(pt, r.Values[i])
		if err != nil {
			return err
		}
		if err := sb.Connect(ctx); err != nil {
			return err
		}
		slots[i] = sb
	}
	b.pendingInst = inst
	b.pendingSlots = slots
	b.remount = true
	b.connected = true
	return nil
}

func (b *templateBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	r := b.pendingResult
	inst, err := r.Template.Hydrate(w, ctx.Host)
	if err != nil {
		return err
	}
	slots := make([]Binding, len(inst.Parts))
	for i, pt := range inst.Parts {
		sb, err := New(pt, r.Values[i])
		if err != nil {
			return err
		}
		if err := sb.Hydrate(w, ctx); err != nil {
			return err
		}
		slots[i] = sb
	}
	b.inst = inst
	b.slots = slots
	b.fp = r.Template.Fingerprint()
	b.inserted = true
	b.connected = true
	b.committed = true
	return nil
}

func (b *templateBinding) Commit(ctx *Context) {
	if !b.connected {
		return
	}
	if b.remount {
		if b.inst != nil {
			b.teardown(ctx)
		}
		b.inst = b.pendingInst
		b.slots = b.pendingSlots
		b.fp = b.pendingResult.Template.Fingerprint()
		b.pendingInst = nil
		b.pendingSlots = nil
		b.remount = false
		b.inserted = false
		b.staged = b.staged[:0]
		for _, sb := range b.slots {
			b.staged = append(b.staged, sb)
		}
	}
	if !b.inserted && b.inst != nil {
		for _, root := range b.inst.Roots {
			ctx.Host.InsertBefore(b.p.Node, root, b.p.Anchor)
		}
		b.inserted = true
	}
	for _, sb := range b.staged {
		sb.Commit(ctx)
	}
	b.staged = b.staged[:0]
	b.committed = true
}

func (b *templateBinding) Disconnect(ctx *Context) {
	if b.remount {
		for i := len(b.pendingSlots) - 1; i >= 0; i-- {
			b.pendingSlots[i].Disconnect(ctx)
		}
		b.pendingInst = nil
		b.pendingSlots = nil
		b.remount = false
	}
	for i := len(b.slots) - 1; i >= 0; i-- {
		b.slots[i].Disconnect(ctx)
	}
	b.staged = b.staged[:0]
	b.connected = false
}

func (b *templateBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	b.teardown(ctx)
	b.inst = nil
	b.slots = nil
	b.fp = 0
	b.committed = false
}

// teardown rolls the committed instance out of the tree: slot cleanups in
// reverse order, then root detachment.
func (b *templateBinding) teardown(ctx *Context) {
	for i := len(b.slots) - 1; i >= 0; i-- {
		b.slots[i].Rollback(ctx)
		b.slots[i].Disconnect(ctx)
	}
	if b.inserted {
		for _, root := range b.inst.Roots {
			ctx.Host.Remove(root)
		}
		b.inserted = false
	}
}

func (b *templateBinding) committedNodes() []part.Node {
	if !b.inserted || b.inst == nil {
		return nil
	}
	return b.inst.Roots
}
