package binding

import (
	"github.com/loom-ui/loom/pkg/part"
	"github.com/loom-ui/loom/pkg/reconcile"
)

// Item is one keyed entry of a list value.
type Item struct {
	Key   any
	Value any
}

// List is the ordered keyed collection rendered by a list binding.
type List []Item

// Keyed builds a list item with an explicit key.
func Keyed(key, value any) Item {
	return Item{Key: key, Value: value}
}

// Items builds a list with positional keys. With index keys the reconciler
// degenerates to per-index updates: the list is replaced element by element,
// never reordered.
func Items(values ...any) List {
	l := make(List, len(values))
	for i, v := range values {
		l[i] = Item{Key: i, Value: v}
	}
	return l
}

// listItem is one live entry: a marker-delimited node range plus the child
// binding rendering the entry's value between the markers.
type listItem struct {
	key   any
	start part.Node
	end   part.Node
	sub   *childBinding

	inserted bool
}

// nodes returns the item's full node range in document order.
func (it *listItem) nodes() []part.Node {
	ns := make([]part.Node, 0, 2+len(it.sub.committedNodes()))
	ns = append(ns, it.start)
	ns = append(ns, it.sub.committedNodes()...)
	ns = append(ns, it.end)
	return ns
}

// listPlan is one staged reconciliation pass.
type listPlan struct {
	ops      []reconcile.Op
	newItems []*listItem
	value    List
}

// listBinding renders an ordered keyed collection into a child range. Each
// entry owns a start/end marker pair; reconciliation moves, inserts, and
// removes whole ranges, and an update never changes an entry's position.
type listBinding struct {
	p part.Part

	pendingValue List
	plan         *listPlan

	items     []*listItem
	value     List
	connected bool
	committed bool
}

func (b *listBinding) Part() part.Part { return b.p }

func (b *listBinding) Value() any {
	if !b.committed {
		return nil
	}
	return b.value
}

func (b *listBinding) ShouldBind(next any) bool {
	if !b.committed {
		return true
	}
	nl, ok := next.(List)
	if !ok {
		return true
	}
	if len(nl) != len(b.value) {
		return true
	}
	for i, it := range nl {
		if !keyEqual(it.Key, b.value[i].Key) {
			return true
		}
		if b.items[i].sub.ShouldBind(it.Value) {
			return true
		}
	}
	return false
}

// keyEqual compares reconciliation keys, treating non-comparable keys as
// unequal instead of panicking.
func keyEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func (b *listBinding) Bind(next any) error {
	nl, ok := next.(List)
	if !ok {
		return NewTypeError(b.p, next, "list parts take keyed lists")
	}
	b.pendingValue = nl
	return nil
}

func (b *listBinding) Connect(ctx *Context) error {
	// A superseded plan's inserted entries were connected but never touched
	// the tree; tear their subs down so staged component coroutines detach.
	b.dropPlan(ctx)

	oldKeys := make([]any, len(b.items))
	for i, it := range b.items {
		oldKeys[i] = it.key
	}
	newKeys := make([]any, len(b.pendingValue))
	for i, it := range b.pendingValue {
		newKeys[i] = it.Key
	}

	plan := &listPlan{
		ops:      reconcile.Diff(oldKeys, newKeys),
		newItems: make([]*listItem, len(newKeys)),
		value:    b.pendingValue,
	}

	// Stage sub-bindings: surviving entries rebind their new value,
	// inserted entries get fresh marker pairs and child bindings.
	for _, op := range plan.ops {
		switch op.Kind {
		case reconcile.OpUpdate, reconcile.OpMove:
			it := b.items[op.OldIndex]
			plan.newItems[op.NewIndex] = it
			v := b.pendingValue[op.NewIndex].Value
			if !it.sub.ShouldBind(v) {
				continue
			}
			if err := it.sub.Bind(v); err != nil {
				return err
			}
			if err := it.sub.Connect(ctx); err != nil {
				return err
			}

		case reconcile.OpInsert:
			entry := b.pendingValue[op.NewIndex]
			it := &listItem{
				key:   entry.Key,
				start: ctx.Host.CreateMarker(),
				end:   ctx.Host.CreateMarker(),
			}
			it.sub = &childBinding{p: part.Part{Kind: part.KindChild, Node: b.p.Node, Anchor: it.end}}
			plan.newItems[op.NewIndex] = it
			if err := it.sub.Bind(entry.Value); err != nil {
				return err
			}
			if err := it.sub.Connect(ctx); err != nil {
				return err
			}
		}
	}

	b.plan = plan
	b.connected = true
	return nil
}

func (b *listBinding) Hydrate(w part.Walker, ctx *Context) error {
	if b.connected || b.committed {
		return errAlreadyInitialized(b.p)
	}
	if err := b.Connect(ctx); err != nil {
		return err
	}
	b.Commit(ctx)
	return nil
}

func (b *listBinding) Commit(ctx *Context) {
	if !b.connected || b.plan == nil {
		return
	}
	plan := b.plan

	for _, op := range plan.ops {
		switch op.Kind {
		case reconcile.OpUpdate:
			// Position is untouched; only the value recommits.
			plan.newItems[op.NewIndex].sub.Commit(ctx)

		case reconcile.OpMove:
			it := plan.newItems[op.NewIndex]
			ref := b.resolveRef(op.Before, plan)
			for _, n := range it.nodes() {
				ctx.Host.InsertBefore(b.p.Node, n, ref)
			}
			it.sub.Commit(ctx)

		case reconcile.OpInsert:
			it := plan.newItems[op.NewIndex]
			ref := b.resolveRef(op.Before, plan)
			ctx.Host.InsertBefore(b.p.Node, it.start, ref)
			ctx.Host.InsertBefore(b.p.Node, it.end, ref)
			it.inserted = true
			it.sub.Commit(ctx)

		case reconcile.OpRemove:
			it := b.items[op.OldIndex]
			it.sub.Rollback(ctx)
			it.sub.Disconnect(ctx)
			ctx.Host.Remove(it.start)
			ctx.Host.Remove(it.end)
			it.inserted = false
		}
	}

	b.items = plan.newItems
	b.value = plan.value
	b.plan = nil
	b.committed = true
}

// resolveRef maps a reconciliation anchor onto a live node: the start marker
// of the referenced entry, or the list's own end anchor.
func (b *listBinding) resolveRef(ref reconcile.Ref, plan *listPlan) part.Node {
	switch ref.Kind {
	case reconcile.RefNew:
		return plan.newItems[ref.Index].start
	case reconcile.RefOld:
		return b.items[ref.Index].start
	default:
		return b.p.Anchor
	}
}

// dropPlan discards a staged-but-uncommitted plan, disconnecting the subs
// its inserts created.
func (b *listBinding) dropPlan(ctx *Context) {
	if b.plan == nil {
		return
	}
	for _, op := range b.plan.ops {
		if op.Kind == reconcile.OpInsert {
			if it := b.plan.newItems[op.NewIndex]; it != nil {
				it.sub.Disconnect(ctx)
			}
		}
	}
	b.plan = nil
}

func (b *listBinding) Disconnect(ctx *Context) {
	b.dropPlan(ctx)
	for i := len(b.items) - 1; i >= 0; i-- {
		b.items[i].sub.Disconnect(ctx)
	}
	b.connected = false
}

func (b *listBinding) Rollback(ctx *Context) {
	if !b.committed {
		return
	}
	// Empty-target tear-down: reverse document order.
	for i := len(b.items) - 1; i >= 0; i-- {
		it := b.items[i]
		it.sub.Rollback(ctx)
		if it.inserted {
			ctx.Host.Remove(it.start)
			ctx.Host.Remove(it.end)
			it.inserted = false
		}
	}
	b.items = nil
	b.value = nil
	b.committed = false
}

func (b *listBinding) committedNodes() []part.Node {
	var ns []part.Node
	for _, it := range b.items {
		if it.inserted {
			ns = append(ns, it.nodes()...)
		}
	}
	return ns
}
