// Package reconcile computes minimal insert/move/remove/update operations to
// transform one keyed ordered sequence into another.
//
// The algorithm is a four-pointer head/tail scan: matched prefixes and
// suffixes become in-place updates, single-item rotations become moves, and
// only when none of the four pointer pairs match does it fall back to a
// one-time hashmap over the remaining old keys. Best case is O(n) with no
// allocation beyond the op list.
//
// The algorithm is pure: it sees only keys and emits operations with
// position-stable references. Callers own the mapping from indices to live
// bindings and tree nodes.
package reconcile

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// OpKind is the type of structural operation.
type OpKind uint8

const (
	OpInsert OpKind = iota // New item enters the sequence
	OpMove                 // Existing item changes position
	OpRemove               // Old item leaves the sequence
	OpUpdate               // Item keeps its position, value is rebound
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "Insert"
	case OpMove:
		return "Move"
	case OpRemove:
		return "Remove"
	case OpUpdate:
		return "Update"
	default:
		return "Unknown"
	}
}

// RefKind discriminates the anchor a positional op is applied against.
type RefKind uint8

const (
	RefEnd RefKind = iota // Append at the end of the sequence
	RefNew                // Before the item at a new-sequence index, already placed
	RefOld                // Before the current position of an old-sequence item
)

// Ref is the anchor for an Insert or Move: the item the moved or inserted
// item lands in front of. Ops are emitted so that a RefNew anchor is always
// an item placed by an earlier op (or an untouched suffix item).
type Ref struct {
	Kind  RefKind
	Index int
}

// End anchors at the end of the sequence.
var End = Ref{Kind: RefEnd}

// BeforeNew anchors before the item at new-sequence index i.
func BeforeNew(i int) Ref {
	return Ref{Kind: RefNew, Index: i}
}

// BeforeOld anchors before the current position of old-sequence item i.
func BeforeOld(i int) Ref {
	return Ref{Kind: RefOld, Index: i}
}

// Op is a single structural operation.
//
// OldIndex is the source index for Move/Remove/Update and -1 for Insert.
// NewIndex is the target index for Insert/Move/Update and -1 for Remove.
type Op struct {
	Kind     OpKind
	OldIndex int
	NewIndex int
	Before   Ref // Anchor for Insert and Move only
}

// Diff compares two keyed sequences and returns the operations that
// transform the old order into the new one.
//
// An Update keeps the item's position and only rebinds its value, so
// identity-preserving state behind that key survives a reorder. Keys are
// assumed unique within one pass; if the fallback path sees duplicate old
// keys, the last occurrence wins and earlier duplicates are removed.
func Diff[K comparable](old, new []K) []Op {
	oldHead, oldTail := 0, len(old)-1
	newHead, newTail := 0, len(new)-1
	var ops []Op

	for {
		if newHead > newTail {
			// Everything left in the old range is gone.
			for i := oldHead; i <= oldTail; i++ {
				ops = append(ops, Op{Kind: OpRemove, OldIndex: i, NewIndex: -1})
			}
			return ops
		}
		if oldHead > oldTail {
			// Everything left in the new range is fresh. Anchor before the
			// item that ends up just past the tail, or at the end.
			before := anchorAfter(newTail, len(new))
			for ; newHead <= newTail; newHead++ {
				ops = append(ops, Op{Kind: OpInsert, OldIndex: -1, NewIndex: newHead, Before: before})
			}
			return ops
		}

		switch {
		case old[oldHead] == new[newHead]:
			// Stable prefix: update in place.
			ops = append(ops, Op{Kind: OpUpdate, OldIndex: oldHead, NewIndex: newHead})
			oldHead++
			newHead++

		case old[oldTail] == new[newTail]:
			// Stable suffix: update in place.
			ops = append(ops, Op{Kind: OpUpdate, OldIndex: oldTail, NewIndex: newTail})
			oldTail--
			newTail--

		case old[oldHead] == new[newTail]:
			// Old head moved to the back of the window.
			ops = append(ops, Op{
				Kind:     OpMove,
				OldIndex: oldHead,
				NewIndex: newTail,
				Before:   anchorAfter(newTail, len(new)),
			})
			oldHead++
			newTail--

		case old[oldTail] == new[newHead]:
			// Old tail moved to the front of the window: lands before the
			// old head's current position.
			ops = append(ops, Op{
				Kind:     OpMove,
				OldIndex: oldTail,
				NewIndex: newHead,
				Before:   BeforeOld(oldHead),
			})
			oldTail--
			newHead++

		default:
			return append(ops, diffWithMap(old, new, oldHead, oldTail, newHead, newTail)...)
		}
	}
}

// diffWithMap handles the arbitrary-permutation remainder with a one-time
// map from old keys to indices, walking the new window back to front so that
// every anchor is already placed when its op is applied.
func diffWithMap[K comparable](old, new []K, oldHead, oldTail, newHead, newTail int) []Op {
	oldIndex := make(map[K]int, oldTail-oldHead+1)
	for i := oldHead; i <= oldTail; i++ {
		oldIndex[old[i]] = i
	}

	consumed := mapset.NewThreadUnsafeSet[int]()
	var ops []Op

	for n := newTail; n >= newHead; n-- {
		before := anchorAfter(n, len(new))
		if o, ok := oldIndex[new[n]]; ok && !consumed.Contains(o) {
			consumed.Add(o)
			ops = append(ops, Op{Kind: OpMove, OldIndex: o, NewIndex: n, Before: before})
		} else {
			ops = append(ops, Op{Kind: OpInsert, OldIndex: -1, NewIndex: n, Before: before})
		}
	}

	// Old items never consumed by the map pass are removed, in index order.
	for i := oldHead; i <= oldTail; i++ {
		if !consumed.Contains(i) {
			ops = append(ops, Op{Kind: OpRemove, OldIndex: i, NewIndex: -1})
		}
	}
	return ops
}

// anchorAfter returns the anchor just past new-sequence index i: the item at
// i+1 if one exists, otherwise the end of the sequence.
func anchorAfter(i, n int) Ref {
	if i+1 >= n {
		return End
	}
	return BeforeNew(i + 1)
}
