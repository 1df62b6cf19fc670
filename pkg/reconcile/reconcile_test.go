package reconcile

import (
	"testing"
)

// countKinds tallies ops by kind.
func countKinds(ops []Op) map[OpKind]int {
	counts := make(map[OpKind]int)
	for _, op := range ops {
		counts[op.Kind]++
	}
	return counts
}

// apply replays ops over the old sequence to verify the produced order.
func apply[K comparable](old, new []K, ops []Op) []K {
	// Track each live item as a cell so moves keep identity.
	type cell struct {
		key     K
		removed bool
	}
	seq := make([]*cell, len(old))
	oldCells := make([]*cell, len(old))
	for i, k := range old {
		c := &cell{key: k}
		seq[i] = c
		oldCells[i] = c
	}
	newCells := make([]*cell, len(new))

	indexOf := func(c *cell) int {
		for i, s := range seq {
			if s == c {
				return i
			}
		}
		return -1
	}
	resolve := func(r Ref) int {
		switch r.Kind {
		case RefEnd:
			return len(seq)
		case RefNew:
			return indexOf(newCells[r.Index])
		case RefOld:
			return indexOf(oldCells[r.Index])
		}
		return -1
	}
	insertAt := func(c *cell, at int) {
		seq = append(seq, nil)
		copy(seq[at+1:], seq[at:])
		seq[at] = c
	}

	for _, op := range ops {
		switch op.Kind {
		case OpUpdate:
			c := oldCells[op.OldIndex]
			c.key = new[op.NewIndex]
			newCells[op.NewIndex] = c
		case OpMove:
			c := oldCells[op.OldIndex]
			at := indexOf(c)
			seq = append(seq[:at], seq[at+1:]...)
			insertAt(c, resolve(op.Before))
			c.key = new[op.NewIndex]
			newCells[op.NewIndex] = c
		case OpInsert:
			c := &cell{key: new[op.NewIndex]}
			insertAt(c, resolve(op.Before))
			newCells[op.NewIndex] = c
		case OpRemove:
			c := oldCells[op.OldIndex]
			at := indexOf(c)
			seq = append(seq[:at], seq[at+1:]...)
			c.removed = true
		}
	}

	result := make([]K, len(seq))
	for i, c := range seq {
		result[i] = c.key
	}
	return result
}

func assertOrder[K comparable](t *testing.T, old, new []K, ops []Op) {
	t.Helper()
	got := apply(old, new, ops)
	if len(got) != len(new) {
		t.Fatalf("applied length = %d, want %d (ops %v)", len(got), len(new), ops)
	}
	for i := range new {
		if got[i] != new[i] {
			t.Fatalf("applied order %v, want %v (ops %v)", got, new, ops)
		}
	}
}

func TestDiffEmptyToTwo(t *testing.T) {
	old := []string{}
	next := []string{"k1", "k2"}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpInsert] != 2 || counts[OpMove] != 0 || counts[OpRemove] != 0 {
		t.Fatalf("counts = %v, want 2 inserts only", counts)
	}
	if ops[0].NewIndex != 0 || ops[1].NewIndex != 1 {
		t.Errorf("insert order = [%d, %d], want [0, 1]", ops[0].NewIndex, ops[1].NewIndex)
	}
	assertOrder(t, old, next, ops)
}

func TestDiffToEmpty(t *testing.T) {
	old := []string{"a", "b", "c"}
	ops := Diff(old, nil)

	counts := countKinds(ops)
	if counts[OpRemove] != 3 || len(ops) != 3 {
		t.Fatalf("counts = %v, want 3 removes only", counts)
	}
	// Removals in index order.
	for i, op := range ops {
		if op.OldIndex != i {
			t.Errorf("ops[%d].OldIndex = %d, want %d", i, op.OldIndex, i)
		}
	}
}

func TestDiffIdentical(t *testing.T) {
	old := []string{"a", "b", "c"}
	ops := Diff(old, old)

	counts := countKinds(ops)
	if counts[OpUpdate] != 3 || len(ops) != 3 {
		t.Fatalf("counts = %v, want 3 updates only", counts)
	}
	assertOrder(t, old, old, ops)
}

func TestDiffRotation(t *testing.T) {
	old := []string{"a", "b", "c"}
	next := []string{"c", "a", "b"}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpMove] != 1 {
		t.Fatalf("moves = %d, want exactly 1 for a rotation (ops %v)", counts[OpMove], ops)
	}
	if counts[OpInsert] != 0 || counts[OpRemove] != 0 {
		t.Fatalf("counts = %v, rotation must not insert or remove", counts)
	}
	for _, op := range ops {
		if op.Kind == OpMove && op.OldIndex != 2 {
			t.Errorf("moved OldIndex = %d, want 2 (the rotated item)", op.OldIndex)
		}
	}
	assertOrder(t, old, next, ops)
}

func TestDiffMixed(t *testing.T) {
	old := []string{"a", "b"}
	next := []string{"b", "c"}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpMove] != 1 || counts[OpInsert] != 1 || counts[OpRemove] != 1 {
		t.Fatalf("counts = %v, want one of each", counts)
	}
	assertOrder(t, old, next, ops)
}

func TestDiffReverse(t *testing.T) {
	old := []int{1, 2, 3, 4, 5}
	next := []int{5, 4, 3, 2, 1}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpInsert] != 0 || counts[OpRemove] != 0 {
		t.Fatalf("counts = %v, reversal must not insert or remove", counts)
	}
	assertOrder(t, old, next, ops)
}

func TestDiffSwapEnds(t *testing.T) {
	old := []string{"a", "b", "c", "d"}
	next := []string{"d", "b", "c", "a"}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpInsert] != 0 || counts[OpRemove] != 0 {
		t.Fatalf("counts = %v, swap must not insert or remove", counts)
	}
	assertOrder(t, old, next, ops)
}

func TestDiffInteriorShuffle(t *testing.T) {
	old := []string{"a", "b", "c", "d", "e"}
	next := []string{"a", "d", "b", "e", "c"}
	ops := Diff(old, next)
	assertOrder(t, old, next, ops)
}

func TestDiffDisjoint(t *testing.T) {
	old := []string{"a", "b"}
	next := []string{"x", "y"}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpInsert] != 2 || counts[OpRemove] != 2 {
		t.Fatalf("counts = %v, want 2 inserts and 2 removes", counts)
	}
	assertOrder(t, old, next, ops)
}

// Positional index keys degenerate to per-index updates: no moves.
func TestDiffPositionalKeys(t *testing.T) {
	old := []int{0, 1, 2}
	next := []int{0, 1, 2}
	ops := Diff(old, next)

	counts := countKinds(ops)
	if counts[OpUpdate] != 3 || counts[OpMove] != 0 {
		t.Fatalf("counts = %v, want updates only for positional keys", counts)
	}
}

// Duplicate old keys: the fallback map keeps the last occurrence; the
// earlier duplicate is removed.
func TestDiffDuplicateOldKeys(t *testing.T) {
	old := []string{"x", "a", "x", "b"}
	next := []string{"b", "x", "q"}
	ops := Diff(old, next)
	assertOrder(t, old, next, ops)

	// The surviving "x" must be old index 2 (last occurrence).
	for _, op := range ops {
		if op.Kind == OpMove && op.NewIndex == 1 && op.OldIndex != 2 {
			t.Errorf("duplicate key matched OldIndex %d, want last occurrence 2", op.OldIndex)
		}
	}
}

func TestDiffLargeRandomish(t *testing.T) {
	old := []int{10, 20, 30, 40, 50, 60, 70, 80}
	next := []int{80, 25, 30, 10, 60, 45, 50}
	ops := Diff(old, next)
	assertOrder(t, old, next, ops)
}

func TestOpKindString(t *testing.T) {
	tests := []struct {
		k    OpKind
		want string
	}{
		{OpInsert, "Insert"},
		{OpMove, "Move"},
		{OpRemove, "Remove"},
		{OpUpdate, "Update"},
		{OpKind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
