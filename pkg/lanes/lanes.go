// Package lanes defines the priority bitmask used by the update engine.
//
// A lane is a named urgency class of pending work. Lane sets are plain
// bitmask values: they combine with bitwise OR, intersect with bitwise AND,
// and never carry identity or lifecycle of their own. Priority is derived
// from bit position - the numerically smallest set bit is the most urgent -
// so independent producers (input handlers, signal writes, transitions) can
// request work in the same tick without comparing opaque magnitudes.
package lanes

import "strings"

// Lanes is a set of priority lanes encoded as a bitmask.
type Lanes uint8

const (
	// SyncLane is the immediate priority class. Work on this lane is
	// flushed before anything else.
	SyncLane Lanes = 1 << iota

	// InputLane is the user-blocking priority class (discrete input,
	// focus, selection).
	InputLane

	// DefaultLane is the user-visible priority class for ordinary
	// updates.
	DefaultLane

	// IdleLane is the background priority class. Flushed only when no
	// higher lane is pending.
	IdleLane

	// ViewTransitionLane flags an update as participating in a view
	// transition. It modifies how a flush is presented, not when it runs,
	// and is ignored by priority selection.
	ViewTransitionLane

	// NoLanes is the empty lane set.
	NoLanes Lanes = 0
)

// priorityMask covers the lanes that participate in priority selection.
const priorityMask = SyncLane | InputLane | DefaultLane | IdleLane

// Union returns the combination of a and b.
func Union(a, b Lanes) Lanes {
	return a | b
}

// Intersect returns the lanes present in both a and b.
func Intersect(a, b Lanes) Lanes {
	return a & b
}

// Contains reports whether every lane in b is present in a.
func Contains(a, b Lanes) bool {
	return a&b == b
}

// IsSubset reports whether sub is contained in super.
func IsSubset(sub, super Lanes) bool {
	return super&sub == sub
}

// HighestPriority returns the single most urgent lane in the set, ignoring
// flag lanes. Returns NoLanes for an empty set.
func HighestPriority(l Lanes) Lanes {
	p := l & priorityMask
	return p & -p
}

// HasViewTransition reports whether the set carries the view-transition flag.
func HasViewTransition(l Lanes) bool {
	return l&ViewTransitionLane != 0
}

// laneName returns the name of a single lane bit.
func laneName(l Lanes) string {
	switch l {
	case SyncLane:
		return "Sync"
	case InputLane:
		return "Input"
	case DefaultLane:
		return "Default"
	case IdleLane:
		return "Idle"
	case ViewTransitionLane:
		return "ViewTransition"
	default:
		return "Unknown"
	}
}

// String returns a "|"-joined list of lane names, or "None" for NoLanes.
func (l Lanes) String() string {
	if l == NoLanes {
		return "None"
	}
	var names []string
	for bit := Lanes(1); bit != 0 && bit <= l; bit <<= 1 {
		if l&bit != 0 {
			names = append(names, laneName(bit))
		}
	}
	return strings.Join(names, "|")
}
