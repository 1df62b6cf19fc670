// Package part describes where in an output tree a value attaches, and the
// host boundary the engine drives that tree through.
//
// The engine never assumes a concrete tree API. Everything it needs is
// expressed through three small surfaces: the Host adapter (create, insert
// before a reference, remove, set named attribute/property), the Walker (an
// ordered node source used when adopting a pre-built tree), and the Template
// (a compiled description of which parts exist and in what order).
package part

// Kind is the part type discriminator.
type Kind uint8

const (
	KindAttribute Kind = iota // Named attribute of an element
	KindChild                 // Child-node range anchored before a marker
	KindText                  // Text run inside an existing text node
	KindElement               // The element itself (ref-style access)
	KindEvent                 // Named event listener of an element
	KindProperty              // Named property of an element
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindAttribute:
		return "Attribute"
	case KindChild:
		return "Child"
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	case KindEvent:
		return "Event"
	case KindProperty:
		return "Property"
	default:
		return "Unknown"
	}
}

// Node is an opaque host tree node handle. Only the Host that created a
// node may interpret it.
type Node any

// Part is an immutable locator describing where a value attaches. Identity
// is structural: same node, same kind, same name.
type Part struct {
	Kind Kind

	// Node is the owning node: the element for attribute, event, property
	// and element parts; the text node for text parts; the parent element
	// for child parts.
	Node Node

	// Anchor is the reference node a child part's content is inserted
	// before. Nil for every other kind.
	Anchor Node

	// Name is the attribute, property, or event name. Empty for other
	// kinds.
	Name string
}

// Equal reports structural identity of two parts.
func (p Part) Equal(o Part) bool {
	return p.Kind == o.Kind && p.Node == o.Node && p.Anchor == o.Anchor && p.Name == o.Name
}
