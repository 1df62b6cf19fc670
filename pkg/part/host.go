package part

// Listener is a host event callback. The payload is host-defined.
type Listener func(event any)

// Host is the adapter the engine drives the output tree through. The engine
// assumes nothing about the tree beyond these primitives.
type Host interface {
	// CreateElement creates a detached element node with the given tag.
	CreateElement(tag string) Node

	// CreateText creates a detached text node.
	CreateText(text string) Node

	// CreateMarker creates an invisible anchor node (a comment node in a
	// DOM host). Markers delimit child-part ranges.
	CreateMarker() Node

	// SetText replaces the text content of a text node.
	SetText(n Node, text string)

	// InsertBefore inserts n into parent before ref. A nil ref appends.
	InsertBefore(parent, n, ref Node)

	// Remove detaches n from its parent.
	Remove(n Node)

	// ParentOf returns the parent of n, or nil if detached.
	ParentOf(n Node) Node

	// SetAttribute sets a named attribute on an element.
	SetAttribute(n Node, name, value string)

	// RemoveAttribute removes a named attribute from an element.
	RemoveAttribute(n Node, name string)

	// SetProperty sets a named property on an element. Properties carry
	// typed values and never serialize to attributes.
	SetProperty(n Node, name string, value any)

	// AddListener attaches a named event listener, replacing any previous
	// listener registered under the same name.
	AddListener(n Node, event string, fn Listener)

	// RemoveListener detaches the named event listener.
	RemoveListener(n Node, event string)
}

// Walker is an ordered node source used to adopt a pre-built tree. Each
// call pops the next node in document order; a type or name mismatch is
// reported as an error and fails the hydration attempt it belongs to.
type Walker interface {
	// NextElement pops the next node, which must be an element with the
	// given tag.
	NextElement(tag string) (Node, error)

	// NextText pops the next node, which must be a text node.
	NextText() (Node, error)

	// NextMarker pops the next node, which must be a marker.
	NextMarker() (Node, error)
}
