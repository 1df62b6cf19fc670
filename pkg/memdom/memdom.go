// Package memdom is an in-memory implementation of the host boundary: a
// document tree with stable node ids, patch recording for wire streaming,
// HTML serialization, and a document-order hydration walker.
//
// It is the reference host for live sessions and the test double for
// everything that drives a tree through the part.Host interface.
package memdom

import (
	"github.com/loom-ui/loom/pkg/part"
)

// NodeKind is the node type discriminator.
type NodeKind uint8

const (
	KindElement NodeKind = iota
	KindText
	KindMarker
)

// String returns the string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindMarker:
		return "Marker"
	default:
		return "Unknown"
	}
}

// Node is one tree node. Nodes are created through a Document and carry a
// document-unique id used for patch targeting and event dispatch.
type Node struct {
	id   uint64
	kind NodeKind
	tag  string
	text string

	attrs     map[string]string
	attrOrder []string
	props     map[string]any
	listeners map[string]part.Listener

	parent   *Node
	children []*Node
	isRoot   bool
}

// ID returns the node's document-unique id.
func (n *Node) ID() uint64 { return n.id }

// Kind returns the node type.
func (n *Node) Kind() NodeKind { return n.kind }

// Tag returns the element tag, or "" for non-elements.
func (n *Node) Tag() string { return n.tag }

// Text returns the text content of a text node.
func (n *Node) Text() string { return n.text }

// Attr returns the named attribute and whether it is set.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Prop returns the named property and whether it is set.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

// Parent returns the parent node, or nil if detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in document order.
func (n *Node) Children() []*Node { return n.children }

// Document is an in-memory tree implementing part.Host. All mutations made
// through the host interface are recorded as patches until drained.
type Document struct {
	body    *Node
	nextID  uint64
	byID    map[uint64]*Node
	patches []Patch
}

// NewDocument creates an empty document with a body element.
func NewDocument() *Document {
	d := &Document{byID: make(map[uint64]*Node)}
	d.body = d.newNode(KindElement)
	d.body.tag = "body"
	d.body.isRoot = true
	return d
}

// Body returns the document's root container element.
func (d *Document) Body() *Node { return d.body }

// NodeByID returns the node with the given id, or nil.
func (d *Document) NodeByID(id uint64) *Node { return d.byID[id] }

func (d *Document) newNode(kind NodeKind) *Node {
	d.nextID++
	n := &Node{id: d.nextID, kind: kind}
	d.byID[n.id] = n
	return n
}

// asNode unwraps a part.Node handle. Foreign handles are a programming
// error: a document only ever drives nodes it created.
func asNode(pn part.Node) *Node {
	if pn == nil {
		return nil
	}
	return pn.(*Node)
}

// =============================================================================
// part.Host
// =============================================================================

// CreateElement implements part.Host.
func (d *Document) CreateElement(tag string) part.Node {
	n := d.newNode(KindElement)
	n.tag = tag
	return n
}

// CreateText implements part.Host.
func (d *Document) CreateText(text string) part.Node {
	n := d.newNode(KindText)
	n.text = text
	return n
}

// CreateMarker implements part.Host.
func (d *Document) CreateMarker() part.Node {
	return d.newNode(KindMarker)
}

// SetText implements part.Host.
func (d *Document) SetText(pn part.Node, text string) {
	n := asNode(pn)
	if n.text == text {
		return
	}
	n.text = text
	if n.attached() {
		d.record(Patch{Op: PatchSetText, Node: n.id, Value: text})
	}
}

// InsertBefore implements part.Host. Inserting an already-attached node
// relocates it, preserving its subtree.
func (d *Document) InsertBefore(parent, pn, ref part.Node) {
	p := asNode(parent)
	n := asNode(pn)
	r := asNode(ref)

	wasAttached := n.attached()
	if n.parent != nil {
		n.parent.removeChild(n)
	}

	idx := len(p.children)
	if r != nil {
		for i, c := range p.children {
			if c == r {
				idx = i
				break
			}
		}
	}
	p.children = append(p.children, nil)
	copy(p.children[idx+1:], p.children[idx:])
	p.children[idx] = n
	n.parent = p

	if !p.attached() {
		if wasAttached {
			d.record(Patch{Op: PatchRemoveNode, Node: n.id})
		}
		return
	}
	var refID uint64
	if r != nil {
		refID = r.id
	}
	if wasAttached {
		d.record(Patch{Op: PatchMoveNode, Node: n.id, Parent: p.id, Ref: refID})
	} else {
		d.record(Patch{Op: PatchInsertNode, Node: n.id, Parent: p.id, Ref: refID, HTML: renderNode(n)})
	}
}

// Remove implements part.Host.
func (d *Document) Remove(pn part.Node) {
	n := asNode(pn)
	wasAttached := n.attached()
	if n.parent != nil {
		n.parent.removeChild(n)
		n.parent = nil
	}
	if wasAttached {
		d.record(Patch{Op: PatchRemoveNode, Node: n.id})
	}
}

// ParentOf implements part.Host.
func (d *Document) ParentOf(pn part.Node) part.Node {
	n := asNode(pn)
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// SetAttribute implements part.Host.
func (d *Document) SetAttribute(pn part.Node, name, value string) {
	n := asNode(pn)
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	if old, ok := n.attrs[name]; ok && old == value {
		return
	} else if !ok {
		n.attrOrder = append(n.attrOrder, name)
	}
	n.attrs[name] = value
	if n.attached() {
		d.record(Patch{Op: PatchSetAttr, Node: n.id, Name: name, Value: value})
	}
}

// RemoveAttribute implements part.Host.
func (d *Document) RemoveAttribute(pn part.Node, name string) {
	n := asNode(pn)
	if _, ok := n.attrs[name]; !ok {
		return
	}
	delete(n.attrs, name)
	for i, a := range n.attrOrder {
		if a == name {
			n.attrOrder = append(n.attrOrder[:i], n.attrOrder[i+1:]...)
			break
		}
	}
	if n.attached() {
		d.record(Patch{Op: PatchRemoveAttr, Node: n.id, Name: name})
	}
}

// SetProperty implements part.Host.
func (d *Document) SetProperty(pn part.Node, name string, value any) {
	n := asNode(pn)
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = value
	if n.attached() {
		d.record(Patch{Op: PatchSetProp, Node: n.id, Name: name, Value: stringifyProp(value)})
	}
}

// AddListener implements part.Host. A name is bound to at most one listener;
// rebinding replaces.
func (d *Document) AddListener(pn part.Node, event string, fn part.Listener) {
	n := asNode(pn)
	if n.listeners == nil {
		n.listeners = make(map[string]part.Listener)
	}
	_, had := n.listeners[event]
	n.listeners[event] = fn
	if !had && n.attached() {
		d.record(Patch{Op: PatchAddListener, Node: n.id, Name: event})
	}
}

// RemoveListener implements part.Host.
func (d *Document) RemoveListener(pn part.Node, event string) {
	n := asNode(pn)
	if _, ok := n.listeners[event]; !ok {
		return
	}
	delete(n.listeners, event)
	if n.attached() {
		d.record(Patch{Op: PatchRemoveListener, Node: n.id, Name: event})
	}
}

// =============================================================================
// Events
// =============================================================================

// DispatchEvent invokes the listener registered for event on the node with
// the given id. Returns false if no such node or listener exists.
func (d *Document) DispatchEvent(nodeID uint64, event string, payload any) bool {
	n := d.byID[nodeID]
	if n == nil {
		return false
	}
	fn, ok := n.listeners[event]
	if !ok {
		return false
	}
	fn(payload)
	return true
}

// =============================================================================
// Internals
// =============================================================================

// attached reports whether the node is reachable from the document body.
func (n *Node) attached() bool {
	for c := n; c != nil; c = c.parent {
		if c.parent == nil {
			return c.isRoot
		}
	}
	return false
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (d *Document) record(p Patch) {
	d.patches = append(d.patches, p)
}
