package memdom

import (
	"fmt"

	"github.com/loom-ui/loom/pkg/part"
)

// Walker pops a container's descendant nodes in document order, failing with
// a HydrationError on any type or name mismatch. It implements part.Walker
// for adopting a pre-built memdom tree.
type Walker struct {
	nodes []*Node
	pos   int
}

// NewWalker creates a walker over the descendants of container, preorder.
func NewWalker(container *Node) *Walker {
	w := &Walker{}
	var flatten func(n *Node)
	flatten = func(n *Node) {
		for _, c := range n.children {
			w.nodes = append(w.nodes, c)
			flatten(c)
		}
	}
	flatten(container)
	return w
}

func (w *Walker) pop() *Node {
	if w.pos >= len(w.nodes) {
		return nil
	}
	n := w.nodes[w.pos]
	w.pos++
	return n
}

func describe(n *Node) string {
	switch n.kind {
	case KindElement:
		return fmt.Sprintf("element <%s>", n.tag)
	case KindText:
		return "text"
	default:
		return "marker"
	}
}

// NextElement implements part.Walker.
func (w *Walker) NextElement(tag string) (part.Node, error) {
	want := fmt.Sprintf("element <%s>", tag)
	n := w.pop()
	if n == nil {
		return nil, part.NewHydrationExhausted(want)
	}
	if n.kind != KindElement || n.tag != tag {
		return nil, part.NewHydrationError(want, describe(n))
	}
	return n, nil
}

// NextText implements part.Walker.
func (w *Walker) NextText() (part.Node, error) {
	n := w.pop()
	if n == nil {
		return nil, part.NewHydrationExhausted("text")
	}
	if n.kind != KindText {
		return nil, part.NewHydrationError("text", describe(n))
	}
	return n, nil
}

// NextMarker implements part.Walker.
func (w *Walker) NextMarker() (part.Node, error) {
	n := w.pop()
	if n == nil {
		return nil, part.NewHydrationExhausted("marker")
	}
	if n.kind != KindMarker {
		return nil, part.NewHydrationError("marker", describe(n))
	}
	return n, nil
}
