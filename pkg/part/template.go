package part

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Template is a compiled template: a static node structure plus an ordered
// list of dynamic slots. The engine only requires that the description be
// stable for identity comparisons - the same compiled template with the
// same slot count always produces the same part layout.
type Template interface {
	// Fingerprint is a stable 64-bit identity for the compiled structure.
	// Two templates with equal fingerprints produce identical part layouts.
	Fingerprint() uint64

	// SlotCount is the number of dynamic slots.
	SlotCount() int

	// Mount instantiates the static structure against a host, returning
	// the root nodes and one Part per slot, in slot order.
	Mount(h Host) (*Instance, error)

	// Hydrate adopts a pre-built tree by walking it in document order,
	// returning the adopted roots and parts. Fails with a HydrationError
	// on any type or name mismatch.
	Hydrate(w Walker, h Host) (*Instance, error)
}

// Instance is one materialization of a template: its top-level nodes and
// the parts its slots attach to, in slot order.
type Instance struct {
	Roots []Node
	Parts []Part
}

// Result pairs a template with the values for its slots. It is the
// renderable value produced by one render pass of a templated view.
type Result struct {
	Template Template
	Values   []any
}

// instrOp is the template instruction opcode.
type instrOp uint8

const (
	iOpen instrOp = iota + 1
	iClose
	iText
	iStaticAttr
	iAttrSlot
	iPropSlot
	iEventSlot
	iChildSlot
	iTextSlot
	iElementSlot
)

type instr struct {
	op   instrOp
	a, b string
}

// StaticTemplate is a Template assembled programmatically from a builder.
// The string-template compiler is an external collaborator; it targets this
// same instruction stream.
type StaticTemplate struct {
	instrs      []instr
	slots       int
	fingerprint uint64
}

// Builder accumulates template instructions. All methods append; slot
// methods define one dynamic part each, in call order.
type Builder struct {
	instrs []instr
	depth  int
}

// OpenElement starts an element with the given tag.
func (b *Builder) OpenElement(tag string) *Builder {
	b.instrs = append(b.instrs, instr{op: iOpen, a: tag})
	b.depth++
	return b
}

// CloseElement closes the most recently opened element.
func (b *Builder) CloseElement() *Builder {
	b.instrs = append(b.instrs, instr{op: iClose})
	b.depth--
	return b
}

// Text appends a static text node.
func (b *Builder) Text(s string) *Builder {
	b.instrs = append(b.instrs, instr{op: iText, a: s})
	return b
}

// Attr sets a static attribute on the open element.
func (b *Builder) Attr(name, value string) *Builder {
	b.instrs = append(b.instrs, instr{op: iStaticAttr, a: name, b: value})
	return b
}

// AttrSlot declares a dynamic attribute slot on the open element.
func (b *Builder) AttrSlot(name string) *Builder {
	b.instrs = append(b.instrs, instr{op: iAttrSlot, a: name})
	return b
}

// PropSlot declares a dynamic property slot on the open element.
func (b *Builder) PropSlot(name string) *Builder {
	b.instrs = append(b.instrs, instr{op: iPropSlot, a: name})
	return b
}

// EventSlot declares a dynamic event-listener slot on the open element.
func (b *Builder) EventSlot(name string) *Builder {
	b.instrs = append(b.instrs, instr{op: iEventSlot, a: name})
	return b
}

// ChildSlot declares a dynamic child-range slot at the current position.
func (b *Builder) ChildSlot() *Builder {
	b.instrs = append(b.instrs, instr{op: iChildSlot})
	return b
}

// TextSlot declares a dynamic text-run slot at the current position.
func (b *Builder) TextSlot() *Builder {
	b.instrs = append(b.instrs, instr{op: iTextSlot})
	return b
}

// ElementSlot declares a slot bound to the open element itself.
func (b *Builder) ElementSlot() *Builder {
	b.instrs = append(b.instrs, instr{op: iElementSlot})
	return b
}

// NewTemplate compiles a static template from a builder function. Panics if
// elements are left unbalanced; templates are built once at startup and an
// unbalanced build is a programming error.
func NewTemplate(build func(b *Builder)) *StaticTemplate {
	b := &Builder{}
	build(b)
	if b.depth != 0 {
		panic(fmt.Sprintf("part: unbalanced template, %d unclosed element(s)", b.depth))
	}

	t := &StaticTemplate{instrs: b.instrs}
	h := xxhash.New()
	var buf [2]byte
	for _, in := range b.instrs {
		buf[0] = byte(in.op)
		buf[1] = 0
		h.Write(buf[:])
		h.WriteString(in.a)
		h.Write(buf[1:])
		h.WriteString(in.b)
		h.Write(buf[1:])
		if isSlot(in.op) {
			t.slots++
		}
	}
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(t.slots))
	h.Write(n[:])
	t.fingerprint = h.Sum64()
	return t
}

func isSlot(op instrOp) bool {
	switch op {
	case iAttrSlot, iPropSlot, iEventSlot, iChildSlot, iTextSlot, iElementSlot:
		return true
	}
	return false
}

// Fingerprint implements Template.
func (t *StaticTemplate) Fingerprint() uint64 { return t.fingerprint }

// SlotCount implements Template.
func (t *StaticTemplate) SlotCount() int { return t.slots }

// Bind pairs this template with slot values, producing a renderable Result.
// The value count must equal the slot count.
func (t *StaticTemplate) Bind(values ...any) Result {
	if len(values) != t.slots {
		panic(fmt.Sprintf("part: template has %d slot(s), got %d value(s)", t.slots, len(values)))
	}
	return Result{Template: t, Values: values}
}

// Mount implements Template by instantiating fresh nodes through the host.
func (t *StaticTemplate) Mount(h Host) (*Instance, error) {
	inst := &Instance{}
	var stack []Node

	current := func() Node {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	attach := func(n Node) {
		if parent := current(); parent != nil {
			h.InsertBefore(parent, n, nil)
		} else {
			inst.Roots = append(inst.Roots, n)
		}
	}

	for _, in := range t.instrs {
		switch in.op {
		case iOpen:
			el := h.CreateElement(in.a)
			attach(el)
			stack = append(stack, el)
		case iClose:
			stack = stack[:len(stack)-1]
		case iText:
			attach(h.CreateText(in.a))
		case iStaticAttr:
			h.SetAttribute(current(), in.a, in.b)
		case iAttrSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindAttribute, Node: current(), Name: in.a})
		case iPropSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindProperty, Node: current(), Name: in.a})
		case iEventSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindEvent, Node: current(), Name: in.a})
		case iChildSlot:
			marker := h.CreateMarker()
			attach(marker)
			inst.Parts = append(inst.Parts, Part{Kind: KindChild, Node: current(), Anchor: marker})
		case iTextSlot:
			text := h.CreateText("")
			attach(text)
			inst.Parts = append(inst.Parts, Part{Kind: KindText, Node: text})
		case iElementSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindElement, Node: current()})
		}
	}
	return inst, nil
}

// Hydrate implements Template by adopting nodes popped from the walker in
// document order instead of creating them.
func (t *StaticTemplate) Hydrate(w Walker, h Host) (*Instance, error) {
	inst := &Instance{}
	var stack []Node

	current := func() Node {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	adopt := func(n Node) {
		if current() == nil {
			inst.Roots = append(inst.Roots, n)
		}
	}

	for _, in := range t.instrs {
		switch in.op {
		case iOpen:
			el, err := w.NextElement(in.a)
			if err != nil {
				return nil, err
			}
			adopt(el)
			stack = append(stack, el)
		case iClose:
			stack = stack[:len(stack)-1]
		case iText:
			if _, err := w.NextText(); err != nil {
				return nil, err
			}
		case iStaticAttr:
			// Static attributes were serialized with the tree.
		case iAttrSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindAttribute, Node: current(), Name: in.a})
		case iPropSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindProperty, Node: current(), Name: in.a})
		case iEventSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindEvent, Node: current(), Name: in.a})
		case iChildSlot:
			marker, err := w.NextMarker()
			if err != nil {
				return nil, err
			}
			adopt(marker)
			inst.Parts = append(inst.Parts, Part{Kind: KindChild, Node: current(), Anchor: marker})
		case iTextSlot:
			text, err := w.NextText()
			if err != nil {
				return nil, err
			}
			adopt(text)
			inst.Parts = append(inst.Parts, Part{Kind: KindText, Node: text})
		case iElementSlot:
			inst.Parts = append(inst.Parts, Part{Kind: KindElement, Node: current()})
		}
	}
	return inst, nil
}
