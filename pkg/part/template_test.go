package part_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ui/loom/pkg/memdom"
	"github.com/loom-ui/loom/pkg/part"
)

func rowTemplate() *part.StaticTemplate {
	return part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("li").
			Attr("class", "row").
			AttrSlot("data-state").
			TextSlot().
			ChildSlot().
			EventSlot("click").
			CloseElement()
	})
}

func TestFingerprintStableAcrossBuilds(t *testing.T) {
	a := rowTemplate()
	b := rowTemplate()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, 4, a.SlotCount())
}

func TestFingerprintDistinguishesStructure(t *testing.T) {
	a := rowTemplate()
	b := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("li").
			Attr("class", "row").
			AttrSlot("data-state").
			TextSlot().
			ChildSlot().
			EventSlot("change"). // Different event name.
			CloseElement()
	})
	c := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("div").CloseElement()
	})
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestMountProducesPartsInSlotOrder(t *testing.T) {
	d := memdom.NewDocument()
	inst, err := rowTemplate().Mount(d)
	require.NoError(t, err)

	require.Len(t, inst.Roots, 1)
	require.Len(t, inst.Parts, 4)

	li := inst.Roots[0].(*memdom.Node)
	assert.Equal(t, "li", li.Tag())
	v, ok := li.Attr("class")
	require.True(t, ok)
	assert.Equal(t, "row", v)

	assert.Equal(t, part.KindAttribute, inst.Parts[0].Kind)
	assert.Equal(t, "data-state", inst.Parts[0].Name)
	assert.Same(t, li, inst.Parts[0].Node.(*memdom.Node))

	assert.Equal(t, part.KindText, inst.Parts[1].Kind)
	assert.Equal(t, memdom.KindText, inst.Parts[1].Node.(*memdom.Node).Kind())

	assert.Equal(t, part.KindChild, inst.Parts[2].Kind)
	assert.Same(t, li, inst.Parts[2].Node.(*memdom.Node))
	assert.Equal(t, memdom.KindMarker, inst.Parts[2].Anchor.(*memdom.Node).Kind())

	assert.Equal(t, part.KindEvent, inst.Parts[3].Kind)
	assert.Equal(t, "click", inst.Parts[3].Name)
}

func TestMountMultipleRoots(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("dt").TextSlot().CloseElement()
		b.OpenElement("dd").TextSlot().CloseElement()
	})
	d := memdom.NewDocument()
	inst, err := tpl.Mount(d)
	require.NoError(t, err)

	require.Len(t, inst.Roots, 2)
	assert.Equal(t, "dt", inst.Roots[0].(*memdom.Node).Tag())
	assert.Equal(t, "dd", inst.Roots[1].(*memdom.Node).Tag())
	assert.Len(t, inst.Parts, 2)
}

func TestBindChecksValueCount(t *testing.T) {
	tpl := rowTemplate()
	res := tpl.Bind("on", "label", nil, nil)
	assert.Equal(t, tpl, res.Template)
	assert.Len(t, res.Values, 4)

	assert.Panics(t, func() { tpl.Bind("too", "few") })
}

func TestUnbalancedTemplatePanics(t *testing.T) {
	assert.Panics(t, func() {
		part.NewTemplate(func(b *part.Builder) {
			b.OpenElement("div")
		})
	})
}

func TestHydrateAdoptsMountedTree(t *testing.T) {
	tpl := rowTemplate()
	d := memdom.NewDocument()

	// Serialize by mounting into the body, then adopt the same tree.
	mounted, err := tpl.Mount(d)
	require.NoError(t, err)
	for _, r := range mounted.Roots {
		d.InsertBefore(d.Body(), r, nil)
	}

	adopted, err := tpl.Hydrate(memdom.NewWalker(d.Body()), d)
	require.NoError(t, err)

	require.Len(t, adopted.Roots, 1)
	assert.Same(t, mounted.Roots[0].(*memdom.Node), adopted.Roots[0].(*memdom.Node))
	require.Len(t, adopted.Parts, 4)
	for i := range adopted.Parts {
		assert.True(t, adopted.Parts[i].Equal(mounted.Parts[i]), "part %d identity", i)
	}
}

func TestHydrateMismatchFails(t *testing.T) {
	d := memdom.NewDocument()
	d.InsertBefore(d.Body(), d.CreateElement("div"), nil)

	_, err := rowTemplate().Hydrate(memdom.NewWalker(d.Body()), d)
	var he *part.HydrationError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "element <li>", he.Expected)
}

func TestPartEqual(t *testing.T) {
	d := memdom.NewDocument()
	n := d.CreateElement("div")
	m := d.CreateElement("div")

	p := part.Part{Kind: part.KindAttribute, Node: n, Name: "class"}
	assert.True(t, p.Equal(part.Part{Kind: part.KindAttribute, Node: n, Name: "class"}))
	assert.False(t, p.Equal(part.Part{Kind: part.KindAttribute, Node: m, Name: "class"}))
	assert.False(t, p.Equal(part.Part{Kind: part.KindAttribute, Node: n, Name: "id"}))
	assert.False(t, p.Equal(part.Part{Kind: part.KindProperty, Node: n, Name: "class"}))
}
