package binding

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ui/loom/pkg/loom"
	"github.com/loom-ui/loom/pkg/memdom"
	"github.com/loom-ui/loom/pkg/part"
)

func newTestRoot(t *testing.T) (*memdom.Document, *Root) {
	t.Helper()
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	return doc, NewRoot(doc, engine, doc.Body())
}

func patchOps(ps []memdom.Patch) []memdom.PatchOp {
	ops := make([]memdom.PatchOp, len(ps))
	for i, p := range ps {
		ops[i] = p.Op
	}
	return ops
}

func TestRootRendersLeafText(t *testing.T) {
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render("hello"))
	assert.Equal(t, "hello<!---->", doc.HTML())

	// Unchanged value: no-op, no patches.
	doc.TakePatches()
	require.NoError(t, root.Render("hello"))
	assert.Zero(t, doc.PendingPatches())

	require.NoError(t, root.Render(42))
	assert.Equal(t, "42<!---->", doc.HTML())
}

func TestRootRendersTemplateSlots(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("div").
			AttrSlot("class").
			TextSlot().
			CloseElement()
	})
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render(tpl.Bind("card", "first")))
	assert.Equal(t, `<div class="card">first</div><!---->`, doc.HTML())

	// Same structure: slots rebind in place, nothing re-mounts.
	doc.TakePatches()
	require.NoError(t, root.Render(tpl.Bind("card wide", "second")))
	assert.Equal(t, `<div class="card wide">second</div><!---->`, doc.HTML())
	assert.Equal(t, []memdom.PatchOp{memdom.PatchSetAttr, memdom.PatchSetText},
		patchOps(doc.TakePatches()))
}

func TestRootSwitchesTemplateIdentity(t *testing.T) {
	a := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("p").TextSlot().CloseElement()
	})
	bt := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("h1").TextSlot().CloseElement()
	})
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render(a.Bind("body")))
	require.Equal(t, "<p>body</p><!---->", doc.HTML())

	require.NoError(t, root.Render(bt.Bind("title")))
	assert.Equal(t, "<h1>title</h1><!---->", doc.HTML())
}

func TestRootSwitchesContentVariant(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("span").TextSlot().CloseElement()
	})
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render("plain"))
	require.Equal(t, "plain<!---->", doc.HTML())

	// Text to template: old text node leaves with the switch.
	require.NoError(t, root.Render(tpl.Bind("templated")))
	assert.Equal(t, "<span>templated</span><!---->", doc.HTML())

	// Template back to text.
	require.NoError(t, root.Render("plain again"))
	assert.Equal(t, "plain again<!---->", doc.HTML())
}

func TestAttrSlotValueForms(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("input").AttrSlot("disabled").CloseElement()
	})
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render(tpl.Bind(true)))
	assert.Equal(t, "<input disabled><!---->", doc.HTML())

	require.NoError(t, root.Render(tpl.Bind(false)))
	assert.Equal(t, "<input><!---->", doc.HTML())

	require.NoError(t, root.Render(tpl.Bind(7)))
	assert.Equal(t, `<input disabled="7"><!---->`, doc.HTML())

	require.NoError(t, root.Render(tpl.Bind(nil)))
	assert.Equal(t, "<input><!---->", doc.HTML())
}

func TestAttrSlotRejectsFunc(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("div").AttrSlot("class").CloseElement()
	})
	_, root := newTestRoot(t)

	err := root.Render(tpl.Bind(func() {}))
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, part.KindAttribute, te.Part.Kind)
}

func TestEventSlotDispatch(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("button").ElementSlot().EventSlot("click").CloseElement()
	})
	doc, root := newTestRoot(t)

	var btn part.Node
	clicks := 0
	require.NoError(t, root.Render(tpl.Bind(
		func(n part.Node) { btn = n },
		func() { clicks++ },
	)))

	require.NotNil(t, btn)
	id := btn.(*memdom.Node).ID()
	require.True(t, doc.DispatchEvent(id, "click", nil))
	assert.Equal(t, 1, clicks)

	// Nil listener detaches.
	require.NoError(t, root.Render(tpl.Bind(func(part.Node) {}, nil)))
	assert.False(t, doc.DispatchEvent(id, "click", nil))
}

func TestElementRefRollback(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("div").ElementSlot().CloseElement()
	})
	doc, root := newTestRoot(t)

	var refs []part.Node
	require.NoError(t, root.Render(tpl.Bind(func(n part.Node) { refs = append(refs, n) })))
	require.Len(t, refs, 1)
	require.NotNil(t, refs[0])

	root.Dispose()
	require.Len(t, refs, 2)
	assert.Nil(t, refs[1], "rollback must clear the ref")
	assert.Empty(t, doc.HTML())
}

func TestHydrateAfterConnectIsProtocolError(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	ctx := &Context{Host: doc, Engine: engine}

	anchor := doc.CreateMarker()
	doc.InsertBefore(doc.Body(), anchor, nil)
	p := part.Part{Kind: part.KindChild, Node: doc.Body(), Anchor: anchor}

	b, err := New(p, "content")
	require.NoError(t, err)
	require.NoError(t, b.Connect(ctx))

	err = b.Hydrate(memdom.NewWalker(doc.Body()), ctx)
	var pe *loom.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "E004", pe.Code)
}

func TestRollbackReconnectRoundTrip(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	ctx := &Context{Host: doc, Engine: engine}

	anchor := doc.CreateMarker()
	doc.InsertBefore(doc.Body(), anchor, nil)
	p := part.Part{Kind: part.KindChild, Node: doc.Body(), Anchor: anchor}

	b, err := New(p, "first")
	require.NoError(t, err)
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)
	require.Equal(t, "first<!---->", doc.HTML())
	require.Equal(t, "first", b.Value())

	b.Rollback(ctx)
	b.Disconnect(ctx)
	assert.Equal(t, "<!---->", doc.HTML())
	assert.Nil(t, b.Value())

	// A rolled-back binding reconnects with a fresh value.
	require.NoError(t, b.Bind("second"))
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)
	assert.Equal(t, "second<!---->", doc.HTML())
}

func TestConnectIsReplaceable(t *testing.T) {
	tplA := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("i").TextSlot().CloseElement()
	})
	tplB := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("b").TextSlot().CloseElement()
	})
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	ctx := &Context{Host: doc, Engine: engine}

	anchor := doc.CreateMarker()
	doc.InsertBefore(doc.Body(), anchor, nil)
	p := part.Part{Kind: part.KindChild, Node: doc.Body(), Anchor: anchor}

	b, err := New(p, "seed")
	require.NoError(t, err)
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)

	// Two connects before one commit: only the second staging survives.
	require.NoError(t, b.Bind(tplA.Bind("a")))
	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.Bind(tplB.Bind("b")))
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)

	assert.Equal(t, "<b>b</b><!---->", doc.HTML())
}

func TestConnectRestagesAcrossVariants(t *testing.T) {
	tpl := part.NewTemplate(func(b *part.Builder) {
		b.OpenElement("i").TextSlot().CloseElement()
	})
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	ctx := &Context{Host: doc, Engine: engine}

	anchor := doc.CreateMarker()
	doc.InsertBefore(doc.Body(), anchor, nil)
	p := part.Part{Kind: part.KindChild, Node: doc.Body(), Anchor: anchor}

	// Stage a template, then rebind a plain value before the commit: the
	// staged variant is replaced, not reused for the wrong kind.
	b, err := New(p, tpl.Bind("a"))
	require.NoError(t, err)
	require.NoError(t, b.Connect(ctx))

	require.NoError(t, b.Bind("plain"))
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)
	assert.Equal(t, "plain<!---->", doc.HTML())

	// And back: text staged, template wins.
	require.NoError(t, b.Bind(tpl.Bind("x")))
	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.Bind(tpl.Bind("y")))
	require.NoError(t, b.Connect(ctx))
	b.Commit(ctx)
	assert.Equal(t, "<i>y</i><!---->", doc.HTML())
}

// =============================================================================
// Directives
// =============================================================================

type upperDirective struct{ s string }

func (d upperDirective) DirectiveKind() string { return "upper" }
func (d upperDirective) Render(prev any) any   { return strings.ToUpper(d.s) }

type otherDirective struct{}

func (otherDirective) DirectiveKind() string { return "other" }
func (otherDirective) Render(prev any) any   { return "other" }

func TestDirectiveRendersToValue(t *testing.T) {
	doc, root := newTestRoot(t)

	require.NoError(t, root.Render(upperDirective{s: "loud"}))
	assert.Equal(t, "LOUD<!---->", doc.HTML())

	require.NoError(t, root.Render(upperDirective{s: "louder"}))
	assert.Equal(t, "LOUDER<!---->", doc.HTML())
}

func TestDirectiveKindChangeIsProtocolError(t *testing.T) {
	_, root := newTestRoot(t)

	require.NoError(t, root.Render(upperDirective{s: "x"}))
	err := root.Render(otherDirective{})

	var pe *loom.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "E005", pe.Code)
}

// =============================================================================
// Components
// =============================================================================

func TestComponentRendersAndSelfUpdates(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	root := NewRoot(doc, engine, doc.Body())

	var bump func(int) *loom.UpdateHandle
	comp := &Component{
		Name: "counter",
		Render: func(co *loom.Coroutine, props map[string]any) any {
			count, set := loom.UseState(co, 0)
			bump = set
			return fmt.Sprintf("count=%d", count)
		},
	}

	require.NoError(t, root.Render(comp))
	require.Equal(t, "count=0<!---->", doc.HTML())

	bump(3)
	require.NoError(t, engine.Settle())
	assert.Equal(t, "count=3<!---->", doc.HTML())
}

func TestComponentPropChangeRerenders(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	root := NewRoot(doc, engine, doc.Body())

	render := func(co *loom.Coroutine, props map[string]any) any {
		return fmt.Sprintf("hello %v", props["name"])
	}

	require.NoError(t, root.Render(&Component{
		Name: "greeter", Props: map[string]any{"name": "ada"}, Render: render,
	}))
	require.Equal(t, "hello ada<!---->", doc.HTML())

	// Shallow-equal props: no rebind, no re-render.
	doc.TakePatches()
	require.NoError(t, root.Render(&Component{
		Name: "greeter", Props: map[string]any{"name": "ada"}, Render: render,
	}))
	assert.Zero(t, doc.PendingPatches())

	require.NoError(t, root.Render(&Component{
		Name: "greeter", Props: map[string]any{"name": "grace"}, Render: render,
	}))
	assert.Equal(t, "hello grace<!---->", doc.HTML())
}

func TestComponentNameChangeRestartsHookState(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	root := NewRoot(doc, engine, doc.Body())

	var bump func(int) *loom.UpdateHandle
	render := func(co *loom.Coroutine, props map[string]any) any {
		count, set := loom.UseState(co, 0)
		bump = set
		return fmt.Sprintf("count=%d", count)
	}

	require.NoError(t, root.Render(&Component{Name: "a", Render: render}))
	bump(9)
	require.NoError(t, engine.Settle())
	require.Equal(t, "count=9<!---->", doc.HTML())

	// New identity: fresh coroutine, hook state starts over.
	require.NoError(t, root.Render(&Component{Name: "b", Render: render}))
	assert.Equal(t, "count=0<!---->", doc.HTML())
}

func TestComponentDisposeDetachesCoroutine(t *testing.T) {
	doc := memdom.NewDocument()
	engine := loom.NewEngine()
	root := NewRoot(doc, engine, doc.Body())

	cleanedUp := false
	var bump func(int) *loom.UpdateHandle
	require.NoError(t, root.Render(&Component{
		Name: "x",
		Render: func(co *loom.Coroutine, props map[string]any) any {
			count, set := loom.UseState(co, 0)
			bump = set
			loom.UseEffect(co, func() loom.Cleanup {
				return func() { cleanedUp = true }
			}, []any{})
			return fmt.Sprint(count)
		},
	}))
	require.Equal(t, "0<!---->", doc.HTML())

	root.Dispose()
	assert.True(t, cleanedUp, "detach must run effect cleanups")
	assert.Empty(t, doc.HTML())

	// Updates after dispose are no-ops.
	h := bump(1)
	assert.True(t, h.Finished().Canceled())
	require.NoError(t, engine.Settle())
}
