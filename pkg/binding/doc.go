// Package binding implements the lifecycle contract shared by every
// renderable value: primitives, template fragments, keyed lists, components,
// and directives.
//
// A binding pairs a part with a currently bound value. Its lifecycle is a
// fixed protocol: Bind stages a new value, Connect computes pending side
// effects and sub-bindings without touching the committed tree, Commit
// applies the staged results, and Disconnect/Rollback undo them in reverse
// order, leaving the binding reconnectable with a fresh value.
//
// The variant behind a part is resolved once, when New inspects the part
// kind and the value, not re-branched on every render. The Binding interface
// is sealed to this package; external behavior plugs in through Directive
// values, which render to ordinary bindable values.
package binding
