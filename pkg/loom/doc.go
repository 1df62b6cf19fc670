// Package loom is the update engine: it decides when, in what order, and
// with what consistency guarantees pending state changes become committed
// mutations of an output tree.
//
// The schedulable unit is the Coroutine - one component instance's
// renderable state, its hook store, and its pending lane set. Coroutines
// request work through RequestUpdate with a priority lane set; the Engine
// batches and coalesces those requests, picks the most urgent lane, and
// drives each cycle through an effect-free render pass followed by a
// three-phase commit (mutation, layout, passive).
//
// Scheduling is single-logical-thread with cooperative suspension:
// "concurrency" here is temporal interleaving of independently requested
// update tasks under priority control, never parallel render passes.
package loom
