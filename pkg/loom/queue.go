package loom

// Phase identifies one of the three ordered commit stages.
type Phase uint8

const (
	PhaseMutation Phase = iota // Structural and attribute writes
	PhaseLayout                // Post-mutation, pre-paint effects
	PhasePassive               // Deferred effects (subscriptions, logging)
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseMutation:
		return "Mutation"
	case PhaseLayout:
		return "Layout"
	case PhasePassive:
		return "Passive"
	default:
		return "Unknown"
	}
}

// Queue is an ordered callback queue that is safe to append to while it is
// being drained: callbacks enqueued during Drain run in the same drain, so
// a phase always completes everything it caused before the next phase
// starts.
type Queue struct {
	items []func()
}

// Enqueue appends fn to the queue.
func (q *Queue) Enqueue(fn func()) {
	q.items = append(q.items, fn)
}

// Len returns the number of queued callbacks.
func (q *Queue) Len() int {
	return len(q.items)
}

// Drain runs every queued callback in order, including callbacks appended
// by callbacks already run, then empties the queue. Returns the number of
// callbacks executed.
func (q *Queue) Drain() int {
	// Deliberately re-reads len(q.items) each iteration.
	for i := 0; i < len(q.items); i++ {
		q.items[i]()
	}
	n := len(q.items)
	q.items = q.items[:0]
	return n
}

// Reset discards queued callbacks without running them. Used when a render
// cycle aborts before commit.
func (q *Queue) Reset() {
	q.items = q.items[:0]
}

// commitQueues is the per-cycle set of phase queues.
type commitQueues struct {
	mutation Queue
	layout   Queue
	passive  Queue
}

func (c *commitQueues) byPhase(p Phase) *Queue {
	switch p {
	case PhaseMutation:
		return &c.mutation
	case PhaseLayout:
		return &c.layout
	default:
		return &c.passive
	}
}

func (c *commitQueues) reset() {
	c.mutation.Reset()
	c.layout.Reset()
	c.passive.Reset()
}

// merge appends o's staged callbacks onto c, preserving phase and order.
func (c *commitQueues) merge(o *commitQueues) {
	c.mutation.items = append(c.mutation.items, o.mutation.items...)
	c.layout.items = append(c.layout.items, o.layout.items...)
	c.passive.items = append(c.passive.items, o.passive.items...)
}
