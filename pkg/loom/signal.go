package loom

import (
	"sync"
)

// Dependency is any watchable value source. Watch registers a change
// notification and returns its unsubscribe function.
type Dependency interface {
	Watch(fn func()) (unwatch func())
}

// Signal is a watchable mutable value. Reads and writes are safe from any
// goroutine; watchers fire synchronously on the writer's goroutine.
type Signal[T any] struct {
	mu       sync.Mutex
	value    T
	equal    func(a, b T) bool
	watchers map[int]func()
	nextID   int
}

// NewSignal creates a signal holding initial. Every Set notifies watchers.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

// NewSignalEq creates a signal that skips notification when equal reports
// the new value unchanged.
func NewSignalEq[T any](initial T, equal func(a, b T) bool) *Signal[T] {
	return &Signal[T]{value: initial, equal: equal}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the value and notifies watchers.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	if s.equal != nil && s.equal(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	watchers := s.snapshotLocked()
	s.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// Update applies fn to the current value under the signal's lock, then
// notifies watchers with the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	if s.equal != nil && s.equal(s.value, next) {
		s.mu.Unlock()
		return
	}
	s.value = next
	watchers := s.snapshotLocked()
	s.mu.Unlock()
	for _, w := range watchers {
		w()
	}
}

// Watch registers a change notification. The returned function
// unsubscribes; calling it more than once is safe.
func (s *Signal[T]) Watch(fn func()) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.watchers == nil {
		s.watchers = make(map[int]func())
	}
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Signal[T]) snapshotLocked() []func() {
	out := make([]func(), 0, len(s.watchers))
	for _, fn := range s.watchers {
		out = append(out, fn)
	}
	return out
}

// Computed is a lazily cached derivation over explicit dependencies. The
// cache invalidates when any dependency notifies; the next Get recomputes.
type Computed[T any] struct {
	mu       sync.Mutex
	compute  func() T
	value    T
	valid    bool
	watchers map[int]func()
	nextID   int
	unwatch  []func()
}

// NewComputed creates a computed value over the given dependencies.
// Dependencies are explicit; the computation is never traced.
func NewComputed[T any](compute func() T, deps ...Dependency) *Computed[T] {
	c := &Computed[T]{compute: compute}
	for _, d := range deps {
		c.unwatch = append(c.unwatch, d.Watch(c.invalidate))
	}
	return c
}

// Get returns the cached value, recomputing if a dependency changed since
// the last read.
func (c *Computed[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		c.value = c.compute()
		c.valid = true
	}
	return c.value
}

// Watch registers a change notification, fired when a dependency
// invalidates the cache.
func (c *Computed[T]) Watch(fn func()) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.watchers == nil {
		c.watchers = make(map[int]func())
	}
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// Close unsubscribes from all dependencies.
func (c *Computed[T]) Close() {
	c.mu.Lock()
	unwatch := c.unwatch
	c.unwatch = nil
	c.mu.Unlock()
	for _, fn := range unwatch {
		fn()
	}
}

func (c *Computed[T]) invalidate() {
	c.mu.Lock()
	c.valid = false
	watchers := make([]func(), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}

// UseSignal subscribes the coroutine to s for its lifetime and returns the
// current value. A change requests an update under the engine's current
// priority; the subscription tears down when the coroutine detaches.
func UseSignal[T any](co *Coroutine, s *Signal[T]) T {
	UseEffect(co, func() Cleanup {
		unwatch := s.Watch(func() {
			co.RequestUpdate(co.engine.CurrentPriority())
		})
		return Cleanup(unwatch)
	}, []any{s})
	return s.Get()
}

// UseDependency subscribes the coroutine to any watchable source without
// reading a value, re-rendering on every notification.
func UseDependency(co *Coroutine, d Dependency) {
	UseEffect(co, func() Cleanup {
		unwatch := d.Watch(func() {
			co.RequestUpdate(co.engine.CurrentPriority())
		})
		return Cleanup(unwatch)
	}, []any{d})
}
