package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ui/loom/pkg/lanes"
)

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(1)
	assert.Equal(t, 1, s.Get())
	s.Set(2)
	assert.Equal(t, 2, s.Get())
	s.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, s.Get())
}

func TestSignalWatchAndUnwatch(t *testing.T) {
	s := NewSignal("a")
	fired := 0
	unwatch := s.Watch(func() { fired++ })

	s.Set("b")
	require.Equal(t, 1, fired)

	unwatch()
	s.Set("c")
	assert.Equal(t, 1, fired)
	// A second unwatch is harmless.
	unwatch()
}

func TestSignalEqSkipsUnchangedWrites(t *testing.T) {
	s := NewSignalEq(5, func(a, b int) bool { return a == b })
	fired := 0
	s.Watch(func() { fired++ })

	s.Set(5)
	s.Update(func(v int) int { return v })
	assert.Zero(t, fired)

	s.Set(6)
	assert.Equal(t, 1, fired)
}

func TestComputedCachesUntilInvalidated(t *testing.T) {
	base := NewSignal(2)
	computes := 0
	double := NewComputed(func() int {
		computes++
		return base.Get() * 2
	}, base)
	defer double.Close()

	assert.Equal(t, 4, double.Get())
	assert.Equal(t, 4, double.Get())
	require.Equal(t, 1, computes, "unchanged dependency must not recompute")

	base.Set(3)
	assert.Equal(t, 6, double.Get())
	assert.Equal(t, 2, computes)
}

func TestComputedNotifiesWatchers(t *testing.T) {
	base := NewSignal(1)
	c := NewComputed(func() int { return base.Get() + 1 }, base)
	defer c.Close()

	fired := 0
	c.Watch(func() { fired++ })
	base.Set(2)
	assert.Equal(t, 1, fired)
}

func TestComputedCloseStopsInvalidation(t *testing.T) {
	base := NewSignal(1)
	computes := 0
	c := NewComputed(func() int {
		computes++
		return base.Get()
	}, base)

	require.Equal(t, 1, c.Get())
	c.Close()

	base.Set(2)
	// No invalidation after close; the cache stays warm.
	assert.Equal(t, 1, c.Get())
	assert.Equal(t, 1, computes)
}

func TestUseSignalRerendersOnChange(t *testing.T) {
	e := NewEngine()
	sig := NewSignal(1)
	var seen []int
	co := e.NewCoroutine(nil, func(co *Coroutine, uc *UpdateContext) error {
		seen = append(seen, UseSignal(co, sig))
		return nil
	})

	co.RequestUpdate(lanes.DefaultLane)
	require.NoError(t, e.Settle())
	require.Equal(t, []int{1}, seen)

	sig.Set(2)
	require.NoError(t, e.Settle())
	assert.Equal(t, []int{1, 2}, seen)
}

func TestUseSignalUnsubscribesOnDetach(t *testing.T) {
	e := NewEngine()
	sig := NewSignal(1)
	renders := 0
	co := e.NewCoroutine(nil, func(co *Coroutine, uc *UpdateContext) error {
		renders++
		UseSignal(co, sig)
		return nil
	})

	co.RequestUpdate(lanes.DefaultLane)
	require.NoError(t, e.Settle())
	require.Equal(t, 1, renders)

	co.Detach()
	sig.Set(2)
	require.NoError(t, e.Settle())
	assert.Equal(t, 1, renders)
}

func TestUseDependencyRerendersOnNotify(t *testing.T) {
	e := NewEngine()
	base := NewSignal(1)
	derived := NewComputed(func() int { return base.Get() * 2 }, base)
	defer derived.Close()

	var seen []int
	co := e.NewCoroutine(nil, func(co *Coroutine, uc *UpdateContext) error {
		UseDependency(co, derived)
		seen = append(seen, derived.Get())
		return nil
	})

	co.RequestUpdate(lanes.DefaultLane)
	require.NoError(t, e.Settle())

	base.Set(5)
	require.NoError(t, e.Settle())
	assert.Equal(t, []int{2, 10}, seen)
}
