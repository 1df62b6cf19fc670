package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
)

func TestMetricsRecordsFlushes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	m.FlushStarted(lanes.SyncLane)
	m.FlushFinished(lanes.SyncLane, 2*time.Millisecond, nil)
	m.FlushFinished(lanes.DefaultLane, time.Millisecond, nil)
	m.FlushFinished(lanes.DefaultLane, time.Millisecond, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.flushesTotal.WithLabelValues(lanes.SyncLane.String(), "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.flushesTotal.WithLabelValues(lanes.DefaultLane.String(), "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.flushesTotal.WithLabelValues(lanes.DefaultLane.String(), "aborted")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.flushErrors))
}

func TestMetricsRecordsRendersAndPhases(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	m.CoroutineRendered(1, time.Millisecond, nil)
	m.CoroutineRendered(2, time.Millisecond, errors.New("bad"))
	m.PhaseDrained(loom.PhaseMutation, 5, time.Millisecond)
	m.PhaseDrained(loom.PhaseMutation, 2, time.Millisecond)
	m.PhaseDrained(loom.PhasePassive, 1, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.renderErrors))
	assert.Equal(t, float64(7), testutil.ToFloat64(
		m.phaseCallbacks.WithLabelValues("Mutation")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.phaseCallbacks.WithLabelValues("Passive")))
}

func TestMetricsNamespaceOptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(
		WithRegistry(reg),
		WithNamespace("myapp"),
		WithSubsystem("ui"),
		WithConstLabels(prometheus.Labels{"node": "a"}),
		WithBuckets([]float64{0.001, 0.01}),
	)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["myapp_ui_flushes_total"])
	assert.True(t, names["myapp_ui_flush_duration_seconds"])
	assert.True(t, names["myapp_ui_phase_callbacks_total"])
}

func TestMetricsDrivenByEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	e := loom.NewEngine(loom.WithObserver(m))

	co := e.NewCoroutine(nil, func(co *loom.Coroutine, uc *loom.UpdateContext) error {
		uc.EnqueueMutation(func() {})
		return nil
	})
	co.RequestUpdate(lanes.SyncLane)
	require.NoError(t, e.Settle())

	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.flushesTotal.WithLabelValues(lanes.SyncLane.String(), "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.phaseCallbacks.WithLabelValues("Mutation")))
}

func TestMultiFansOut(t *testing.T) {
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()
	a := NewMetrics(WithRegistry(regA))
	b := NewMetrics(WithRegistry(regB))

	multi := Multi(a, b)
	multi.FlushStarted(lanes.DefaultLane)
	multi.FlushFinished(lanes.DefaultLane, time.Millisecond, nil)

	for _, m := range []*Metrics{a, b} {
		assert.Equal(t, float64(1), testutil.ToFloat64(
			m.flushesTotal.WithLabelValues(lanes.DefaultLane.String(), "ok")))
	}
}
