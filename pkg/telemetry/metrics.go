// Package telemetry plugs engine observability in through the loom.Observer
// interface: Prometheus metrics for flush throughput and OpenTelemetry spans
// per update cycle.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "engine").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "loom",
		Subsystem: "engine",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a loom.Observer recording engine activity to Prometheus.
type Metrics struct {
	flushesTotal   *prometheus.CounterVec
	flushDuration  *prometheus.HistogramVec
	flushErrors    prometheus.Counter
	renderDuration prometheus.Histogram
	renderErrors   prometheus.Counter
	phaseCallbacks *prometheus.CounterVec
	phaseDuration  *prometheus.HistogramVec
}

// NewMetrics registers the engine metrics and returns the observer.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of update cycles flushed",
			ConstLabels: config.ConstLabels,
		}, []string{"lane", "status"}),

		flushDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Update cycle duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"lane"}),

		flushErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_errors_total",
			Help:        "Total number of aborted update cycles",
			ConstLabels: config.ConstLabels,
		}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Per-coroutine render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		renderErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_errors_total",
			Help:        "Total number of failed render passes",
			ConstLabels: config.ConstLabels,
		}),

		phaseCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "phase_callbacks_total",
			Help:        "Total commit callbacks drained, by phase",
			ConstLabels: config.ConstLabels,
		}, []string{"phase"}),

		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "phase_duration_seconds",
			Help:        "Commit phase drain duration in seconds, by phase",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"phase"}),
	}
}

// FlushStarted implements loom.Observer.
func (m *Metrics) FlushStarted(lanes.Lanes) {}

// FlushFinished implements loom.Observer.
func (m *Metrics) FlushFinished(l lanes.Lanes, d time.Duration, err error) {
	lane := lanes.HighestPriority(l).String()
	status := "ok"
	if err != nil {
		status = "aborted"
		m.flushErrors.Inc()
	}
	m.flushesTotal.WithLabelValues(lane, status).Inc()
	m.flushDuration.WithLabelValues(lane).Observe(d.Seconds())
}

// CoroutineRendered implements loom.Observer.
func (m *Metrics) CoroutineRendered(_ uint64, d time.Duration, err error) {
	m.renderDuration.Observe(d.Seconds())
	if err != nil {
		m.renderErrors.Inc()
	}
}

// PhaseDrained implements loom.Observer.
func (m *Metrics) PhaseDrained(p loom.Phase, callbacks int, d time.Duration) {
	m.phaseCallbacks.WithLabelValues(p.String()).Add(float64(callbacks))
	m.phaseDuration.WithLabelValues(p.String()).Observe(d.Seconds())
}
