package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/loom-ui/loom/pkg/lanes"
	"github.com/loom-ui/loom/pkg/loom"
)

// Default tracer name for loom engines.
const defaultTracerName = "loom"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "loom").
	TracerName string

	// IncludeCoroutines records a span event per rendered coroutine.
	// Enabled by default; disable for very wide trees.
	IncludeCoroutines bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracerOption configures the OpenTelemetry observer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithIncludeCoroutines enables/disables per-coroutine span events.
func WithIncludeCoroutines(include bool) TracerOption {
	return func(c *TracerConfig) {
		c.IncludeCoroutines = include
	}
}

func defaultTracerConfig() TracerConfig {
	return TracerConfig{
		TracerName:        defaultTracerName,
		IncludeCoroutines: true,
	}
}

// Tracer is a loom.Observer emitting one span per update cycle, with lane
// and phase attributes. Observer callbacks all arrive from the single
// scheduler loop, so the current span needs no locking.
type Tracer struct {
	config TracerConfig
	span   trace.Span
}

// NewTracer creates the tracing observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := defaultTracerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// FlushStarted implements loom.Observer.
func (t *Tracer) FlushStarted(l lanes.Lanes) {
	_, t.span = t.config.tracer.Start(context.Background(), "loom.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("loom.lanes", l.String()),
			attribute.String("loom.lane.highest", lanes.HighestPriority(l).String()),
			attribute.Bool("loom.view_transition", lanes.HasViewTransition(l)),
		),
	)
}

// FlushFinished implements loom.Observer.
func (t *Tracer) FlushFinished(_ lanes.Lanes, d time.Duration, err error) {
	if t.span == nil {
		return
	}
	t.span.SetAttributes(attribute.Int64("loom.flush.micros", d.Microseconds()))
	if err != nil {
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, err.Error())
	} else {
		t.span.SetStatus(codes.Ok, "")
	}
	t.span.End()
	t.span = nil
}

// CoroutineRendered implements loom.Observer.
func (t *Tracer) CoroutineRendered(id uint64, d time.Duration, err error) {
	if t.span == nil || !t.config.IncludeCoroutines {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Int64("loom.coroutine.id", int64(id)),
		attribute.Int64("loom.render.micros", d.Microseconds()),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("loom.render.error", err.Error()))
	}
	t.span.AddEvent("render", trace.WithAttributes(attrs...))
}

// PhaseDrained implements loom.Observer.
func (t *Tracer) PhaseDrained(p loom.Phase, callbacks int, d time.Duration) {
	if t.span == nil {
		return
	}
	t.span.AddEvent("phase."+p.String(), trace.WithAttributes(
		attribute.Int("loom.phase.callbacks", callbacks),
		attribute.Int64("loom.phase.micros", d.Microseconds()),
	))
}

// Multi fans observer callbacks out to several observers in order.
func Multi(obs ...loom.Observer) loom.Observer {
	return multiObserver(obs)
}

type multiObserver []loom.Observer

func (m multiObserver) FlushStarted(l lanes.Lanes) {
	for _, o := range m {
		o.FlushStarted(l)
	}
}

func (m multiObserver) FlushFinished(l lanes.Lanes, d time.Duration, err error) {
	for _, o := range m {
		o.FlushFinished(l, d, err)
	}
}

func (m multiObserver) CoroutineRendered(id uint64, d time.Duration, err error) {
	for _, o := range m {
		o.CoroutineRendered(id, d, err)
	}
}

func (m multiObserver) PhaseDrained(p loom.Phase, callbacks int, d time.Duration) {
	for _, o := range m {
		o.PhaseDrained(p, callbacks, d)
	}
}
