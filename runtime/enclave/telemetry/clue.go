package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"goa.design/clue/log"
)

type (
	// ClueLogger wraps goa.design/clue/log for Enclave logging.
	ClueLogger struct{}

	// ClueMetrics wraps OTEL metrics for Enclave instrumentation.
	ClueMetrics struct {
		counters metric.Float64Counter
		gauges   metric.Float64Gauge
		timers   metric.Float64Histogram
	}

	// ClueTracer wraps OTEL tracing for Enclave execution spans.
	ClueTracer struct {
		tracer trace.Tracer
	}

	clueSpan struct {
		span trace.Span
	}
)

// NewClueLogger constructs a Logger that delegates to goa.design/clue/log.
// Formatting and debug settings are read from the context (set via
// log.Context and log.WithFormat/log.WithDebug).
func NewClueLogger() Logger { return ClueLogger{} }

// NewClueMetrics constructs a Metrics recorder backed by the global OTEL
// MeterProvider. Configure the provider before invoking Enclave methods
// (typically via clue.ConfigureOpenTelemetry).
func NewClueMetrics() Metrics {
	meter := otel.Meter("goa.design/goa-ai/runtime/enclave")
	counters, _ := meter.Float64Counter("enclave.counter")
	gauges, _ := meter.Float64Gauge("enclave.gauge")
	timers, _ := meter.Float64Histogram("enclave.timer")
	return &ClueMetrics{counters: counters, gauges: gauges, timers: timers}
}

// NewClueTracer constructs a Tracer backed by the global OTEL TracerProvider.
func NewClueTracer() Tracer {
	return &ClueTracer{tracer: otel.Tracer("goa.design/goa-ai/runtime/enclave")}
}

// Debug emits a debug-level log message with structured key-value pairs.
func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	log.Debug(ctx, msg, toClueFields(keyvals)...)
}

// Info emits an info-level log message.
func (ClueLogger) Info(ctx context.Context, msg string, keyvals ...any) {
	log.Info(ctx, msg, toClueFields(keyvals)...)
}

// Warn emits a warn-level log message.
func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	log.Print(ctx, msg, toClueFields(keyvals)...)
}

// Error emits an error-level log message.
func (ClueLogger) Error(ctx context.Context, msg string, keyvals ...any) {
	log.Error(ctx, nil, append([]log.Fielder{log.KV{K: "msg", V: msg}}, toClueFields(keyvals)...)...)
}

func toClueFields(keyvals []any) []log.Fielder {
	fields := make([]log.Fielder, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		k, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, log.KV{K: k, V: keyvals[i+1]})
	}
	return fields
}

// IncCounter increments a named counter by value, annotated with tags.
func (m *ClueMetrics) IncCounter(name string, value float64, tags ...string) {
	if m == nil || m.counters == nil {
		return
	}
	m.counters.Add(context.Background(), value, metric.WithAttributes(tagAttrs(name, tags)...))
}

// RecordTimer records a duration observation annotated with tags.
func (m *ClueMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	if m == nil || m.timers == nil {
		return
	}
	m.timers.Record(context.Background(), duration.Seconds(), metric.WithAttributes(tagAttrs(name, tags)...))
}

// RecordGauge records a gauge observation annotated with tags.
func (m *ClueMetrics) RecordGauge(name string, value float64, tags ...string) {
	if m == nil || m.gauges == nil {
		return
	}
	m.gauges.Record(context.Background(), value, metric.WithAttributes(tagAttrs(name, tags)...))
}

func tagAttrs(name string, tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags)/2+1)
	attrs = append(attrs, attribute.String("metric", name))
	for i := 0; i+1 < len(tags); i += 2 {
		attrs = append(attrs, attribute.String(tags[i], tags[i+1]))
	}
	return attrs
}

// Start begins a new tracing span.
func (t *ClueTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &clueSpan{span: span}
}

func (s *clueSpan) End(opts ...trace.SpanEndOption) { s.span.End(opts...) }

func (s *clueSpan) AddEvent(name string, attrs ...any) {
	kvs := make([]attribute.KeyValue, 0, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		kvs = append(kvs, attribute.String(k, toString(attrs[i+1])))
	}
	s.span.AddEvent(name, trace.WithAttributes(kvs...))
}

func (s *clueSpan) SetStatus(code codes.Code, description string) { s.span.SetStatus(code, description) }

func (s *clueSpan) RecordError(err error, opts ...trace.EventOption) { s.span.RecordError(err, opts...) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
