package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "framework-search"

// Observability bundles the OpenTelemetry meter and tracer used by the
// search dispatcher. The zero value is usable and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracer         trace.Tracer
	searchCounter  otelmetric.Int64Counter
	searchDuration otelmetric.Float64Histogram
	resultCount    otelmetric.Int64Histogram
}

// New registers an otel MeterProvider backed by the Prometheus exporter, so
// the instruments show up on the same /metrics endpoint as promauto metrics.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	o := newFromMeter(provider.Meter(serviceName))
	o.meterProvider = provider
	return o, nil
}

// NewNoop returns an Observability that uses the global (no-op by default)
// providers. Tests use it.
func NewNoop() *Observability {
	return newFromMeter(otel.GetMeterProvider().Meter(instrumentationName))
}

func newFromMeter(meter otelmetric.Meter) *Observability {
	searchCounter, _ := meter.Int64Counter(
		"search.dispatched",
		otelmetric.WithDescription("Number of search dispatches"),
	)
	searchDuration, _ := meter.Float64Histogram(
		"search.duration",
		otelmetric.WithDescription("Search dispatch duration"),
		otelmetric.WithUnit("ms"),
	)
	resultCount, _ := meter.Int64Histogram(
		"search.results",
		otelmetric.WithDescription("Items returned per search page"),
	)

	return &Observability{
		tracer:         otel.Tracer(instrumentationName),
		searchCounter:  searchCounter,
		searchDuration: searchDuration,
		resultCount:    resultCount,
	}
}

// StartSpan opens an internal span tagged with the query kind.
func (o *Observability) StartSpan(ctx context.Context, name, kind string) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("search.kind", kind)),
	)
}

func (o *Observability) RecordSearch(ctx context.Context, kind, outcome string, duration time.Duration, results int) {
	attrs := otelmetric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	if o.searchCounter != nil {
		o.searchCounter.Add(ctx, 1, attrs)
	}
	if o.searchDuration != nil {
		o.searchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
	if o.resultCount != nil {
		o.resultCount.Record(ctx, int64(results), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
