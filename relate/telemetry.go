package relate

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/zero-day-ai/attackgraph/relate"

// resolverMetrics holds the instruments recorded on every Resolve call.
type resolverMetrics struct {
	// resolveCount counts Resolve calls by outcome
	resolveCount metric.Int64Counter

	// droppedCount counts entries dropped because the partner was not live
	droppedCount metric.Int64Counter

	// duration records Resolve latency in milliseconds
	duration metric.Float64Histogram
}

func newResolverMetrics(mp metric.MeterProvider) (*resolverMetrics, error) {
	meter := mp.Meter(instrumentationName)
	m := &resolverMetrics{}
	var err error

	m.resolveCount, err = meter.Int64Counter(
		"relate.resolve.count",
		metric.WithDescription("Number of relationship resolutions performed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create resolve counter: %w", err)
	}

	m.droppedCount, err = meter.Int64Counter(
		"relate.entries.dropped",
		metric.WithDescription("Entries dropped because the related object is revoked, deprecated or missing"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dropped counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"relate.resolve.duration",
		metric.WithDescription("Relationship resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	return m, nil
}

func noopResolverMetrics() *resolverMetrics {
	m, _ := newResolverMetrics(metricnoop.NewMeterProvider())
	return m
}

func specAttributes(spec Spec) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("relate.source_type", spec.SourceType),
		attribute.String("relate.relationship_type", spec.RelationshipType),
		attribute.String("relate.target_type", spec.TargetType),
		attribute.Bool("relate.reverse", spec.Reverse),
	}
}

func (m *resolverMetrics) record(ctx context.Context, spec Spec, start time.Time, dropped int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(append(specAttributes(spec), attribute.String("relate.outcome", outcome))...)

	m.resolveCount.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, attrs)
	if dropped > 0 {
		m.droppedCount.Add(ctx, int64(dropped), metric.WithAttributes(specAttributes(spec)...))
	}
}
