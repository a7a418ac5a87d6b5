package relate

import (
	"log/slog"

	"github.com/zero-day-ai/attackgraph/stix"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TypeMatch selects how an edge endpoint's type is determined.
type TypeMatch int

const (
	// MatchIDPrefix reads the type from the STIX id prefix ("malware--...").
	// No store lookups are made, keeping resolution O(edges).
	MatchIDPrefix TypeMatch = iota

	// MatchDeclaredType fetches each endpoint and compares its declared type
	// field. Endpoints that are not found drop the edge.
	MatchDeclaredType
)

// String returns the configuration name of the match mode.
func (m TypeMatch) String() string {
	switch m {
	case MatchIDPrefix:
		return "id_prefix"
	case MatchDeclaredType:
		return "declared_type"
	default:
		return "unknown"
	}
}

// ParseTypeMatch parses a configuration name. The empty string selects MatchIDPrefix.
func ParseTypeMatch(s string) (TypeMatch, bool) {
	switch s {
	case "", "id_prefix":
		return MatchIDPrefix, true
	case "declared_type":
		return MatchDeclaredType, true
	default:
		return 0, false
	}
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer. Each Resolve call emits one span.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = tracer
	}
}

// WithMeterProvider sets the provider used to create resolution metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Resolver) {
		r.meterProvider = mp
	}
}

// WithTypeMatch sets the endpoint type matching mode.
func WithTypeMatch(m TypeMatch) Option {
	return func(r *Resolver) {
		r.typeMatch = m
	}
}

// WithVocabulary replaces the vocabulary specs are validated against.
func WithVocabulary(v *stix.Vocabulary) Option {
	return func(r *Resolver) {
		r.vocab = v
	}
}
