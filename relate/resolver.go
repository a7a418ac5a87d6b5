package relate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Resolver builds relationship mappings from a store.
//
// A Resolver references the store but does not own it and never writes to
// it. It holds no per-call state, so one Resolver may serve concurrent
// callers whenever the store is safe for concurrent reads.
type Resolver struct {
	store         store.Store
	logger        *slog.Logger
	tracer        trace.Tracer
	meterProvider metric.MeterProvider
	metrics       *resolverMetrics
	typeMatch     TypeMatch
	vocab         *stix.Vocabulary
}

// NewResolver creates a Resolver over s.
func NewResolver(s store.Store, opts ...Option) *Resolver {
	r := &Resolver{store: s}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	if r.vocab == nil {
		r.vocab = stix.DefaultVocabulary()
	}

	r.metrics = noopResolverMetrics()
	if r.meterProvider != nil {
		m, err := newResolverMetrics(r.meterProvider)
		if err != nil {
			r.logger.Warn("relationship metrics disabled", "error", err)
		} else {
			r.metrics = m
		}
	}
	return r
}

// Vocabulary returns the vocabulary specs are validated against.
func (r *Resolver) Vocabulary() *stix.Vocabulary {
	return r.vocab
}

// Resolve maps each anchor id to its live partners for the edges described
// by spec.
//
// Relationships of spec.RelationshipType are kept when their source is of
// spec.SourceType and their target of spec.TargetType, then grouped by
// anchor in store order. Partners that are revoked, deprecated or absent
// are dropped, and anchors left without partners are omitted.
//
// Store errors are returned unchanged. An invalid spec fails with
// ErrUnknownRelationSpec without querying the store.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (Mapping, error) {
	if err := spec.Validate(r.vocab); err != nil {
		return nil, err
	}

	ctx, span := r.tracer.Start(ctx, "relate.resolve", trace.WithAttributes(specAttributes(spec)...))
	defer span.End()

	start := time.Now()
	m, stats, err := r.resolve(ctx, spec)
	r.metrics.record(ctx, spec, start, stats.dropped, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("relate.relationships", stats.relationships),
		attribute.Int("relate.accepted", stats.accepted),
		attribute.Int("relate.anchors", len(m)),
		attribute.Int("relate.dropped", stats.dropped),
	)
	span.SetStatus(codes.Ok, "")

	r.logger.DebugContext(ctx, "resolved relationships",
		"spec", spec.String(),
		"relationships", stats.relationships,
		"accepted", stats.accepted,
		"anchors", len(m),
		"dropped", stats.dropped)
	return m, nil
}

// ResolveAll resolves each spec in order and merges the results.
func (r *Resolver) ResolveAll(ctx context.Context, specs ...Spec) (Mapping, error) {
	parts := make([]Mapping, 0, len(specs))
	for _, spec := range specs {
		m, err := r.Resolve(ctx, spec)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	return Merge(parts...), nil
}

type resolveStats struct {
	relationships int
	accepted      int
	dropped       int
}

func (r *Resolver) resolve(ctx context.Context, spec Spec) (Mapping, resolveStats, error) {
	var stats resolveStats

	rels, err := r.store.Query(ctx,
		store.TypeIs(stix.TypeRelationship),
		store.Eq("relationship_type", spec.RelationshipType),
	)
	if err != nil {
		return nil, stats, err
	}
	stats.relationships = len(rels)

	match := r.endpointMatcher(ctx)
	b := newBuilder()
	for _, obj := range rels {
		rel, ok := obj.AsRelationship()
		if !ok {
			continue
		}

		ok, err := match(rel.SourceRef, spec.SourceType)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}
		ok, err = match(rel.TargetRef, spec.TargetType)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			continue
		}

		stats.accepted++
		if spec.Reverse {
			b.add(rel.TargetRef, RelationEntry{Relationship: rel, RelatedID: rel.SourceRef})
		} else {
			b.add(rel.SourceRef, RelationEntry{Relationship: rel, RelatedID: rel.TargetRef})
		}
	}

	partners, err := r.store.Query(ctx, store.TypeIs(spec.PartnerType()))
	if err != nil {
		return nil, stats, err
	}

	live := make(map[string]*stix.Object, len(partners))
	for _, p := range partners {
		if p.Live() {
			live[p.ID] = p
		}
	}

	m, dropped := b.build(live)
	stats.dropped = dropped
	return m, stats, nil
}

// endpointMatcher returns the type test for the configured match mode.
// Declared-type lookups are cached for the duration of one resolution.
func (r *Resolver) endpointMatcher(ctx context.Context) func(id, wantType string) (bool, error) {
	if r.typeMatch != MatchDeclaredType {
		return func(id, wantType string) (bool, error) {
			return stix.TypeOf(id) == wantType, nil
		}
	}

	declared := make(map[string]string)
	return func(id, wantType string) (bool, error) {
		typ, seen := declared[id]
		if !seen {
			obj, err := r.store.Get(ctx, id)
			switch {
			case err == nil:
				typ = obj.Type
			case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
				typ = ""
			default:
				return false, err
			}
			declared[id] = typ
		}
		return typ != "" && typ == wantType, nil
	}
}
