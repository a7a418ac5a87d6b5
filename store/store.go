package store

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/attackgraph/stix"
)

// Store is the read interface over a STIX object collection.
//
// Implementations must return objects in a stable order for a given store
// state, and must not expect callers to mutate the returned objects.
type Store interface {
	// Query returns every object matching all filters, in store order.
	// An empty filter set matches everything.
	Query(ctx context.Context, filters ...Filter) ([]*stix.Object, error)

	// Get returns the object with the given id.
	// Fails with ErrInvalidID for a malformed id and ErrNotFound for an unknown one.
	Get(ctx context.Context, id string) (*stix.Object, error)
}

// Op is a filter comparison operator.
type Op string

const (
	// OpEqual matches when the field equals the value. For list fields it
	// matches when any element equals the value.
	OpEqual Op = "="

	// OpGreater matches when the field is strictly greater than the value.
	OpGreater Op = ">"
)

// Filter is one (field, operator, value) triple. Filters passed together are
// AND-combined.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// String returns the filter in "field op value" form.
func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// Gt builds a greater-than filter.
func Gt(field string, value any) Filter {
	return Filter{Field: field, Op: OpGreater, Value: value}
}

// TypeIs builds the common type equality filter.
func TypeIs(objType string) Filter {
	return Eq("type", objType)
}

// typeFromFilters returns the value of the first "type =" filter, if any.
func typeFromFilters(filters []Filter) (string, bool) {
	for _, f := range filters {
		if f.Field == "type" && f.Op == OpEqual {
			if s, ok := f.Value.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}
