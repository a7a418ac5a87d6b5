package store

import (
	"fmt"
	"reflect"
	"time"

	"github.com/zero-day-ai/attackgraph/stix"
)

// Match reports whether obj satisfies every filter.
// An unsupported operator or an uncomparable value fails with ErrQueryFailed.
func Match(obj *stix.Object, filters ...Filter) (bool, error) {
	for _, f := range filters {
		ok, err := matchOne(obj, f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchOne(obj *stix.Object, f Filter) (bool, error) {
	got, present := obj.Value(f.Field)
	if !present {
		return false, nil
	}

	switch f.Op {
	case OpEqual:
		if list, ok := got.([]any); ok {
			for _, elem := range list {
				if equal(elem, f.Value) {
					return true, nil
				}
			}
			return false, nil
		}
		return equal(got, f.Value), nil
	case OpGreater:
		cmp, err := compare(got, f.Value)
		if err != nil {
			return false, fmt.Errorf("%w: filter %s: %v", ErrQueryFailed, f, err)
		}
		return cmp > 0, nil
	default:
		return false, fmt.Errorf("%w: unsupported operator %q in filter on %s", ErrQueryFailed, f.Op, f.Field)
	}
}

func equal(got, want any) bool {
	if gn, ok := toFloat(got); ok {
		if wn, ok := toFloat(want); ok {
			return gn == wn
		}
	}
	if gt, ok := toTime(got); ok {
		if wt, ok := toTime(want); ok {
			return gt.Equal(wt)
		}
	}
	return reflect.DeepEqual(got, want)
}

// compare orders timestamps, numbers, or strings. Timestamps accept
// time.Time or RFC 3339 strings on either side.
func compare(got, want any) (int, error) {
	if wt, ok := want.(time.Time); ok {
		gt, ok := toTime(got)
		if !ok {
			return 0, fmt.Errorf("field value %v is not a timestamp", got)
		}
		return gt.Compare(wt), nil
	}
	if gt, ok := got.(time.Time); ok {
		wt, ok := toTime(want)
		if !ok {
			return 0, fmt.Errorf("value %v is not a timestamp", want)
		}
		return gt.Compare(wt), nil
	}
	if gn, ok := toFloat(got); ok {
		wn, ok := toFloat(want)
		if !ok {
			return 0, fmt.Errorf("value %v is not a number", want)
		}
		switch {
		case gn > wn:
			return 1, nil
		case gn < wn:
			return -1, nil
		}
		return 0, nil
	}
	if gs, ok := got.(string); ok {
		ws, ok := want.(string)
		if !ok {
			return 0, fmt.Errorf("value %v is not a string", want)
		}
		switch {
		case gs > ws:
			return 1, nil
		case gs < ws:
			return -1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot order values of type %T", got)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
