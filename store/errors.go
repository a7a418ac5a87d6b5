package store

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/attackgraph/stix"
)

// Sentinel errors for store operations.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrNotFound indicates that no object exists for the requested id.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidID indicates that the requested id is not a STIX identifier.
	// It is distinct from ErrNotFound so callers can tell a malformed lookup
	// from a missing object.
	ErrInvalidID = stix.ErrInvalidID

	// ErrStoreUnavailable indicates that the backing store could not be
	// reached or read (Redis down, CTI directory missing).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrQueryFailed indicates that the store accepted the request but could
	// not evaluate it: an unsupported filter operator, an undecodable
	// document, a backend command failure.
	ErrQueryFailed = errors.New("store query failed")
)

// Error kinds categorize store errors.
const (
	KindNotFound    = "not_found"
	KindInvalidID   = "invalid_id"
	KindUnavailable = "unavailable"
	KindQuery       = "query"
)

// Error is a structured store error carrying the failed operation and its
// category. It unwraps to the underlying error, so errors.Is(err, ErrNotFound)
// and friends keep working through it.
type Error struct {
	// Op is the operation that failed (e.g., "MemoryStore.Get", "redisstore.Query").
	Op string

	// Kind categorizes the error (e.g., KindNotFound).
	Kind string

	// ID is the object id involved, if any.
	ID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store: %s (%s) %s: %v", e.Op, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("store: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and Op, when the target sets one), then
// falls back to the wrapped error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok && t.Kind != "" && t.Kind == e.Kind {
		if t.Op == "" || t.Op == e.Op {
			return true
		}
	}
	return errors.Is(e.Err, target)
}

// NotFound returns an Error of KindNotFound for id.
func NotFound(op, id string) *Error {
	return &Error{Op: op, Kind: KindNotFound, ID: id, Err: ErrNotFound}
}

// InvalidID returns an Error of KindInvalidID wrapping the parse failure.
func InvalidID(op, id string, err error) *Error {
	if err == nil {
		err = ErrInvalidID
	}
	return &Error{Op: op, Kind: KindInvalidID, ID: id, Err: err}
}

// Unavailable wraps err as a KindUnavailable error matching ErrStoreUnavailable.
func Unavailable(op string, err error) *Error {
	return &Error{Op: op, Kind: KindUnavailable, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}

// QueryFailed wraps err as a KindQuery error matching ErrQueryFailed.
func QueryFailed(op string, err error) *Error {
	return &Error{Op: op, Kind: KindQuery, Err: fmt.Errorf("%w: %w", ErrQueryFailed, err)}
}
