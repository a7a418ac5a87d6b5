// Package store defines the read interface the relationship resolver runs
// against, and provides an in-memory implementation loaded from a MITRE CTI
// file tree.
//
// Queries are expressed as AND-combined Filter triples:
//
//	groups, err := s.Query(ctx,
//	    store.TypeIs(stix.TypeIntrusionSet),
//	    store.Eq("aliases", "Cozy Bear"),
//	)
//
// Point lookups distinguish a malformed id (ErrInvalidID) from an unknown
// one (ErrNotFound). Backend failures surface as ErrStoreUnavailable or
// ErrQueryFailed, wrapped in *Error with the failing operation.
package store
