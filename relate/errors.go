package relate

import (
	"errors"
	"fmt"
)

// Sentinel errors for relationship resolution.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrUnknownRelationSpec indicates that a Spec names an object type or
	// relationship type outside the resolver's vocabulary. Resolution fails
	// before touching the store so a misconfigured query is never mistaken
	// for one that simply has no edges.
	ErrUnknownRelationSpec = errors.New("unknown relation spec")

	// ErrUnknownQuery indicates that a catalog query name is not registered.
	// It also matches ErrUnknownRelationSpec.
	ErrUnknownQuery = fmt.Errorf("%w: unknown catalog query", ErrUnknownRelationSpec)

	// ErrMissingParent indicates that a sub-technique has no live parent
	// technique.
	ErrMissingParent = errors.New("no parent technique found")
)
