package stix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidID indicates that a string is not shaped like a STIX identifier.
var ErrInvalidID = errors.New("invalid stix id")

const idSeparator = "--"

// ID is a parsed STIX identifier.
type ID struct {
	// Type is the object type prefix (e.g., "intrusion-set").
	Type string

	// Suffix is the part after the separator, normally a UUID.
	Suffix string
}

// String returns the identifier in "<type>--<suffix>" form.
func (id ID) String() string {
	return id.Type + idSeparator + id.Suffix
}

// UUID parses the suffix as a UUID. Identifiers minted by MITRE always carry one.
func (id ID) UUID() (uuid.UUID, error) {
	u, err := uuid.Parse(id.Suffix)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q suffix is not a uuid: %v", ErrInvalidID, id.String(), err)
	}
	return u, nil
}

// NewID mints a fresh identifier for the given object type.
func NewID(objType string) string {
	return objType + idSeparator + uuid.NewString()
}

// ParseID splits a STIX identifier into its type and suffix.
// Returns ErrInvalidID when either part is missing.
func ParseID(s string) (ID, error) {
	typ, suffix, ok := strings.Cut(s, idSeparator)
	if !ok || typ == "" || suffix == "" {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID{Type: typ, Suffix: suffix}, nil
}

// TypeOf returns the type encoded in a STIX identifier, or "" if the
// identifier is malformed. The prefix is compared exactly by callers, so
// "tool" never matches an id of type "x-mitre-tool-like".
func TypeOf(s string) string {
	id, err := ParseID(s)
	if err != nil {
		return ""
	}
	return id.Type
}
