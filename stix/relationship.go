package stix

import "time"

// Relationship is the read-only view of a relationship object: a directed,
// typed edge from SourceRef to TargetRef.
type Relationship struct {
	// ID is the STIX id of the relationship object.
	ID string `json:"id"`

	// RelationshipType describes the edge (e.g., "uses", "mitigates", "detects").
	RelationshipType string `json:"relationship_type"`

	// SourceRef is the id of the originating object.
	SourceRef string `json:"source_ref"`

	// TargetRef is the id of the destination object.
	TargetRef string `json:"target_ref"`

	// Description often carries the procedure example text.
	Description string `json:"description,omitempty"`

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// Other returns the endpoint opposite to id, or "" when id is neither endpoint.
func (r *Relationship) Other(id string) string {
	switch id {
	case r.SourceRef:
		return r.TargetRef
	case r.TargetRef:
		return r.SourceRef
	default:
		return ""
	}
}
