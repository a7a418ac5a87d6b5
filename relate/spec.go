package relate

import (
	"errors"
	"fmt"

	"github.com/zero-day-ai/attackgraph/stix"
)

// Spec identifies one class of relationship edges and which endpoint keys
// the resulting Mapping.
//
// With Reverse false the anchor is the source endpoint (e.g., group -> the
// software it uses); with Reverse true the anchor is the target endpoint
// (software -> the groups using it).
type Spec struct {
	// SourceType is the object type at the source end (e.g., "intrusion-set").
	SourceType string `json:"source_type" yaml:"source_type"`

	// RelationshipType is the edge label (e.g., "uses").
	RelationshipType string `json:"relationship_type" yaml:"relationship_type"`

	// TargetType is the object type at the target end (e.g., "malware").
	TargetType string `json:"target_type" yaml:"target_type"`

	// Reverse keys the mapping by target instead of source.
	Reverse bool `json:"reverse" yaml:"reverse"`
}

// NewSpec creates a forward Spec.
func NewSpec(sourceType, relType, targetType string) Spec {
	return Spec{SourceType: sourceType, RelationshipType: relType, TargetType: targetType}
}

// Reversed returns a copy of the spec with Reverse flipped.
func (s Spec) Reversed() Spec {
	s.Reverse = !s.Reverse
	return s
}

// AnchorType returns the type of the endpoint used as mapping key.
func (s Spec) AnchorType() string {
	if s.Reverse {
		return s.TargetType
	}
	return s.SourceType
}

// PartnerType returns the type of the endpoint listed in mapping entries.
func (s Spec) PartnerType() string {
	if s.Reverse {
		return s.SourceType
	}
	return s.TargetType
}

// String returns the spec as "source -rel-> target", with a "(reverse)" suffix.
func (s Spec) String() string {
	out := fmt.Sprintf("%s -%s-> %s", s.SourceType, s.RelationshipType, s.TargetType)
	if s.Reverse {
		out += " (reverse)"
	}
	return out
}

// Validate checks the spec against a vocabulary. A nil vocabulary means
// stix.DefaultVocabulary. Every failure matches ErrUnknownRelationSpec.
func (s Spec) Validate(vocab *stix.Vocabulary) error {
	if vocab == nil {
		vocab = stix.DefaultVocabulary()
	}

	var errs []error
	if s.SourceType == "" {
		errs = append(errs, errors.New("source type is required"))
	} else if !vocab.IsObjectType(s.SourceType) {
		errs = append(errs, fmt.Errorf("unknown source type %q", s.SourceType))
	}
	if s.TargetType == "" {
		errs = append(errs, errors.New("target type is required"))
	} else if !vocab.IsObjectType(s.TargetType) {
		errs = append(errs, fmt.Errorf("unknown target type %q", s.TargetType))
	}
	if s.RelationshipType == "" {
		errs = append(errs, errors.New("relationship type is required"))
	} else if !vocab.IsRelationshipType(s.RelationshipType) {
		errs = append(errs, fmt.Errorf("unknown relationship type %q", s.RelationshipType))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrUnknownRelationSpec, s, errors.Join(errs...))
	}
	return nil
}
