package stix

import "sort"

// STIX object types found in the ATT&CK data set.
const (
	TypeAttackPattern     = "attack-pattern"
	TypeIntrusionSet      = "intrusion-set"
	TypeMalware           = "malware"
	TypeTool              = "tool"
	TypeCourseOfAction    = "course-of-action"
	TypeCampaign          = "campaign"
	TypeDataComponent     = "x-mitre-data-component"
	TypeDataSource        = "x-mitre-data-source"
	TypeTactic            = "x-mitre-tactic"
	TypeMatrix            = "x-mitre-matrix"
	TypeCollection        = "x-mitre-collection"
	TypeIdentity          = "identity"
	TypeMarkingDefinition = "marking-definition"
	TypeRelationship      = "relationship"
	TypeBundle            = "bundle"
)

// Relationship types used by ATT&CK.
const (
	RelUses           = "uses"
	RelMitigates      = "mitigates"
	RelDetects        = "detects"
	RelSubtechniqueOf = "subtechnique-of"
	RelAttributedTo   = "attributed-to"
	RelRevokedBy      = "revoked-by"
	RelTargets        = "targets"
)

// Vocabulary is the set of object and relationship types a resolver accepts.
// A zero Vocabulary accepts nothing; use DefaultVocabulary.
type Vocabulary struct {
	objectTypes       map[string]struct{}
	relationshipTypes map[string]struct{}
}

// DefaultVocabulary returns the ATT&CK object and relationship types.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		objectTypes:       make(map[string]struct{}),
		relationshipTypes: make(map[string]struct{}),
	}
	v.AddObjectTypes(
		TypeAttackPattern, TypeIntrusionSet, TypeMalware, TypeTool,
		TypeCourseOfAction, TypeCampaign, TypeDataComponent, TypeDataSource,
		TypeTactic, TypeMatrix, TypeCollection, TypeIdentity, TypeMarkingDefinition,
	)
	v.AddRelationshipTypes(
		RelUses, RelMitigates, RelDetects, RelSubtechniqueOf,
		RelAttributedTo, RelRevokedBy, RelTargets,
	)
	return v
}

// AddObjectTypes registers additional object types.
func (v *Vocabulary) AddObjectTypes(types ...string) *Vocabulary {
	if v.objectTypes == nil {
		v.objectTypes = make(map[string]struct{})
	}
	for _, t := range types {
		v.objectTypes[t] = struct{}{}
	}
	return v
}

// AddRelationshipTypes registers additional relationship types.
func (v *Vocabulary) AddRelationshipTypes(types ...string) *Vocabulary {
	if v.relationshipTypes == nil {
		v.relationshipTypes = make(map[string]struct{})
	}
	for _, t := range types {
		v.relationshipTypes[t] = struct{}{}
	}
	return v
}

// IsObjectType reports whether t is a known object type.
func (v *Vocabulary) IsObjectType(t string) bool {
	_, ok := v.objectTypes[t]
	return ok
}

// IsRelationshipType reports whether t is a known relationship type.
func (v *Vocabulary) IsRelationshipType(t string) bool {
	_, ok := v.relationshipTypes[t]
	return ok
}

// ObjectTypes returns the known object types in sorted order.
func (v *Vocabulary) ObjectTypes() []string {
	return sortedKeys(v.objectTypes)
}

// RelationshipTypes returns the known relationship types in sorted order.
func (v *Vocabulary) RelationshipTypes() []string {
	return sortedKeys(v.relationshipTypes)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
