package stix

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Object is a node in the ATT&CK knowledge graph: a technique, group,
// software, mitigation, data component, matrix, or a relationship edge.
//
// Commonly addressed STIX properties are decoded into typed fields. The full
// decoded document is kept in Attributes so arbitrary properties (aliases,
// platforms, kill chain phases) stay queryable.
type Object struct {
	// ID is the STIX identifier, "<type>--<uuid>".
	ID string `json:"id"`

	// Type is the STIX object type (e.g., "attack-pattern", "intrusion-set").
	Type string `json:"type"`

	// Name is the display name. Empty for relationships.
	Name string `json:"name,omitempty"`

	// Description is the free text description.
	Description string `json:"description,omitempty"`

	// Created is the creation timestamp.
	Created time.Time `json:"created"`

	// Modified is the last modification timestamp.
	Modified time.Time `json:"modified"`

	// Revoked marks an object replaced by another one.
	Revoked bool `json:"revoked,omitempty"`

	// Deprecated marks an object withdrawn from active use (x_mitre_deprecated).
	Deprecated bool `json:"x_mitre_deprecated,omitempty"`

	// RelationshipType is set on relationship objects only (e.g., "uses").
	RelationshipType string `json:"relationship_type,omitempty"`

	// SourceRef is the id of the originating object of a relationship.
	SourceRef string `json:"source_ref,omitempty"`

	// TargetRef is the id of the destination object of a relationship.
	TargetRef string `json:"target_ref,omitempty"`

	// Attributes holds every decoded property, typed fields included.
	Attributes map[string]any `json:"-"`
}

// NewObject creates an Object of the given type with a fresh STIX id.
// The timestamps are set to the current time.
func NewObject(objType string) *Object {
	now := time.Now().UTC()
	return &Object{
		ID:         NewID(objType),
		Type:       objType,
		Created:    now,
		Modified:   now,
		Attributes: make(map[string]any),
	}
}

// NewRelationship creates a relationship object linking sourceRef to targetRef.
func NewRelationship(sourceRef, relType, targetRef string) *Object {
	obj := NewObject(TypeRelationship)
	obj.RelationshipType = relType
	obj.SourceRef = sourceRef
	obj.TargetRef = targetRef
	return obj
}

// WithID sets the object ID and returns the object for method chaining.
func (o *Object) WithID(id string) *Object {
	o.ID = id
	return o
}

// WithName sets the object name and returns the object for method chaining.
func (o *Object) WithName(name string) *Object {
	o.Name = name
	return o
}

// WithDescription sets the description and returns the object for method chaining.
func (o *Object) WithDescription(desc string) *Object {
	o.Description = desc
	return o
}

// WithAttribute sets a single attribute and returns the object for method chaining.
// If the Attributes map is nil, it will be initialized.
func (o *Object) WithAttribute(key string, value any) *Object {
	if o.Attributes == nil {
		o.Attributes = make(map[string]any)
	}
	o.Attributes[key] = value
	return o
}

// WithRevoked sets the revoked flag and returns the object for method chaining.
func (o *Object) WithRevoked(revoked bool) *Object {
	o.Revoked = revoked
	return o
}

// WithDeprecated sets the deprecated flag and returns the object for method chaining.
func (o *Object) WithDeprecated(deprecated bool) *Object {
	o.Deprecated = deprecated
	return o
}

// WithTimestamps sets created and modified and returns the object for method chaining.
func (o *Object) WithTimestamps(created, modified time.Time) *Object {
	o.Created = created
	o.Modified = modified
	return o
}

// Live reports whether the object is neither revoked nor deprecated.
func (o *Object) Live() bool {
	return !o.Revoked && !o.Deprecated
}

// IsRelationship reports whether the object is a relationship edge.
func (o *Object) IsRelationship() bool {
	return o.Type == TypeRelationship
}

// AsRelationship returns the relationship view of the object.
// The second result is false when the object is not a relationship.
func (o *Object) AsRelationship() (*Relationship, bool) {
	if !o.IsRelationship() {
		return nil, false
	}
	return &Relationship{
		ID:               o.ID,
		RelationshipType: o.RelationshipType,
		SourceRef:        o.SourceRef,
		TargetRef:        o.TargetRef,
		Description:      o.Description,
		Created:          o.Created,
		Modified:         o.Modified,
	}, true
}

// Validate checks that the object has the required fields set.
func (o *Object) Validate() error {
	if o.Type == "" {
		return errors.New("object type is required")
	}
	if o.ID == "" {
		return errors.New("object id is required")
	}
	if TypeOf(o.ID) != o.Type {
		return fmt.Errorf("object id %q does not match type %q", o.ID, o.Type)
	}
	if o.IsRelationship() {
		if o.RelationshipType == "" {
			return fmt.Errorf("relationship %s: relationship_type cannot be empty", o.ID)
		}
		if o.SourceRef == "" || o.TargetRef == "" {
			return fmt.Errorf("relationship %s: source_ref and target_ref are required", o.ID)
		}
	}
	return nil
}

// Value returns the property addressed by a dotted path.
//
// Typed fields are consulted first. Other paths walk Attributes; when a path
// segment crosses a list, the remaining path is applied to every element and
// the collected values are returned as a []any.
func (o *Object) Value(path string) (any, bool) {
	switch path {
	case "id":
		return o.ID, true
	case "type":
		return o.Type, true
	case "name":
		return o.Name, o.Name != ""
	case "description":
		return o.Description, o.Description != ""
	case "created":
		return o.Created, !o.Created.IsZero()
	case "modified":
		return o.Modified, !o.Modified.IsZero()
	case "revoked":
		return o.Revoked, true
	case "x_mitre_deprecated":
		return o.Deprecated, true
	case "relationship_type":
		return o.RelationshipType, o.IsRelationship()
	case "source_ref":
		return o.SourceRef, o.IsRelationship()
	case "target_ref":
		return o.TargetRef, o.IsRelationship()
	}
	if o.Attributes == nil {
		return nil, false
	}
	return walk(o.Attributes, strings.Split(path, "."))
}

func walk(v any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return v, true
	}
	switch node := v.(type) {
	case map[string]any:
		next, ok := node[segments[0]]
		if !ok {
			return nil, false
		}
		return walk(next, segments[1:])
	case []any:
		var out []any
		for _, elem := range node {
			if got, ok := walk(elem, segments); ok {
				if list, isList := got.([]any); isList {
					out = append(out, list...)
				} else {
					out = append(out, got)
				}
			}
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// UnmarshalJSON decodes a STIX document, resolving the lifecycle flags once
// at ingestion. Absent flags decode as false.
func (o *Object) UnmarshalJSON(data []byte) error {
	type plain Object
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode stix object: %w", err)
	}
	var attrs map[string]any
	if err := json.Unmarshal(data, &attrs); err != nil {
		return fmt.Errorf("decode stix attributes: %w", err)
	}
	*o = Object(p)
	o.Attributes = attrs
	return nil
}

// MarshalJSON encodes the object as a flat STIX document. Typed fields take
// precedence over entries of the same name in Attributes.
func (o *Object) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(o.Attributes)+8)
	for k, v := range o.Attributes {
		doc[k] = v
	}
	doc["id"] = o.ID
	doc["type"] = o.Type
	setString(doc, "name", o.Name)
	setString(doc, "description", o.Description)
	if !o.Created.IsZero() {
		doc["created"] = o.Created.Format(time.RFC3339Nano)
	}
	if !o.Modified.IsZero() {
		doc["modified"] = o.Modified.Format(time.RFC3339Nano)
	}
	if o.Revoked {
		doc["revoked"] = true
	} else {
		delete(doc, "revoked")
	}
	if o.Deprecated {
		doc["x_mitre_deprecated"] = true
	} else {
		delete(doc, "x_mitre_deprecated")
	}
	setString(doc, "relationship_type", o.RelationshipType)
	setString(doc, "source_ref", o.SourceRef)
	setString(doc, "target_ref", o.TargetRef)
	return json.Marshal(doc)
}

func setString(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}
