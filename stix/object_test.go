package stix

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

const techniqueDoc = `{
	"type": "attack-pattern",
	"id": "attack-pattern--0a3ead4e-6d47-4ccb-854c-a6a4f9d96b22",
	"created": "2020-02-11T18:23:26.059Z",
	"modified": "2023-03-30T21:01:40.896Z",
	"name": "Credentials In Files",
	"description": "Adversaries may search local file systems for insecurely stored credentials.",
	"x_mitre_is_subtechnique": true,
	"x_mitre_platforms": ["Linux", "macOS", "Windows"],
	"kill_chain_phases": [
		{"kill_chain_name": "mitre-attack", "phase_name": "credential-access"}
	]
}`

func TestObjectUnmarshal(t *testing.T) {
	var obj Object
	if err := json.Unmarshal([]byte(techniqueDoc), &obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj.Type != TypeAttackPattern {
		t.Errorf("expected Type to be %q, got %q", TypeAttackPattern, obj.Type)
	}
	if obj.Name != "Credentials In Files" {
		t.Errorf("expected Name to be 'Credentials In Files', got %q", obj.Name)
	}
	if obj.Revoked || obj.Deprecated {
		t.Error("expected absent lifecycle flags to decode as false")
	}
	if !obj.Live() {
		t.Error("expected object to be live")
	}
	want := time.Date(2020, 2, 11, 18, 23, 26, 59000000, time.UTC)
	if !obj.Created.Equal(want) {
		t.Errorf("expected Created to be %v, got %v", want, obj.Created)
	}
	if obj.Attributes["x_mitre_is_subtechnique"] != true {
		t.Errorf("expected raw attribute to be kept, got %v", obj.Attributes["x_mitre_is_subtechnique"])
	}
}

func TestObjectUnmarshalLifecycleFlags(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		revoked    bool
		deprecated bool
	}{
		{
			name:    "revoked",
			doc:     `{"type":"malware","id":"malware--1","revoked":true}`,
			revoked: true,
		},
		{
			name:       "deprecated",
			doc:        `{"type":"malware","id":"malware--1","x_mitre_deprecated":true}`,
			deprecated: true,
		},
		{
			name: "explicit false",
			doc:  `{"type":"malware","id":"malware--1","revoked":false,"x_mitre_deprecated":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var obj Object
			if err := json.Unmarshal([]byte(tt.doc), &obj); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if obj.Revoked != tt.revoked {
				t.Errorf("expected Revoked %v, got %v", tt.revoked, obj.Revoked)
			}
			if obj.Deprecated != tt.deprecated {
				t.Errorf("expected Deprecated %v, got %v", tt.deprecated, obj.Deprecated)
			}
			if obj.Live() == (tt.revoked || tt.deprecated) {
				t.Errorf("Live() disagrees with flags")
			}
		})
	}
}

func TestObjectValue(t *testing.T) {
	var obj Object
	if err := json.Unmarshal([]byte(techniqueDoc), &obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	platforms, ok := obj.Value("x_mitre_platforms")
	if !ok {
		t.Fatal("expected x_mitre_platforms to be present")
	}
	if list, _ := platforms.([]any); len(list) != 3 {
		t.Errorf("expected 3 platforms, got %v", platforms)
	}

	phases, ok := obj.Value("kill_chain_phases.phase_name")
	if !ok {
		t.Fatal("expected kill_chain_phases.phase_name to be present")
	}
	list, _ := phases.([]any)
	if len(list) != 1 || list[0] != "credential-access" {
		t.Errorf("expected [credential-access], got %v", phases)
	}

	if _, ok := obj.Value("aliases"); ok {
		t.Error("expected missing attribute to report false")
	}
	if _, ok := obj.Value("source_ref"); ok {
		t.Error("expected source_ref to be absent on a non-relationship")
	}
}

func TestObjectMarshalRoundTrip(t *testing.T) {
	rel := NewRelationship("intrusion-set--g1", RelUses, "malware--m1").
		WithDescription("G1 has used M1.").
		WithRevoked(true)

	data, err := json.Marshal(rel)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded Object
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.ID != rel.ID || decoded.RelationshipType != RelUses {
		t.Errorf("unexpected decoded relationship: %+v", decoded)
	}
	if decoded.SourceRef != "intrusion-set--g1" || decoded.TargetRef != "malware--m1" {
		t.Errorf("unexpected endpoints: %s -> %s", decoded.SourceRef, decoded.TargetRef)
	}
	if !decoded.Revoked {
		t.Error("expected Revoked to survive encoding")
	}
	if !decoded.Created.Equal(rel.Created) {
		t.Errorf("expected Created %v, got %v", rel.Created, decoded.Created)
	}
}

func TestObjectMarshalClearedFlags(t *testing.T) {
	var obj Object
	if err := json.Unmarshal([]byte(`{"type":"malware","id":"malware--m1","revoked":true,"x_mitre_deprecated":true}`), &obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj.WithRevoked(false).WithDeprecated(false)

	data, err := json.Marshal(&obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "revoked") || strings.Contains(string(data), "x_mitre_deprecated") {
		t.Errorf("cleared flags still encoded: %s", data)
	}

	var decoded Object
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.Live() {
		t.Error("expected object to decode as live")
	}
}

func TestAsRelationship(t *testing.T) {
	obj := NewRelationship("course-of-action--c1", RelMitigates, "attack-pattern--t1")
	rel, ok := obj.AsRelationship()
	if !ok {
		t.Fatal("expected relationship view")
	}
	if rel.Other("course-of-action--c1") != "attack-pattern--t1" {
		t.Errorf("expected Other to return target, got %q", rel.Other("course-of-action--c1"))
	}
	if rel.Other("attack-pattern--t1") != "course-of-action--c1" {
		t.Errorf("expected Other to return source")
	}
	if rel.Other("tool--x") != "" {
		t.Error("expected empty Other for unrelated id")
	}

	if _, ok := NewObject(TypeTool).AsRelationship(); ok {
		t.Error("expected non-relationship to have no relationship view")
	}
}

func TestObjectValidate(t *testing.T) {
	tests := []struct {
		name     string
		obj      *Object
		errorMsg string
	}{
		{name: "valid object", obj: NewObject(TypeTool)},
		{name: "valid relationship", obj: NewRelationship("tool--a", RelUses, "attack-pattern--b")},
		{name: "missing type", obj: &Object{ID: "tool--a"}, errorMsg: "type is required"},
		{name: "missing id", obj: &Object{Type: TypeTool}, errorMsg: "id is required"},
		{name: "type mismatch", obj: &Object{ID: "malware--a", Type: TypeTool}, errorMsg: "does not match"},
		{
			name:     "relationship without endpoints",
			obj:      &Object{ID: "relationship--a", Type: TypeRelationship, RelationshipType: RelUses},
			errorMsg: "source_ref and target_ref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obj.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errorMsg, err)
			}
		})
	}
}

func TestDecodeBundle(t *testing.T) {
	doc := `{
		"type": "bundle",
		"id": "bundle--1",
		"objects": [
			{"type": "intrusion-set", "id": "intrusion-set--g1", "name": "APT29", "aliases": ["APT29", "Cozy Bear"]},
			{"type": "relationship", "id": "relationship--r1", "relationship_type": "uses",
			 "source_ref": "intrusion-set--g1", "target_ref": "malware--m1"}
		]
	}`

	objs, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objs))
	}
	if objs[0].Name != "APT29" {
		t.Errorf("expected first object to be APT29, got %q", objs[0].Name)
	}
	if !objs[1].IsRelationship() || objs[1].TargetRef != "malware--m1" {
		t.Errorf("unexpected second object: %+v", objs[1])
	}
}

func TestDecodeSingleObject(t *testing.T) {
	objs, err := Decode([]byte(techniqueDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(objs) != 1 || objs[0].Type != TypeAttackPattern {
		t.Errorf("expected a single attack-pattern, got %+v", objs)
	}

	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("expected error for malformed document")
	}
}
