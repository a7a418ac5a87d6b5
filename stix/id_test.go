package stix

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("intrusion-set--899ce53f-13a0-479b-a0e4-67d46e241542")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Type != TypeIntrusionSet {
		t.Errorf("expected Type to be %q, got %q", TypeIntrusionSet, id.Type)
	}
	if _, err := id.UUID(); err != nil {
		t.Errorf("expected uuid suffix to parse, got %v", err)
	}

	for _, bad := range []string{"", "malware", "malware--", "--abc", "malware-abc"} {
		if _, err := ParseID(bad); !errors.Is(err, ErrInvalidID) {
			t.Errorf("ParseID(%q): expected ErrInvalidID, got %v", bad, err)
		}
	}
}

func TestIDUUIDRejectsNonUUIDSuffix(t *testing.T) {
	id, err := ParseID("malware--M1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := id.UUID(); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestNewID(t *testing.T) {
	raw := NewID(TypeTool)
	id, err := ParseID(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Type != TypeTool {
		t.Errorf("expected Type %q, got %q", TypeTool, id.Type)
	}
	if _, err := id.UUID(); err != nil {
		t.Errorf("expected minted id to carry a uuid: %v", err)
	}
	if id.String() != raw {
		t.Errorf("expected String() to round trip, got %q", id.String())
	}
	if NewID(TypeTool) == raw {
		t.Error("expected distinct ids")
	}
}

func TestTypeOf(t *testing.T) {
	tests := map[string]string{
		"x-mitre-data-component--abc": TypeDataComponent,
		"tool--abc":                   TypeTool,
		"garbage":                     "",
	}
	for in, want := range tests {
		if got := TypeOf(in); got != want {
			t.Errorf("TypeOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	if !v.IsObjectType(TypeDataComponent) {
		t.Error("expected data component to be known")
	}
	if !v.IsRelationshipType(RelSubtechniqueOf) {
		t.Error("expected subtechnique-of to be known")
	}
	if v.IsRelationshipType("befriends") {
		t.Error("expected unknown relationship type to be rejected")
	}

	v.AddRelationshipTypes("befriends")
	if !v.IsRelationshipType("befriends") {
		t.Error("expected added relationship type to be known")
	}

	var zero Vocabulary
	if zero.IsObjectType(TypeTool) {
		t.Error("expected zero vocabulary to accept nothing")
	}
	zero.AddObjectTypes(TypeTool)
	if got := zero.ObjectTypes(); len(got) != 1 || got[0] != TypeTool {
		t.Errorf("unexpected object types: %v", got)
	}
}
