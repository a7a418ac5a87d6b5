package stix

import (
	"encoding/json"
	"fmt"
)

// Bundle is a STIX 2.x bundle: a container document for a list of objects.
type Bundle struct {
	Type    string    `json:"type"`
	ID      string    `json:"id"`
	Objects []*Object `json:"objects"`
}

// Decode parses a JSON document that is either a bundle or a single object
// and returns the contained objects in document order.
func Decode(data []byte) ([]*Object, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode stix document: %w", err)
	}

	if head.Type == TypeBundle {
		var b Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode stix bundle: %w", err)
		}
		return b.Objects, nil
	}

	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return []*Object{&obj}, nil
}
