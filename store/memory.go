package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/zero-day-ai/attackgraph/stix"
)

// MemoryStore is an in-memory Store. Objects are kept in insertion order and
// indexed by id and by type. It is safe for concurrent readers and writers.
type MemoryStore struct {
	mu      sync.RWMutex
	objects []*stix.Object
	byID    map[string]int
	byType  map[string][]int
}

// NewMemoryStore creates a MemoryStore holding objs.
func NewMemoryStore(objs ...*stix.Object) (*MemoryStore, error) {
	s := &MemoryStore{
		byID:   make(map[string]int),
		byType: make(map[string][]int),
	}
	if err := s.Add(objs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add inserts objects. An object whose id is already present replaces the
// stored one in place, keeping its original position.
func (s *MemoryStore) Add(objs ...*stix.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if err := obj.Validate(); err != nil {
			return fmt.Errorf("add object: %w", err)
		}
		if idx, ok := s.byID[obj.ID]; ok {
			s.objects[idx] = obj
			continue
		}
		idx := len(s.objects)
		s.objects = append(s.objects, obj)
		s.byID[obj.ID] = idx
		s.byType[obj.Type] = append(s.byType[obj.Type], idx)
	}
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Query returns all objects matching filters in insertion order.
func (s *MemoryStore) Query(ctx context.Context, filters ...Filter) ([]*stix.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*stix.Object
	visit := func(obj *stix.Object) error {
		ok, err := Match(obj, filters...)
		if err != nil {
			return QueryFailed("MemoryStore.Query", err)
		}
		if ok {
			out = append(out, obj)
		}
		return nil
	}

	if objType, ok := typeFromFilters(filters); ok {
		for _, idx := range s.byType[objType] {
			if err := visit(s.objects[idx]); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	for _, obj := range s.objects {
		if err := visit(obj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Get returns the object with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*stix.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := stix.ParseID(id); err != nil {
		return nil, InvalidID("MemoryStore.Get", id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, NotFound("MemoryStore.Get", id)
	}
	return s.objects[idx], nil
}

var _ Store = (*MemoryStore)(nil)
