package relate

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

func group(id, name string) *stix.Object {
	return stix.NewObject(stix.TypeIntrusionSet).WithID(id).WithName(name)
}

func malware(id, name string) *stix.Object {
	return stix.NewObject(stix.TypeMalware).WithID(id).WithName(name)
}

func tool(id, name string) *stix.Object {
	return stix.NewObject(stix.TypeTool).WithID(id).WithName(name)
}

func technique(id, name string) *stix.Object {
	return stix.NewObject(stix.TypeAttackPattern).WithID(id).WithName(name)
}

func rel(id, source, relType, target string) *stix.Object {
	return stix.NewRelationship(source, relType, target).WithID(id)
}

func newStore(t *testing.T, objs ...*stix.Object) *store.MemoryStore {
	t.Helper()
	s, err := store.NewMemoryStore(objs...)
	require.NoError(t, err)
	return s
}

// softwareScenario: G1 uses M1 then T1, both live.
func softwareScenario() []*stix.Object {
	return []*stix.Object{
		group("intrusion-set--G1", "APT29"),
		malware("malware--M1", "SUNBURST"),
		tool("tool--T1", "Mimikatz"),
		rel("relationship--r1", "intrusion-set--G1", stix.RelUses, "malware--M1"),
		rel("relationship--r2", "intrusion-set--G1", stix.RelUses, "tool--T1"),
	}
}

// fakeStore wraps a Store and can inject errors per method.
type fakeStore struct {
	inner    store.Store
	queryErr error
	getErr   error
	queries  atomic.Int32
	gets     atomic.Int32
}

func (f *fakeStore) Query(ctx context.Context, filters ...store.Filter) ([]*stix.Object, error) {
	f.queries.Add(1)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.inner.Query(ctx, filters...)
}

func (f *fakeStore) Get(ctx context.Context, id string) (*stix.Object, error) {
	f.gets.Add(1)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.inner.Get(ctx, id)
}

func relatedIDs(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Object.ID)
	}
	return out
}
