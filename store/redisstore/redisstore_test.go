package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

// setupTestStore creates a miniredis instance and returns a connected Store.
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := New(Options{
		URL:            fmt.Sprintf("redis://%s", mr.Addr()),
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
		mr.Close()
	})

	return s, mr
}

func fixtures() []*stix.Object {
	return []*stix.Object{
		stix.NewObject(stix.TypeIntrusionSet).WithID("intrusion-set--g1").WithName("APT29").
			WithAttribute("aliases", []any{"APT29", "Cozy Bear"}),
		stix.NewObject(stix.TypeMalware).WithID("malware--m1").WithName("SUNBURST").WithRevoked(true),
		stix.NewObject(stix.TypeTool).WithID("tool--t1").WithName("Mimikatz"),
		stix.NewRelationship("intrusion-set--g1", stix.RelUses, "malware--m1").WithID("relationship--r1"),
		stix.NewRelationship("intrusion-set--g1", stix.RelUses, "tool--t1").WithID("relationship--r2"),
	}
}

func TestNew(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := New(Options{URL: fmt.Sprintf("redis://%s", mr.Addr())})
		require.NoError(t, err)
		defer s.Close()
		assert.Equal(t, DefaultKeyPrefix, s.prefix)
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := New(Options{
			URL:            "redis://localhost:99999",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := New(Options{URL: "invalid://url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestPutAndQuery(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)

	require.NoError(t, s.Put(ctx, fixtures()...))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	rels, err := s.Query(ctx,
		store.TypeIs(stix.TypeRelationship),
		store.Eq("relationship_type", stix.RelUses),
	)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, "relationship--r1", rels[0].ID)
	assert.Equal(t, "malware--m1", rels[0].TargetRef)
	assert.Equal(t, "relationship--r2", rels[1].ID)

	groups, err := s.Query(ctx, store.TypeIs(stix.TypeIntrusionSet), store.Eq("aliases", "Cozy Bear"))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "APT29", groups[0].Name)

	all, err := s.Query(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestPutOverwriteKeepsPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)

	require.NoError(t, s.Put(ctx, fixtures()...))
	require.NoError(t, s.Put(ctx, stix.NewObject(stix.TypeMalware).WithID("malware--m1").WithName("Solorigate")))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	all, err := s.Query(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "Solorigate", all[1].Name)
	assert.False(t, all[1].Revoked)
}

func TestPutSkipsNilObjects(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)

	require.NoError(t, s.Put(ctx, nil))

	objs := fixtures()
	withNil := []*stix.Object{objs[0], nil, objs[2]}
	require.NoError(t, s.Put(ctx, withNil...))
	assert.Nil(t, withNil[1], "caller slice is left untouched")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := s.Query(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "intrusion-set--g1", all[0].ID)
	assert.Equal(t, "tool--t1", all[1].ID)
}

func TestPutClearedFlagsStayCleared(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)

	decoded, err := stix.Decode([]byte(`{"type":"malware","id":"malware--m1","name":"SUNBURST","revoked":true,"x_mitre_deprecated":true}`))
	require.NoError(t, err)
	obj := decoded[0]
	require.True(t, obj.Revoked)

	require.NoError(t, s.Put(ctx, obj.WithRevoked(false).WithDeprecated(false)))

	got, err := s.Get(ctx, "malware--m1")
	require.NoError(t, err)
	assert.False(t, got.Revoked)
	assert.False(t, got.Deprecated)
	assert.True(t, got.Live())
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s, _ := setupTestStore(t)
	require.NoError(t, s.Put(ctx, fixtures()...))

	obj, err := s.Get(ctx, "malware--m1")
	require.NoError(t, err)
	assert.Equal(t, "SUNBURST", obj.Name)
	assert.True(t, obj.Revoked)

	_, err = s.Get(ctx, "malware--missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(ctx, "bogus")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func TestKeyPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	a, err := New(Options{URL: fmt.Sprintf("redis://%s", mr.Addr()), KeyPrefix: "enterprise"})
	require.NoError(t, err)
	defer a.Close()
	b, err := New(Options{URL: fmt.Sprintf("redis://%s", mr.Addr()), KeyPrefix: "mobile"})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Put(ctx, fixtures()...))

	got, err := b.Query(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, mr.Exists("enterprise:obj:tool--t1"))
}

func TestUnavailableAfterShutdown(t *testing.T) {
	ctx := context.Background()
	s, mr := setupTestStore(t)
	require.NoError(t, s.Put(ctx, fixtures()...))

	mr.Close()

	_, err := s.Query(ctx, store.TypeIs(stix.TypeTool))
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	_, err = s.Get(ctx, "tool--t1")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestQueryCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s, mr := setupTestStore(t)
	require.NoError(t, s.Put(ctx, fixtures()...))

	require.NoError(t, mr.Set("stix:obj:tool--t1", "{not json"))

	_, err := s.Query(ctx, store.TypeIs(stix.TypeTool))
	assert.ErrorIs(t, err, store.ErrQueryFailed)
}
