// Package redisstore implements store.Store on top of Redis, so a CTI data
// set loaded once can be shared by many resolver processes.
//
// Layout, under a configurable key prefix (default "stix"):
//
//	<prefix>:obj:<id>     JSON document of the object
//	<prefix>:ids          list of every id, in insertion order
//	<prefix>:type:<type>  list of ids of one type, in insertion order
package redisstore

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

// DefaultKeyPrefix is used when Options.KeyPrefix is empty.
const DefaultKeyPrefix = "stix"

// mgetBatch bounds the number of keys fetched per MGET.
const mgetBatch = 500

// Options configures the Redis connection.
type Options struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string

	// KeyPrefix namespaces all keys written by the store.
	KeyPrefix string

	// TLS configuration for secure connections
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations
	WriteTimeout time.Duration
}

// Store implements store.Store using go-redis/v9.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and returns a Store.
// Connection failures are reported as store.ErrStoreUnavailable.
func New(opts Options) (*Store, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, store.Unavailable("redisstore.New", fmt.Errorf("failed to connect to Redis: %w", err))
	}

	return &Store{client: client, prefix: opts.KeyPrefix}, nil
}

func (s *Store) objKey(id string) string       { return s.prefix + ":obj:" + id }
func (s *Store) idsKey() string                { return s.prefix + ":ids" }
func (s *Store) typeKey(objType string) string { return s.prefix + ":type:" + objType }

// Put writes objects. An id already present is overwritten and keeps its
// original position in the index lists. Nil objects are skipped.
func (s *Store) Put(ctx context.Context, objs ...*stix.Object) error {
	objs = slices.DeleteFunc(slices.Clone(objs), func(obj *stix.Object) bool { return obj == nil })
	if len(objs) == 0 {
		return nil
	}

	payloads := make([][]byte, len(objs))
	for i, obj := range objs {
		if err := obj.Validate(); err != nil {
			return fmt.Errorf("put object: %w", err)
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to marshal object %s: %w", obj.ID, err)
		}
		payloads[i] = data
	}

	exists := make([]*redis.IntCmd, len(objs))
	if _, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, obj := range objs {
			exists[i] = p.Exists(ctx, s.objKey(obj.ID))
		}
		return nil
	}); err != nil {
		return store.Unavailable("redisstore.Put", err)
	}

	seen := make(map[string]bool, len(objs))
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for i, obj := range objs {
			p.Set(ctx, s.objKey(obj.ID), payloads[i], 0)
			if exists[i].Val() > 0 || seen[obj.ID] {
				continue
			}
			seen[obj.ID] = true
			p.RPush(ctx, s.idsKey(), obj.ID)
			p.RPush(ctx, s.typeKey(obj.Type), obj.ID)
		}
		return nil
	})
	if err != nil {
		return store.Unavailable("redisstore.Put", err)
	}
	return nil
}

// Query returns every stored object matching filters, in insertion order.
// A "type =" filter narrows the scan to that type's index list.
func (s *Store) Query(ctx context.Context, filters ...store.Filter) ([]*stix.Object, error) {
	indexKey := s.idsKey()
	for _, f := range filters {
		if f.Field == "type" && f.Op == store.OpEqual {
			if t, ok := f.Value.(string); ok {
				indexKey = s.typeKey(t)
				break
			}
		}
	}

	ids, err := s.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, store.Unavailable("redisstore.Query", err)
	}

	var out []*stix.Object
	for start := 0; start < len(ids); start += mgetBatch {
		end := min(start+mgetBatch, len(ids))

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, s.objKey(id))
		}

		vals, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, store.Unavailable("redisstore.Query", err)
		}

		for i, v := range vals {
			raw, ok := v.(string)
			if !ok {
				// removed between LRANGE and MGET
				continue
			}
			var obj stix.Object
			if err := json.Unmarshal([]byte(raw), &obj); err != nil {
				return nil, store.QueryFailed("redisstore.Query", fmt.Errorf("decode %s: %w", keys[i], err))
			}
			matched, err := store.Match(&obj, filters...)
			if err != nil {
				return nil, store.QueryFailed("redisstore.Query", err)
			}
			if matched {
				out = append(out, &obj)
			}
		}
	}
	return out, nil
}

// Get returns the object with the given id.
func (s *Store) Get(ctx context.Context, id string) (*stix.Object, error) {
	if _, err := stix.ParseID(id); err != nil {
		return nil, store.InvalidID("redisstore.Get", id, err)
	}

	raw, err := s.client.Get(ctx, s.objKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.NotFound("redisstore.Get", id)
		}
		return nil, store.Unavailable("redisstore.Get", err)
	}

	var obj stix.Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, store.QueryFailed("redisstore.Get", fmt.Errorf("decode %s: %w", id, err))
	}
	return &obj, nil
}

// Count returns the number of stored objects.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.idsKey()).Result()
	if err != nil {
		return 0, store.Unavailable("redisstore.Count", err)
	}
	return n, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
