package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zero-day-ai/attackgraph/stix"
)

// DefaultPattern matches every JSON document below the root, which covers
// both the per-object layout of the mitre/cti repository
// (enterprise-attack/<type>/<id>.json) and single-bundle files.
const DefaultPattern = "**/*.json"

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	pattern string
	logger  *slog.Logger
	strict  bool
}

// WithPattern sets the doublestar glob selecting documents to load.
func WithPattern(pattern string) LoadOption {
	return func(c *loadConfig) {
		c.pattern = pattern
	}
}

// WithLoadLogger sets the logger used to report skipped documents.
func WithLoadLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// WithStrict makes Load fail on the first undecodable document or invalid
// object instead of logging and skipping it.
func WithStrict(strict bool) LoadOption {
	return func(c *loadConfig) {
		c.strict = strict
	}
}

// Load decodes every document in fsys matching the configured pattern and
// hands the objects of each document to sink, in lexical path order.
// Returns the number of objects delivered.
func Load(ctx context.Context, fsys fs.FS, sink func([]*stix.Object) error, opts ...LoadOption) (int, error) {
	cfg := loadConfig{pattern: DefaultPattern}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	paths, err := doublestar.Glob(fsys, cfg.pattern)
	if err != nil {
		return 0, Unavailable("store.Load", fmt.Errorf("glob %q: %w", cfg.pattern, err))
	}
	sort.Strings(paths)

	total := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return total, Unavailable("store.Load", fmt.Errorf("read %s: %w", p, err))
		}

		objs, err := stix.Decode(data)
		if err != nil {
			if cfg.strict {
				return total, QueryFailed("store.Load", fmt.Errorf("%s: %w", p, err))
			}
			cfg.logger.Warn("skipping undecodable stix document",
				"path", p,
				"error", err)
			continue
		}

		objs, err = cfg.valid(p, objs)
		if err != nil {
			return total, err
		}
		if len(objs) == 0 {
			continue
		}

		if err := sink(objs); err != nil {
			return total, fmt.Errorf("load %s: %w", p, err)
		}
		total += len(objs)
	}

	cfg.logger.Debug("loaded stix documents",
		"documents", len(paths),
		"objects", total)
	return total, nil
}

// valid drops nil and invalid objects from a decoded document. In strict
// mode an invalid object fails the load instead.
func (c *loadConfig) valid(path string, objs []*stix.Object) ([]*stix.Object, error) {
	out := objs[:0]
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if err := obj.Validate(); err != nil {
			if c.strict {
				return nil, QueryFailed("store.Load", fmt.Errorf("%s: %w", path, err))
			}
			c.logger.Warn("skipping invalid stix object",
				"path", path,
				"id", obj.ID,
				"error", err)
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}

// LoadDir loads a CTI directory tree (e.g., ./cti/enterprise-attack) into a
// new MemoryStore.
func LoadDir(ctx context.Context, dir string, opts ...LoadOption) (*MemoryStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, Unavailable("store.LoadDir", err)
	}
	if !info.IsDir() {
		return nil, Unavailable("store.LoadDir", errors.New(dir+" is not a directory"))
	}

	s, _ := NewMemoryStore()
	if _, err := Load(ctx, os.DirFS(dir), func(objs []*stix.Object) error {
		return s.Add(objs...)
	}, opts...); err != nil {
		return nil, err
	}
	return s, nil
}
