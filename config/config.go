// Package config provides loading and parsing of attackgraph.yaml configuration files.
// The configuration names the CTI source tree, the optional Redis backend,
// resolver behavior, and log verbosity.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/attackgraph/attack"
	"github.com/zero-day-ai/attackgraph/relate"
	"github.com/zero-day-ai/attackgraph/store"
	"github.com/zero-day-ai/attackgraph/store/redisstore"
)

// File names looked up when Load is given a directory.
const (
	FileName    = "attackgraph.yaml"
	AltFileName = "attackgraph.yml"
)

// ErrNoConfig is returned when no configuration file can be located.
var ErrNoConfig = errors.New("no configuration file found")

// Config represents an attackgraph.yaml configuration file.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Redis    *RedisConfig   `yaml:"redis,omitempty"`
	Resolver ResolverConfig `yaml:"resolver"`
	Log      LogConfig      `yaml:"log"`
}

// SourceConfig locates the CTI file tree.
type SourceConfig struct {
	// Path is the domain directory, e.g. "./cti/enterprise-attack".
	Path string `yaml:"path"`

	// Domain is the matrix domain: enterprise-attack, mobile-attack or ics-attack.
	// Default: enterprise-attack
	Domain string `yaml:"domain,omitempty"`

	// Pattern is the doublestar glob selecting documents under Path.
	// Default: "**/*.json"
	Pattern string `yaml:"pattern,omitempty"`
}

// RedisConfig enables the Redis-backed store.
type RedisConfig struct {
	URL       string `yaml:"url"`
	KeyPrefix string `yaml:"key_prefix,omitempty"`

	// Timeouts are Go duration strings (e.g., "5s").
	ConnectTimeout string `yaml:"connect_timeout,omitempty"`
	ReadTimeout    string `yaml:"read_timeout,omitempty"`
	WriteTimeout   string `yaml:"write_timeout,omitempty"`
}

// ResolverConfig tunes relationship resolution.
type ResolverConfig struct {
	// TypeMatch is "id_prefix" or "declared_type".
	// Default: id_prefix
	TypeMatch string `yaml:"type_match,omitempty"`
}

// LogConfig sets log verbosity.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level,omitempty"`
}

// Default returns a configuration reading ./cti/enterprise-attack.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Path:   filepath.Join("cti", string(attack.DomainEnterprise)),
			Domain: string(attack.DomainEnterprise),
		},
	}
}

// GetDomain returns the parsed matrix domain.
func (s SourceConfig) GetDomain() (attack.Domain, error) {
	return attack.ParseDomain(s.Domain)
}

// GetPattern returns the glob pattern or the default value.
func (s SourceConfig) GetPattern() string {
	if s.Pattern == "" {
		return store.DefaultPattern
	}
	return s.Pattern
}

// Options converts the section into redisstore options. Unparseable
// durations fall back to the redisstore defaults.
func (r *RedisConfig) Options() redisstore.Options {
	if r == nil {
		return redisstore.Options{}
	}
	return redisstore.Options{
		URL:            r.URL,
		KeyPrefix:      r.KeyPrefix,
		ConnectTimeout: parseDuration(r.ConnectTimeout),
		ReadTimeout:    parseDuration(r.ReadTimeout),
		WriteTimeout:   parseDuration(r.WriteTimeout),
	}
}

// GetTypeMatch returns the parsed endpoint type match mode.
func (r ResolverConfig) GetTypeMatch() (relate.TypeMatch, error) {
	m, ok := relate.ParseTypeMatch(r.TypeMatch)
	if !ok {
		return 0, fmt.Errorf("unknown resolver.type_match %q", r.TypeMatch)
	}
	return m, nil
}

// GetLevel returns the slog level. Unknown names yield slog.LevelInfo.
func (l LogConfig) GetLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Source.Path == "" && (c.Redis == nil || c.Redis.URL == "") {
		errs = append(errs, errors.New("source.path or redis.url is required"))
	}
	if _, err := c.Source.GetDomain(); err != nil {
		errs = append(errs, fmt.Errorf("source.domain: %w", err))
	}
	if _, err := c.Resolver.GetTypeMatch(); err != nil {
		errs = append(errs, err)
	}
	if c.Redis != nil {
		for name, v := range map[string]string{
			"connect_timeout": c.Redis.ConnectTimeout,
			"read_timeout":    c.Redis.ReadTimeout,
			"write_timeout":   c.Redis.WriteTimeout,
		} {
			if v == "" {
				continue
			}
			if _, err := time.ParseDuration(v); err != nil {
				errs = append(errs, fmt.Errorf("redis.%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Load reads and parses an attackgraph.yaml file from the given path.
// If the path is a directory, it looks for attackgraph.yaml or attackgraph.yml in that directory.
// Fields absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		configPath, err = lookup(path)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return config, nil
}

// LoadFromDir searches for attackgraph.yaml starting from the given directory
// and walking up to parent directories until found or root is reached.
func LoadFromDir(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		if path, err := lookup(absDir); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(absDir)
		if parent == absDir {
			return nil, fmt.Errorf("%w: no %s in %s or parent directories", ErrNoConfig, FileName, dir)
		}
		absDir = parent
	}
}

func lookup(dir string) (string, error) {
	for _, name := range []string{FileName, AltFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no %s or %s in %s", ErrNoConfig, FileName, AltFileName, dir)
}

func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
