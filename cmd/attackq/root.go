package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/attackgraph/attack"
	"github.com/zero-day-ai/attackgraph/config"
	"github.com/zero-day-ai/attackgraph/relate"
	"github.com/zero-day-ai/attackgraph/store"
	"github.com/zero-day-ai/attackgraph/store/redisstore"
)

// app carries state shared by subcommands. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	configPath string
	sourcePath string
	redisURL   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "attackq",
		Short:         "Query relationships in a MITRE ATT&CK knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file or directory (default: search for attackgraph.yaml)")
	root.PersistentFlags().StringVar(&a.sourcePath, "source", "", "CTI domain directory, overrides source.path")
	root.PersistentFlags().StringVar(&a.redisURL, "redis", "", "Redis URL, overrides redis.url")

	root.AddCommand(
		newQueriesCmd(),
		newRunCmd(a),
		newParentCmd(a),
		newAliasesCmd(a),
		newLoadCmd(a),
		newCheckCmd(a),
	)
	return root
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.sourcePath != "" {
		cfg.Source.Path = a.sourcePath
	}
	if a.redisURL != "" {
		if cfg.Redis == nil {
			cfg.Redis = &config.RedisConfig{}
		}
		cfg.Redis.URL = a.redisURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: cfg.Log.GetLevel(),
	}))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	cfg, err := config.LoadFromDir(".")
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), nil
	}
	return cfg, err
}

func (a *app) useRedis() bool {
	return a.cfg.Redis != nil && a.cfg.Redis.URL != ""
}

// openStore returns the configured backend: Redis when a URL is set,
// otherwise the CTI tree loaded into memory.
func (a *app) openStore(ctx context.Context) (store.Store, func() error, error) {
	if a.useRedis() {
		rs, err := redisstore.New(a.cfg.Redis.Options())
		if err != nil {
			return nil, nil, err
		}
		return rs, rs.Close, nil
	}

	ms, err := store.LoadDir(ctx, a.cfg.Source.Path,
		store.WithPattern(a.cfg.Source.GetPattern()),
		store.WithLoadLogger(a.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("loaded knowledge base",
		"path", a.cfg.Source.Path,
		"objects", ms.Len())
	return ms, func() error { return nil }, nil
}

func (a *app) newResolver(s store.Store) (*relate.Resolver, error) {
	match, err := a.cfg.Resolver.GetTypeMatch()
	if err != nil {
		return nil, err
	}
	return relate.NewResolver(s,
		relate.WithLogger(a.logger),
		relate.WithTypeMatch(match),
	), nil
}

func (a *app) newClient(s store.Store) (*attack.Client, error) {
	domain, err := a.cfg.Source.GetDomain()
	if err != nil {
		return nil, err
	}
	return attack.New(s,
		attack.WithDomain(domain),
		attack.WithLogger(a.logger),
	), nil
}

// withStore opens the backend, runs fn and closes the backend.
func (a *app) withStore(ctx context.Context, fn func(store.Store) error) (err error) {
	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}
