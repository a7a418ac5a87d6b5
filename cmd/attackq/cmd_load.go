package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
	"github.com/zero-day-ai/attackgraph/store/redisstore"
)

var errNoRedis = errors.New("load requires a Redis URL (--redis or redis.url)")

func newLoadCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Copy the CTI file tree into Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.useRedis() {
				return errNoRedis
			}
			ctx := cmd.Context()
			if info, err := os.Stat(a.cfg.Source.Path); err != nil || !info.IsDir() {
				return store.Unavailable("attackq.load", fmt.Errorf("source %q is not a readable directory", a.cfg.Source.Path))
			}

			rs, err := redisstore.New(a.cfg.Redis.Options())
			if err != nil {
				return err
			}
			defer rs.Close()

			n, err := store.Load(ctx, os.DirFS(a.cfg.Source.Path), func(objs []*stix.Object) error {
				return rs.Put(ctx, objs...)
			},
				store.WithPattern(a.cfg.Source.GetPattern()),
				store.WithLoadLogger(a.logger),
				store.WithStrict(strict),
			)
			if err != nil {
				return err
			}

			count, err := rs.Count(ctx)
			if err != nil {
				return err
			}
			a.logger.Info("loaded knowledge base into redis",
				"path", a.cfg.Source.Path,
				"objects", n,
				"stored", count)
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d objects (%d stored)\n", n, count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on undecodable documents instead of skipping them")
	return cmd
}
