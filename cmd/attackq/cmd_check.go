package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/attackgraph/health"
	"github.com/zero-day-ai/attackgraph/store"
)

var errUnhealthy = errors.New("knowledge base is unhealthy")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the CTI source tree and the store backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var checks []health.Check
			if !a.useRedis() {
				checks = append(checks, health.SourceCheck(a.cfg.Source.Path, a.cfg.Source.GetPattern()))
			}
			err := a.withStore(ctx, func(s store.Store) error {
				checks = append(checks, health.StoreCheck(ctx, s))
				return nil
			})
			if err != nil {
				checks = append(checks, health.Failed("store", err))
			}

			report := health.Run(checks...)
			for _, c := range report.Checks {
				fmt.Fprintf(out, "%-9s %-6s %s\n", c.State, c.Name, c.Message)
			}
			if failing := report.Failing(); len(failing) > 0 {
				fmt.Fprintf(out, "%-9s failing: %s\n", report.State, strings.Join(failing, ", "))
			} else {
				fmt.Fprintf(out, "%-9s all %d check(s) passed\n", report.State, len(report.Checks))
			}
			if report.State == health.Unhealthy {
				return errUnhealthy
			}
			return nil
		},
	}
}
