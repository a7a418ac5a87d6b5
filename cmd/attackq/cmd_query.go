package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/attackgraph/relate"
	"github.com/zero-day-ai/attackgraph/stix"
	"github.com/zero-day-ai/attackgraph/store"
)

func newQueriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List the derived relationship queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, q := range relate.Queries {
				specs := make([]string, 0, len(q.Specs))
				for _, s := range q.Specs {
					specs = append(specs, s.String())
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", q.Name, q.Description, strings.Join(specs, "; "))
			}
			return w.Flush()
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	var anchor string

	cmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Run a derived query and print anchor, partner and relationship ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(s store.Store) error {
				r, err := a.newResolver(s)
				if err != nil {
					return err
				}
				m, err := relate.NewCatalog(r).Run(ctx, args[0])
				if err != nil {
					return err
				}
				if anchor != "" {
					m = onlyAnchor(m, anchor)
				}
				return writeMapping(cmd.OutOrStdout(), m)
			})
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "only print entries of this anchor id")
	return cmd
}

func newParentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parent <subtechnique-id>",
		Short: "Print the parent technique of a sub-technique",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(s store.Store) error {
				r, err := a.newResolver(s)
				if err != nil {
					return err
				}
				e, err := relate.NewCatalog(r).ParentOf(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.Object.ID, describe(e.Object), e.Relationship.ID)
				return nil
			})
		},
	}
}

func newAliasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases <alias>",
		Short: "Print every alias of the group known by alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(s store.Store) error {
				c, err := a.newClient(s)
				if err != nil {
					return err
				}
				aliases, err := c.Aliases(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Aliases of %s:\n", args[0])
				for _, alias := range aliases {
					fmt.Fprintf(out, " - %s\n", alias)
				}
				return nil
			})
		},
	}
}

// onlyAnchor narrows m to one anchor. An absent anchor yields an empty mapping.
func onlyAnchor(m relate.Mapping, anchor string) relate.Mapping {
	out := relate.Mapping{}
	if entries, ok := m[anchor]; ok && len(entries) > 0 {
		out[anchor] = entries
	}
	return out
}

func writeMapping(out io.Writer, m relate.Mapping) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, anchor := range m.Keys() {
		for _, e := range m[anchor] {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", anchor, e.Object.ID, describe(e.Object), e.Relationship.ID)
		}
	}
	return w.Flush()
}

// describe returns the ATT&CK external id and name, e.g. "T1003 OS Credential Dumping".
func describe(obj *stix.Object) string {
	refs, _ := obj.Value("external_references")
	list, _ := refs.([]any)
	for _, ref := range list {
		r, ok := ref.(map[string]any)
		if !ok || !strings.HasPrefix(fmt.Sprint(r["source_name"]), "mitre-") {
			continue
		}
		if id, ok := r["external_id"].(string); ok {
			return id + " " + obj.Name
		}
	}
	return obj.Name
}
