package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type collectionInfo struct {
	Name         string            `json:"name"`
	Variant      string            `json:"variant"`
	IndexEnabled bool              `json:"index_enabled"`
	IndexName    string            `json:"index_name"`
	Locales      []string          `json:"locales,omitempty"`
	Stored       map[string]string `json:"stored,omitempty"`
}

func newCollectionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List configured collections and their provisioned schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				cfgs := env.Collections.List()
				infos := make([]collectionInfo, 0, len(cfgs))
				for _, c := range cfgs {
					stored, err := env.Collections.Stored(ctx, c.Name())
					if err != nil {
						return fmt.Errorf("read %s: %w", c.Name(), err)
					}
					infos = append(infos, collectionInfo{
						Name:         c.Name(),
						Variant:      string(c.Variant()),
						IndexEnabled: c.IndexEnabled(),
						IndexName:    c.IndexName(),
						Locales:      c.Locales(),
						Stored:       stored,
					})
				}

				if opts.outputJSON {
					return printJSON(cmd.OutOrStdout(), infos)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tVARIANT\tINDEX\tENABLED\tLOCALES")
				for _, i := range infos {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
						i.Name, i.Variant, i.IndexName, i.IndexEnabled, strings.Join(i.Locales, ","))
				}
				return tw.Flush()
			})
		},
	}
}

func newDropSchemaCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop-schema <collection>",
		Short: "Drop a collection's search index and metadata",
		Long: `Drop the search index and metadata provisioned for a collection. Documents
are kept; the server recreates the schema on its next start.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop %s without --yes", args[0])
			}
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Collections.Drop(ctx, args[0]); err != nil {
					return fmt.Errorf("drop schema: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped schema of %s\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the drop")
	return cmd
}
