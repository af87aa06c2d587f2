package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

func newReindexCmd(opts *rootOptions) *cobra.Command {
	var queue bool

	cmd := &cobra.Command{
		Use:   "reindex [collection]",
		Short: "Rebuild tag indexes",
		Long: `Rebuild the tag index of one collection, or of every collection when no
name is given. Collections with the index disabled are reported as skipped.

Examples:
  # Rebuild everything now
  tagctl reindex

  # Rebuild one collection
  tagctl reindex articles

  # Hand the rebuild to the worker (async reindex mode)
  tagctl reindex articles --queue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				if queue {
					return queueReindex(ctx, cmd, env, args)
				}

				var (
					results []tagging.RebuildResult
					err     error
				)
				if len(args) == 1 {
					var res tagging.RebuildResult
					res, err = env.Indexer.Rebuild(ctx, args[0])
					if err == nil {
						results = append(results, res)
					}
				} else {
					results, err = env.Indexer.RebuildAll(ctx)
				}

				if opts.outputJSON {
					if perr := printJSON(cmd.OutOrStdout(), results); perr != nil {
						return perr
					}
				} else {
					printRebuilds(cmd, results)
				}
				if err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&queue, "queue", false, "Publish reindex requests instead of rebuilding in-process")
	return cmd
}

func queueReindex(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
	if env.Queue == nil {
		return errors.New("--queue needs reindex.mode: async in the config")
	}
	names := args
	if len(names) == 0 {
		for _, cfg := range env.Collections.List() {
			if cfg.IndexEnabled() {
				names = append(names, cfg.Name())
			}
		}
	}
	for _, name := range names {
		if err := env.Queue.RequestReindex(ctx, name); err != nil {
			return fmt.Errorf("queue %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", name)
	}
	return nil
}

func printRebuilds(cmd *cobra.Command, results []tagging.RebuildResult) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLLECTION\tINDEX\tDOCUMENTS\tENTRIES\tDURATION")
	for _, r := range results {
		if r.Skipped {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\tskipped\n", r.Collection, r.IndexName)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.Collection, r.IndexName, r.Documents, r.Entries, r.Duration)
	}
	_ = tw.Flush()
}
