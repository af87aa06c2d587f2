package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTagsCmd(opts *rootOptions) *cobra.Command {
	var loc string

	cmd := &cobra.Command{
		Use:   "tags <collection>",
		Short: "List the distinct tags of a collection",
		Long: `List the distinct tags recorded in a collection's index, ascending.
Localized collections read the --locale partition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				tags, err := env.Indexer.Tags(ctx, args[0], loc)
				if err != nil {
					return fmt.Errorf("list tags: %w", err)
				}
				if opts.outputJSON {
					if tags == nil {
						tags = []string{}
					}
					return printJSON(cmd.OutOrStdout(), tags)
				}
				for _, t := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&loc, "locale", "l", "", "Locale partition of a localized collection")
	return cmd
}

func newWeightsCmd(opts *rootOptions) *cobra.Command {
	var (
		loc   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "weights <collection>",
		Short: "List tags with document counts",
		Long:  `List tags with the number of documents carrying them, most used first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd, func(ctx context.Context, env *Env) error {
				weights, err := env.Indexer.TagsWithWeight(ctx, args[0], loc)
				if err != nil {
					return fmt.Errorf("list weights: %w", err)
				}
				if limit > 0 && len(weights) > limit {
					weights = weights[:limit]
				}
				if opts.outputJSON {
					return printJSON(cmd.OutOrStdout(), weights)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TAG\tCOUNT")
				for _, w := range weights {
					fmt.Fprintf(tw, "%s\t%d\n", w.Tag, w.Count)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&loc, "locale", "l", "", "Locale partition of a localized collection")
	cmd.Flags().IntVarP(&limit, "top", "n", 0, "Show only the N heaviest tags (0 = all)")
	return cmd
}
