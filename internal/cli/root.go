// Package cli provides the tagctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
	"github.com/kailas-cloud/tagdex/internal/version"
)

// Indexer rebuilds and reads tag indexes.
type Indexer interface {
	Rebuild(ctx context.Context, collection string) (tagging.RebuildResult, error)
	RebuildAll(ctx context.Context) ([]tagging.RebuildResult, error)
	Tags(ctx context.Context, collection, loc string) ([]string, error)
	TagsWithWeight(ctx context.Context, collection, loc string) ([]tagindex.Weight, error)
}

// CollectionAdmin inspects and manages collection schemas.
type CollectionAdmin interface {
	List() []domcol.Config
	Stored(ctx context.Context, name string) (map[string]string, error)
	Drop(ctx context.Context, name string) error
}

// Reindexer queues rebuilds for the worker.
type Reindexer interface {
	RequestReindex(ctx context.Context, collection string) error
}

// Env is what a command runs against. Queue is nil unless async reindex is configured.
type Env struct {
	Indexer     Indexer
	Collections CollectionAdmin
	Queue       Reindexer
	Close       func()
}

// Opener builds an Env from a config file path ("" means by ENV).
type Opener func(ctx context.Context, configPath string) (*Env, error)

type rootOptions struct {
	configPath string
	outputJSON bool
	open       Opener
}

// NewRootCmd creates the tagctl root command.
func NewRootCmd(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	rootCmd := &cobra.Command{
		Use:   "tagctl",
		Short: "Operate tagdex tag indexes",
		Long: `tagctl rebuilds and inspects the tag frequency indexes maintained by tagdex.

It talks to the store configured for the current ENV (config/<env>.yaml) or
to the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Print JSON instead of tables")

	rootCmd.AddCommand(
		newReindexCmd(opts),
		newTagsCmd(opts),
		newWeightsCmd(opts),
		newCollectionsCmd(opts),
		newDropSchemaCmd(opts),
	)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// withEnv opens an Env for the duration of fn.
func (o *rootOptions) withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env, err := o.open(ctx, o.configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
