// Command tagctl is the tagdex operator CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/tagdex/internal/app"
	"github.com/kailas-cloud/tagdex/internal/cli"
	"github.com/kailas-cloud/tagdex/internal/config"
	logpkg "github.com/kailas-cloud/tagdex/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func open(ctx context.Context, configPath string) (*cli.Env, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, &cfg, logger)
	if err != nil {
		return nil, err
	}

	e := &cli.Env{
		Indexer:     a.Tagging,
		Collections: a.Collections,
		Close: func() {
			a.Close()
			_ = logger.Sync()
		},
	}
	if a.Publisher != nil {
		e.Queue = a.Publisher
	}
	return e, nil
}
