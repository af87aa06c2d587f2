// Command tagdex serves the tag index HTTP API. Run as "tagdex worker" it
// consumes reindex requests from Kafka instead.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/app"
	"github.com/kailas-cloud/tagdex/internal/config"
	logpkg "github.com/kailas-cloud/tagdex/internal/logger"
	"github.com/kailas-cloud/tagdex/internal/metrics"
	chiTransport "github.com/kailas-cloud/tagdex/internal/transport/chi"
	"github.com/kailas-cloud/tagdex/internal/version"
)

func main() {
	mode := "server"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode == "version" || mode == "--version" {
		fmt.Println(version.String())
		return
	}

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tagdex",
		zap.String("mode", mode),
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("reindex_mode", cfg.Reindex.Mode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.RegisterTagIndexMetrics()

	a, err := app.Open(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer a.Close()

	switch mode {
	case "server":
		err = runServer(ctx, &cfg, a, logger)
	case "worker":
		err = runWorker(ctx, &cfg, a, logger)
	default:
		err = fmt.Errorf("unknown mode %q (want server or worker)", mode)
	}
	if err != nil {
		logger.Error("Exited with error", zap.Error(err))
		a.Close()
		os.Exit(1)
	}
	logger.Info("Stopped gracefully")
}

func runServer(ctx context.Context, cfg *config.Config, a *app.App, logger *zap.Logger) error {
	opts := chiTransport.Options{
		APIKeys:       cfg.Auth.APIKeys,
		DefaultLocale: cfg.DefaultLocale,
	}
	if a.Publisher != nil {
		opts.Reindexer = a.Publisher
	}
	server := chiTransport.NewServer(a.Tagging, a.Collections, a.Health, opts, logger).WithBatch(a.Batch)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runWorker(ctx context.Context, cfg *config.Config, a *app.App, logger *zap.Logger) error {
	consumer, err := a.NewConsumer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("close consumer", zap.Error(err))
		}
	}()

	// Requests published while no worker was running may be gone; start from a full rebuild.
	if _, err := a.Tagging.RebuildAll(ctx); err != nil {
		logger.Warn("initial rebuild incomplete", zap.Error(err))
	}
	return consumer.Run(ctx)
}
