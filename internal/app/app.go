// Package app is the composition root shared by the server, the worker and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/config"
	dbPostgres "github.com/kailas-cloud/tagdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/tagdex/internal/db/redis"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	kafkaev "github.com/kailas-cloud/tagdex/internal/event/kafka"
	collectionrepo "github.com/kailas-cloud/tagdex/internal/repository/collection"
	documentrepo "github.com/kailas-cloud/tagdex/internal/repository/document"
	pgrepo "github.com/kailas-cloud/tagdex/internal/repository/postgres"
	tagindexrepo "github.com/kailas-cloud/tagdex/internal/repository/tagindex"
	batchuc "github.com/kailas-cloud/tagdex/internal/usecase/batch"
	collectionuc "github.com/kailas-cloud/tagdex/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/tagdex/internal/usecase/health"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// App holds the wired services.
type App struct {
	Registry    *domcol.Registry
	Tagging     *tagging.Service
	Batch       *batchuc.Service
	Collections *collectionuc.Service
	Health      *healthuc.Service
	// Publisher is set in async reindex mode.
	Publisher *kafkaev.Publisher

	closers []func()
}

type storage struct {
	docs   tagging.DocumentRepository
	index  tagging.IndexRepository
	schema collectionuc.SchemaRepository
	pinger healthuc.DBPinger
	close  func()
}

// Open connects the configured store, provisions collection schemas and wires
// the services. The caller owns the returned App and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Registry: reg, closers: []func(){st.close}}

	a.Collections = collectionuc.New(reg, st.schema, logger)
	if err := a.Collections.Sync(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("sync collections: %w", err)
	}

	a.Tagging = tagging.New(st.docs, st.index, reg, locale.ContextProvider{Default: cfg.DefaultLocale}, logger).
		WithPagination(cfg.Query.DefaultPageSize, cfg.Query.MaxPageSize)
	a.Batch = batchuc.New(a.Tagging, a.Tagging, reg).WithMaxBatchSize(cfg.Query.MaxBatchSize)

	var queue healthuc.QueueChecker
	if cfg.Reindex.Mode == config.ReindexAsync {
		pub, err := kafkaev.NewPublisher(kafkaConfig(cfg), logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create reindex publisher: %w", err)
		}
		a.Publisher = pub
		a.closers = append(a.closers, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close publisher", zap.Error(err))
			}
		})
		a.Tagging.WithReindexer(pub)
		queue = pub
	}
	a.Health = healthuc.New(st.pinger, queue)

	logger.Info("services wired",
		zap.String("driver", cfg.Database.Driver),
		zap.String("reindex_mode", cfg.Reindex.Mode),
		zap.Int("collections", len(reg.All())),
	)
	return a, nil
}

// NewConsumer builds the reindex worker on top of the synchronous rebuild path.
func (a *App) NewConsumer(cfg *config.Config, logger *zap.Logger) (*kafkaev.Consumer, error) {
	c, err := kafkaev.NewConsumer(kafkaConfig(cfg), a.Tagging, logger)
	if err != nil {
		return nil, fmt.Errorf("create reindex consumer: %w", err)
	}
	return c, nil
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Database.Driver, err)
		}
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
		prefix := cfg.Storage.KeyPrefix
		return &storage{
			docs:   documentrepo.New(store, prefix),
			index:  tagindexrepo.New(store, prefix),
			schema: collectionrepo.New(store, prefix),
			pinger: store,
			close:  store.Close,
		}, nil

	case config.DriverPostgres:
		pool, err := dbPostgres.NewPool(ctx, dbPostgres.Config{
			DSN:      cfg.Database.DSN,
			MaxConns: cfg.Database.MaxConns,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := dbPostgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &storage{
			docs:   pgrepo.NewDocumentRepo(pool),
			index:  pgrepo.NewIndexRepo(pool),
			pinger: dbPostgres.Pinger{Pool: pool},
			close:  pool.Close,
		}, nil

	default:
		return nil, errors.New("unknown database driver " + cfg.Database.Driver)
	}
}

func kafkaConfig(cfg *config.Config) kafkaev.Config {
	return kafkaev.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
}
