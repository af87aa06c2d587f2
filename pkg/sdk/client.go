package tagdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/app"
	dombatch "github.com/kailas-cloud/tagdex/internal/domain/batch"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
	batchuc "github.com/kailas-cloud/tagdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/tagdex/internal/usecase/health"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// Internal interfaces, swapped for fakes in tests.
type taggingUseCase interface {
	Save(ctx context.Context, collection, id string, u domdoc.Update) (*domdoc.Document, bool, error)
	Get(ctx context.Context, collection, id string) (*domdoc.Document, error)
	Delete(ctx context.Context, collection, id string) error
	Count(ctx context.Context, collection string) (int, error)
	TaggedWith(ctx context.Context, collection, t string, offset, limit int) (tagging.Page, error)
	TaggedWithAll(ctx context.Context, collection string, tags []string, offset, limit int) (tagging.Page, error)
	TaggedWithAny(ctx context.Context, collection string, tags []string, offset, limit int) (tagging.Page, error)
	Tags(ctx context.Context, collection, loc string) ([]string, error)
	TagsWithWeight(ctx context.Context, collection, loc string) ([]tagindex.Weight, error)
	Rebuild(ctx context.Context, collection string) (tagging.RebuildResult, error)
}

type batchUseCase interface {
	Upsert(ctx context.Context, collection string, items []batchuc.Item) ([]dombatch.Result, error)
	Delete(ctx context.Context, collection string, ids []string) ([]dombatch.Result, error)
}

type collectionUseCase interface {
	Get(name string) (domcol.Config, error)
	List() []domcol.Config
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the tagdex SDK entry point.
type Client struct {
	tagSvc    taggingUseCase
	batchSvc  batchUseCase
	collSvc   collectionUseCase
	healthSvc healthUseCase
	obs       *observer
	close     func()
}

// New creates a Client, connects to the store and provisions the declared
// collections. The provided context is used for connecting and provisioning.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}
	if cc.driver == "" {
		return nil, errors.New("tagdex: store required (use WithValkey, WithRedis or WithPostgres)")
	}

	cfg, err := cc.toConfig()
	if err != nil {
		return nil, fmt.Errorf("tagdex: %w", err)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, &cfg, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("tagdex: %w", err)
	}

	return &Client{
		tagSvc:    a.Tagging,
		batchSvc:  a.Batch,
		collSvc:   a.Collections,
		healthSvc: a.Health,
		obs:       obs,
		close:     a.Close,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

// Collections lists the declared collections.
func (c *Client) Collections() []CollectionInfo {
	cfgs := c.collSvc.List()
	out := make([]CollectionInfo, len(cfgs))
	for i, cfg := range cfgs {
		out[i] = fromConfig(cfg)
	}
	return out
}

// Collection describes one declared collection.
func (c *Client) Collection(name string) (CollectionInfo, error) {
	cfg, err := c.collSvc.Get(name)
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("get collection: %w", err)
	}
	return fromConfig(cfg), nil
}

// Documents returns the document service for a given collection.
func (c *Client) Documents(collection string) *DocumentService {
	return &DocumentService{collection: collection, svc: c.tagSvc, batch: c.batchSvc, obs: c.obs}
}

// Index returns the tag index service for a given collection.
func (c *Client) Index(collection string) *IndexService {
	return &IndexService{collection: collection, svc: c.tagSvc, obs: c.obs}
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	var err error
	if report.Status == healthuc.Unhealthy {
		err = errors.New("unhealthy")
	}
	c.obs.observe("health", "", start, err)
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

func fromConfig(cfg domcol.Config) CollectionInfo {
	return CollectionInfo{
		Name:         cfg.Name(),
		Variant:      Variant(cfg.Variant()),
		IndexEnabled: cfg.IndexEnabled(),
		IndexName:    cfg.IndexName(),
		Separator:    cfg.Separator(),
		Locales:      cfg.Locales(),
	}
}
