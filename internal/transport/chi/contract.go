package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/tagdex/internal/domain/batch"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
	batchuc "github.com/kailas-cloud/tagdex/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/tagdex/internal/usecase/health"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// Tagging is the tag engine consumed by the HTTP handlers.
type Tagging interface {
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
	RebuildAll(ctx context.Context) ([]tagging.RebuildResult, error)
}

// Collections lists the configured collections.
type Collections interface {
	Get(name string) (domcol.Config, error)
	List() []domcol.Config
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Reindexer queues a rebuild instead of running it in the request.
type Reindexer interface {
	RequestReindex(ctx context.Context, collection string) error
}

// Batcher applies batch writes with one coalesced rebuild.
type Batcher interface {
	Upsert(ctx context.Context, collection string, items []batchuc.Item) ([]dombatch.Result, error)
	Delete(ctx context.Context, collection string, ids []string) ([]dombatch.Result, error)
	MaxSize() int
}
