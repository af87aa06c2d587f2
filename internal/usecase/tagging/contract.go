package tagging

import (
	"context"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
)

// DocumentRepository defines the storage contract for tagged documents.
type DocumentRepository interface {
	Save(ctx context.Context, cfg domcol.Config, doc *domdoc.Document) (created bool, err error)
	Get(ctx context.Context, cfg domcol.Config, id string) (*domdoc.Document, error)
	Delete(ctx context.Context, cfg domcol.Config, id string) error
	Find(ctx context.Context, cfg domcol.Config, expr filter.Expression, offset, limit int) (
		docs []*domdoc.Document, total int, err error,
	)
	// Scan visits every document of the collection, ignoring any filter.
	Scan(ctx context.Context, cfg domcol.Config, fn func(*domdoc.Document) error) error
	Count(ctx context.Context, cfg domcol.Config) (int, error)
}

// IndexRepository persists derived tag indexes.
type IndexRepository interface {
	// Replace atomically overwrites the whole index; on error the prior index stays intact.
	Replace(ctx context.Context, indexName string, entries []tagindex.Entry) error
	Entries(ctx context.Context, indexName string, localized bool) ([]tagindex.Entry, error)
}

// CollectionRegistry resolves configured collections.
type CollectionRegistry interface {
	Get(name string) (domcol.Config, error)
	All() []domcol.Config
}

// Reindexer dispatches a rebuild of a collection's tag index. The Service itself
// rebuilds synchronously; the Kafka publisher defers to a worker.
type Reindexer interface {
	RequestReindex(ctx context.Context, collection string) error
}
