package batch

import (
	"context"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
)

// DocumentWriter stores and removes documents without dispatching rebuilds.
type DocumentWriter interface {
	Write(ctx context.Context, collection, id string, u domdoc.Update) (
		doc *domdoc.Document, created, reindex bool, err error,
	)
	Remove(ctx context.Context, collection, id string) (reindex bool, err error)
}

// Dispatcher requests one rebuild of a collection's tag index.
type Dispatcher interface {
	Dispatch(ctx context.Context, collection string) error
}

// CollectionReader reads collections for existence checks.
type CollectionReader interface {
	Get(name string) (domcol.Config, error)
}
