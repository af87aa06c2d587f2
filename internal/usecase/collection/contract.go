package collection

import (
	"context"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
)

// SchemaRepository provisions per-collection storage structures (search index
// and metadata). Stores without per-collection schema have none.
type SchemaRepository interface {
	Ensure(ctx context.Context, cfg domcol.Config) error
	Stored(ctx context.Context, name string) (map[string]string, error)
	Drop(ctx context.Context, name string) error
}

// Registry resolves configured collections.
type Registry interface {
	Get(name string) (domcol.Config, error)
	All() []domcol.Config
}
