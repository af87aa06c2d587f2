package tagging

import (
	"context"
	"fmt"

	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	tagquery "github.com/kailas-cloud/tagdex/internal/domain/tag/query"
)

// Page is one window of query results.
type Page struct {
	Documents []*domdoc.Document
	Total     int
	Offset    int
	Limit     int
}

// TaggedWith returns documents whose tags contain t.
func (s *Service) TaggedWith(ctx context.Context, collection, t string, offset, limit int) (Page, error) {
	return s.find(ctx, collection, offset, limit, func(b tagquery.Builder) (filter.Expression, error) {
		return b.TaggedWith(ctx, t)
	})
}

// TaggedWithAll returns documents holding every tag. An empty list matches nothing.
func (s *Service) TaggedWithAll(
	ctx context.Context, collection string, tags []string, offset, limit int,
) (Page, error) {
	return s.find(ctx, collection, offset, limit, func(b tagquery.Builder) (filter.Expression, error) {
		return b.TaggedWithAll(ctx, tags)
	})
}

// TaggedWithAny returns documents holding at least one tag. An empty list matches nothing.
func (s *Service) TaggedWithAny(
	ctx context.Context, collection string, tags []string, offset, limit int,
) (Page, error) {
	return s.find(ctx, collection, offset, limit, func(b tagquery.Builder) (filter.Expression, error) {
		return b.TaggedWithAny(ctx, tags)
	})
}

func (s *Service) find(
	ctx context.Context, collection string, offset, limit int,
	build func(tagquery.Builder) (filter.Expression, error),
) (Page, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return Page{}, err
	}

	expr, err := build(tagquery.New(cfg, s.locales))
	if err != nil {
		return Page{}, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	docs, total, err := s.docs.Find(ctx, cfg, expr, offset, limit)
	if err != nil {
		return Page{}, fmt.Errorf("find documents: %w", err)
	}
	if docs == nil {
		docs = []*domdoc.Document{}
	}
	return Page{Documents: docs, Total: total, Offset: offset, Limit: limit}, nil
}
