// Package batch applies many document writes with per-item error reporting and
// a single coalesced rebuild.
package batch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/tagdex/internal/domain"
	dombatch "github.com/kailas-cloud/tagdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
)

// MaxBatchSize is the maximum number of items per batch request.
const MaxBatchSize = 100

// Item is one document write of an upsert batch.
type Item struct {
	ID     string
	Update domdoc.Update
}

// Service handles batch document operations.
type Service struct {
	docs         DocumentWriter
	dispatch     Dispatcher
	colls        CollectionReader
	maxBatchSize int
}

// New creates a batch service.
func New(docs DocumentWriter, dispatch Dispatcher, colls CollectionReader) *Service {
	return &Service{
		docs:         docs,
		dispatch:     dispatch,
		colls:        colls,
		maxBatchSize: MaxBatchSize,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// MaxSize returns the configured batch limit.
func (s *Service) MaxSize() int { return s.maxBatchSize }

// Upsert writes every item and requests at most one rebuild, issued after the
// last write when any item's tags changed. The returned error is only the
// rebuild request failure; item failures are reported in the results.
func (s *Service) Upsert(ctx context.Context, collection string, items []Item) ([]dombatch.Result, error) {
	results := make([]dombatch.Result, len(items))

	if err := s.precheck(collection, len(items)); err != nil {
		for i, item := range items {
			results[i] = dombatch.NewError(item.ID, err)
		}
		return results, nil
	}

	reindex := false
	for i, item := range items {
		_, _, changed, err := s.docs.Write(ctx, collection, item.ID, item.Update)
		if err != nil {
			results[i] = dombatch.NewError(item.ID, fmt.Errorf("upsert: %w", err))
			continue
		}
		reindex = reindex || changed
		results[i] = dombatch.NewOK(item.ID)
	}

	return results, s.finish(ctx, collection, reindex)
}

// Delete removes documents by ID and requests one rebuild if any removed
// document carried tags.
func (s *Service) Delete(ctx context.Context, collection string, ids []string) ([]dombatch.Result, error) {
	results := make([]dombatch.Result, len(ids))

	if err := s.precheck(collection, len(ids)); err != nil {
		for i, id := range ids {
			results[i] = dombatch.NewError(id, err)
		}
		return results, nil
	}

	reindex := false
	for i, id := range ids {
		changed, err := s.docs.Remove(ctx, collection, id)
		if err != nil {
			results[i] = dombatch.NewError(id, fmt.Errorf("delete: %w", err))
			continue
		}
		reindex = reindex || changed
		results[i] = dombatch.NewOK(id)
	}

	return results, s.finish(ctx, collection, reindex)
}

func (s *Service) precheck(collection string, n int) error {
	if n > s.maxBatchSize {
		return fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument)
	}
	if _, err := s.colls.Get(collection); err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	return nil
}

func (s *Service) finish(ctx context.Context, collection string, reindex bool) error {
	if !reindex {
		return nil
	}
	if err := s.dispatch.Dispatch(ctx, collection); err != nil {
		return fmt.Errorf("reindex after batch: %w", err)
	}
	return nil
}
