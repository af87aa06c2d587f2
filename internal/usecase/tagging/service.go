// Package tagging is the tag engine use case: document writes behind the change
// gate, tag queries, index rebuilds and index reads.
package tagging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/metrics"
)

// Service coordinates documents, queries and tag indexes across collections.
type Service struct {
	docs            DocumentRepository
	index           IndexRepository
	colls           CollectionRegistry
	locales         locale.Provider
	reindexer       Reindexer
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
}

// New creates a tagging service that rebuilds synchronously.
func New(
	docs DocumentRepository, index IndexRepository, colls CollectionRegistry,
	locales locale.Provider, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		docs:            docs,
		index:           index,
		colls:           colls,
		locales:         locales,
		logger:          logger,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
	s.reindexer = s
	return s
}

// WithReindexer routes gated rebuilds through r (e.g. an async publisher).
func (s *Service) WithReindexer(r Reindexer) *Service {
	if r != nil {
		s.reindexer = r
	}
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Save creates or updates a document and, if its tags changed, requests a
// rebuild. Returns the stored document and whether it was created. A failed
// reindex request is reported after the document write has succeeded.
func (s *Service) Save(
	ctx context.Context, collection, id string, u domdoc.Update,
) (*domdoc.Document, bool, error) {
	doc, created, reindex, err := s.Write(ctx, collection, id, u)
	if err != nil {
		return nil, false, err
	}
	if reindex {
		if err := s.Dispatch(ctx, collection); err != nil {
			return doc, created, fmt.Errorf("reindex after save: %w", err)
		}
	}
	return doc, created, nil
}

// Write stores a document without dispatching a rebuild. reindex reports the
// change gate decision so callers can coalesce rebuilds.
func (s *Service) Write(
	ctx context.Context, collection, id string, u domdoc.Update,
) (doc *domdoc.Document, created, reindex bool, err error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return nil, false, false, err
	}
	if err := checkLocales(cfg, u); err != nil {
		return nil, false, false, err
	}

	doc, err = s.docs.Get(ctx, cfg, id)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		doc, err = domdoc.New(id, cfg.NewTags())
		if err != nil {
			return nil, false, false, err
		}
	case err != nil:
		return nil, false, false, fmt.Errorf("load document: %w", err)
	}

	if err := doc.Apply(u); err != nil {
		return nil, false, false, err
	}

	reindex = doc.ShouldReindex()
	created, err = s.docs.Save(ctx, cfg, doc)
	if err != nil {
		return nil, false, false, fmt.Errorf("save document: %w", err)
	}
	doc.MarkPersisted()

	s.recordGate(cfg.Name(), reindex)
	return doc, created, reindex, nil
}

// checkLocales rejects localized tags in locales the collection does not
// declare: they could be stored and counted but never queried.
func checkLocales(cfg domcol.Config, u domdoc.Update) error {
	if u.Localized == nil || !cfg.IsLocalized() {
		return nil
	}
	for loc := range u.Localized.ByLocale {
		if !cfg.HasLocale(loc) {
			return fmt.Errorf("locale %q is not declared on collection %s: %w",
				loc, cfg.Name(), domain.ErrInvalidDocument)
		}
	}
	return nil
}

// Dispatch hands a rebuild of the collection to the configured reindexer.
func (s *Service) Dispatch(ctx context.Context, collection string) error {
	return s.reindexer.RequestReindex(ctx, collection)
}

// Get retrieves a document.
func (s *Service) Get(ctx context.Context, collection, id string) (*domdoc.Document, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, cfg, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document. Removing a tagged document changes the corpus,
// so it requests a rebuild; untagged deletes do not.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	reindex, err := s.Remove(ctx, collection, id)
	if err != nil {
		return err
	}
	if !reindex {
		return nil
	}
	if err := s.Dispatch(ctx, collection); err != nil {
		return fmt.Errorf("reindex after delete: %w", err)
	}
	return nil
}

// Remove deletes a document without dispatching a rebuild and reports whether
// the removed document carried tags.
func (s *Service) Remove(ctx context.Context, collection, id string) (bool, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return false, err
	}

	doc, err := s.docs.Get(ctx, cfg, id)
	if err != nil {
		return false, fmt.Errorf("get document: %w", err)
	}
	if err := s.docs.Delete(ctx, cfg, id); err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}

	reindex := doc.HasTags()
	s.recordGate(cfg.Name(), reindex)
	return reindex, nil
}

func (s *Service) recordGate(collection string, reindex bool) {
	decision := "skip"
	if reindex {
		decision = "reindex"
	}
	metrics.GateDecisionsTotal.WithLabelValues(collection, decision).Inc()
}

// Count returns the number of documents in a collection.
func (s *Service) Count(ctx context.Context, collection string) (int, error) {
	cfg, err := s.colls.Get(collection)
	if err != nil {
		return 0, err
	}
	n, err := s.docs.Count(ctx, cfg)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
