package tagdex

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/tagdex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	batchuc "github.com/kailas-cloud/tagdex/internal/usecase/batch"
	"github.com/kailas-cloud/tagdex/internal/usecase/tagging"
)

// DocumentService manages documents within a single collection.
type DocumentService struct {
	collection string
	svc        taggingUseCase
	batch      batchUseCase
	obs        *observer
}

// Save creates or updates a document. Returns true if created. When the tags
// changed the collection's index is rebuilt before Save returns.
func (s *DocumentService) Save(ctx context.Context, doc Document) (created bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("save", s.collection, start, err) }()

	_, created, err = s.svc.Save(ctx, s.collection, doc.ID, toUpdate(doc))
	if err != nil {
		return created, fmt.Errorf("save document: %w", err)
	}
	return created, nil
}

// SaveMany writes documents and rebuilds the index at most once. Per-item
// failures are reported in the results; err reports only a failed rebuild.
func (s *DocumentService) SaveMany(ctx context.Context, docs []Document) (results []BatchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("save_many", s.collection, start, err) }()

	items := make([]batchuc.Item, len(docs))
	for i, d := range docs {
		items[i] = batchuc.Item{ID: d.ID, Update: toUpdate(d)}
	}
	res, err := s.batch.Upsert(ctx, s.collection, items)
	if err != nil {
		err = fmt.Errorf("save many: %w", err)
	}
	return fromBatchResults(res), err
}

// DeleteMany removes documents and rebuilds the index at most once.
func (s *DocumentService) DeleteMany(ctx context.Context, ids []string) (results []BatchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete_many", s.collection, start, err) }()

	res, err := s.batch.Delete(ctx, s.collection, ids)
	if err != nil {
		err = fmt.Errorf("delete many: %w", err)
	}
	return fromBatchResults(res), err
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (doc Document, err error) {
	start := time.Now()
	defer func() { s.obs.observe("get", s.collection, start, err) }()

	d, err := s.svc.Get(ctx, s.collection, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(d), nil
}

// Delete removes a document by ID.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete", s.collection, start, err) }()

	if err = s.svc.Delete(ctx, s.collection, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (s *DocumentService) Count(ctx context.Context) (int, error) {
	n, err := s.svc.Count(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// TaggedWith returns documents carrying tag.
func (s *DocumentService) TaggedWith(ctx context.Context, t string, offset, limit int) (Page, error) {
	return s.query("tagged_with", func() (tagging.Page, error) {
		return s.svc.TaggedWith(ctx, s.collection, t, offset, limit)
	})
}

// TaggedWithAll returns documents carrying every tag. An empty list matches nothing.
func (s *DocumentService) TaggedWithAll(ctx context.Context, tags []string, offset, limit int) (Page, error) {
	return s.query("tagged_with_all", func() (tagging.Page, error) {
		return s.svc.TaggedWithAll(ctx, s.collection, tags, offset, limit)
	})
}

// TaggedWithAny returns documents carrying at least one tag. An empty list matches nothing.
func (s *DocumentService) TaggedWithAny(ctx context.Context, tags []string, offset, limit int) (Page, error) {
	return s.query("tagged_with_any", func() (tagging.Page, error) {
		return s.svc.TaggedWithAny(ctx, s.collection, tags, offset, limit)
	})
}

func (s *DocumentService) query(op string, run func() (tagging.Page, error)) (page Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe(op, s.collection, start, err) }()

	p, err := run()
	if err != nil {
		return Page{}, fmt.Errorf("%s: %w", op, err)
	}
	docs := make([]Document, len(p.Documents))
	for i, d := range p.Documents {
		docs[i] = fromInternalDocument(d)
	}
	return Page{Documents: docs, Total: p.Total, Offset: p.Offset, Limit: p.Limit}, nil
}

func fromInternalDocument(d *domdoc.Document) Document {
	out := Document{ID: d.ID(), Fields: d.Fields()}
	if f, ok := d.Flat(); ok {
		display := f.String()
		out.Tags = &display
		out.TagList = f.Tags()
	}
	if l, ok := d.Localized(); ok {
		out.LocalizedTags = make(map[string]string)
		for _, loc := range l.Locales() {
			out.LocalizedTags[loc] = l.String(loc)
		}
	}
	return out
}

func toUpdate(doc Document) domdoc.Update {
	u := domdoc.Update{Fields: doc.Fields, Tags: doc.Tags}
	if doc.LocalizedTags != nil {
		u.Localized = &domdoc.LocalizedUpdate{ByLocale: doc.LocalizedTags}
	}
	return u
}

func fromBatchResults(res []dombatch.Result) []BatchResult {
	out := make([]BatchResult, len(res))
	for i, r := range res {
		out[i] = BatchResult{ID: r.ID(), Err: r.Err()}
	}
	return out
}
