package tagging

import (
	"context"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
)

// memDocs is an in-memory DocumentRepository. Stored documents are re-hydrated
// on every read so dirty tracking behaves like a real store.
type memDocs struct {
	byCollection map[string]map[string]*domdoc.Document
	scanErr      error
	saveErr      error
	saves        int
}

func newMemDocs() *memDocs {
	return &memDocs{byCollection: map[string]map[string]*domdoc.Document{}}
}

func (m *memDocs) Save(_ context.Context, cfg domcol.Config, doc *domdoc.Document) (bool, error) {
	if m.saveErr != nil {
		return false, m.saveErr
	}
	m.saves++
	docs := m.byCollection[cfg.Name()]
	if docs == nil {
		docs = map[string]*domdoc.Document{}
		m.byCollection[cfg.Name()] = docs
	}
	_, existed := docs[doc.ID()]
	docs[doc.ID()] = rehydrate(cfg, doc)
	return !existed, nil
}

func (m *memDocs) Get(_ context.Context, cfg domcol.Config, id string) (*domdoc.Document, error) {
	doc, ok := m.byCollection[cfg.Name()][id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return rehydrate(cfg, doc), nil
}

func (m *memDocs) Delete(_ context.Context, cfg domcol.Config, id string) error {
	if _, ok := m.byCollection[cfg.Name()][id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.byCollection[cfg.Name()], id)
	return nil
}

func (m *memDocs) Find(
	_ context.Context, cfg domcol.Config, expr filter.Expression, offset, limit int,
) ([]*domdoc.Document, int, error) {
	var matched []*domdoc.Document
	for _, doc := range m.sorted(cfg) {
		if expr.Matches(tagValues(doc)) {
			matched = append(matched, rehydrate(cfg, doc))
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return matched[offset:end], total, nil
}

func (m *memDocs) Scan(_ context.Context, cfg domcol.Config, fn func(*domdoc.Document) error) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	for _, doc := range m.sorted(cfg) {
		if err := fn(rehydrate(cfg, doc)); err != nil {
			return err
		}
	}
	return nil
}

func (m *memDocs) Count(_ context.Context, cfg domcol.Config) (int, error) {
	return len(m.byCollection[cfg.Name()]), nil
}

func (m *memDocs) sorted(cfg domcol.Config) []*domdoc.Document {
	docs := m.byCollection[cfg.Name()]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*domdoc.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, docs[id])
	}
	return out
}

func tagValues(doc *domdoc.Document) func(string) []string {
	return func(key string) []string {
		loc, ok := tag.SplitField(key)
		if !ok {
			return nil
		}
		if f, isFlat := doc.Flat(); isFlat && loc == "" {
			return f.Tags()
		}
		if l, isLoc := doc.Localized(); isLoc && loc != "" {
			return l.Tags(loc)
		}
		return nil
	}
}

func rehydrate(cfg domcol.Config, doc *domdoc.Document) *domdoc.Document {
	if f, ok := doc.Flat(); ok {
		return domdoc.Reconstruct(doc.ID(), doc.Fields(), tag.LoadFlat(cfg.Separator(), f.Tags()))
	}
	l, _ := doc.Localized()
	return domdoc.Reconstruct(doc.ID(), doc.Fields(), tag.LoadLocalized(cfg.Separator(), l.All()))
}

// memIndex is an in-memory IndexRepository. A failed Replace leaves the prior index.
type memIndex struct {
	indexes    map[string][]tagindex.Entry
	replaceErr error
	replaces   int
}

func newMemIndex() *memIndex {
	return &memIndex{indexes: map[string][]tagindex.Entry{}}
}

func (m *memIndex) Replace(_ context.Context, indexName string, entries []tagindex.Entry) error {
	m.replaces++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.indexes[indexName] = append([]tagindex.Entry(nil), entries...)
	return nil
}

func (m *memIndex) Entries(_ context.Context, indexName string, _ bool) ([]tagindex.Entry, error) {
	return append([]tagindex.Entry(nil), m.indexes[indexName]...), nil
}

// recordingReindexer counts reindex requests per collection.
type recordingReindexer struct {
	calls map[string]int
	err   error
}

func (r *recordingReindexer) RequestReindex(_ context.Context, collection string) error {
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[collection]++
	return r.err
}

type fixture struct {
	svc   *Service
	docs  *memDocs
	index *memIndex
}

func newFixture(t *testing.T, cfgs ...domcol.Config) fixture {
	t.Helper()
	reg, err := domcol.NewRegistry(cfgs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	docs, index := newMemDocs(), newMemIndex()
	svc := New(docs, index, reg, locale.ContextProvider{}, zap.NewNop())
	return fixture{svc: svc, docs: docs, index: index}
}

func articles(t *testing.T) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("articles", domcol.Options{})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func products(t *testing.T) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("products", domcol.Options{Variant: tag.VariantLocalized, Locales: []string{"en", "pt-BR"}})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func disabled(t *testing.T) domcol.Config {
	t.Helper()
	off := false
	cfg, err := domcol.New("drafts", domcol.Options{EnableIndex: &off})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func flatTags(raw string) domdoc.Update {
	return domdoc.Update{Tags: &raw}
}

func localizedTags(byLocale map[string]string) domdoc.Update {
	return domdoc.Update{Localized: &domdoc.LocalizedUpdate{ByLocale: byLocale}}
}

func mustSave(t *testing.T, svc *Service, collection, id string, u domdoc.Update) {
	t.Helper()
	if _, _, err := svc.Save(context.Background(), collection, id, u); err != nil {
		t.Fatalf("save %s/%s: %v", collection, id, err)
	}
}
