package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/tagdex/internal/db"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn  func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn  func(ctx context.Context, key string, paths ...string) ([]byte, error)
	delFn      func(ctx context.Context, key string) error
	existsFn   func(ctx context.Context, key string) (bool, error)
	jsonMGetFn func(ctx context.Context, keys []string, path string) ([][]byte, error)
	scanFn     func(
		ctx context.Context, cursor uint64, pattern, typ string, count int64,
	) ([]string, uint64, error)
	searchFilteredFn func(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	searchCountFn    func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error) {
	if m.searchFilteredFn != nil {
		return m.searchFilteredFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error) {
	if m.jsonMGetFn != nil {
		return m.jsonMGetFn(ctx, keys, path)
	}
	return make([][]byte, len(keys)), nil
}

func (m *mockStore) Scan(
	ctx context.Context, cursor uint64, pattern, typ string, count int64,
) ([]string, uint64, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, cursor, pattern, typ, count)
	}
	return nil, 0, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "tagdex:")
	return repo, ms
}

func flatConfig(t *testing.T) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("notes", domcol.Options{})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func localizedConfig(t *testing.T) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("notes", domcol.Options{Variant: tag.VariantLocalized, Locales: []string{"en", "fr"}})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func testDocument(t *testing.T, cfg domcol.Config, raw string) *domdoc.Document {
	t.Helper()
	doc, err := domdoc.New("doc-1", cfg.NewTags())
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if err := doc.Apply(domdoc.Update{Fields: map[string]string{"title": "hello"}, Tags: &raw}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	return doc
}
