package collection

import (
	"context"
	"testing"

	"github.com/kailas-cloud/tagdex/internal/db"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

const testPrefix = "tagdex:"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, testPrefix)
	return repo, ms
}

func flatConfig(t *testing.T) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("articles", domcol.Options{})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func localizedConfig(t *testing.T, locales ...string) domcol.Config {
	t.Helper()
	cfg, err := domcol.New("products", domcol.Options{Variant: tag.VariantLocalized, Locales: locales})
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}
