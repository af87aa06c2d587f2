package collection

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/tagdex/internal/db"
	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
)

// store is the consumer interface for collection schemas (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo keeps the FT search index of each configured collection in line with its config.
type Repo struct {
	store  store
	prefix string
}

// New creates a collection schema repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Ensure makes sure the collection's metadata and FT index exist and match cfg.
// A changed variant or locale list drops and recreates the index; documents are
// kept and re-indexed by the server.
func (r *Repo) Ensure(ctx context.Context, cfg domcol.Config) error {
	name := cfg.Name()
	metaKey := r.metaKey(name)
	idxName := r.indexName(name)

	stored, err := r.store.HGetAll(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	want := configToHash(cfg)

	exists, err := r.store.IndexExists(ctx, idxName)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}

	switch {
	case exists && len(stored) > 0 && !schemaChanged(stored, want):
		if metadataEqual(stored, want) {
			return nil
		}
		if err := r.store.HSet(ctx, metaKey, want); err != nil {
			return fmt.Errorf("hset collection %s: %w", name, err)
		}
		return nil
	case exists:
		if err := r.store.DropIndex(ctx, idxName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop stale index %s: %w", idxName, err)
		}
	}

	indexDef, err := r.buildIndex(cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	if err := r.store.HSet(ctx, metaKey, want); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}

	// FT.CREATE: restore previous metadata on error
	if err := r.store.CreateIndex(ctx, indexDef); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return errors.Join(fmt.Errorf("%s: %w", indexDef, err), r.rollback(ctx, metaKey, stored))
	}

	return nil
}

// Stored returns the metadata recorded for a collection by the last Ensure.
func (r *Repo) Stored(ctx context.Context, name string) (map[string]string, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return nil, fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(m) == 0 {
		return nil, domain.ErrCollectionNotFound
	}
	return m, nil
}

// Drop removes the collection metadata and its FT index. Documents are kept.
func (r *Repo) Drop(ctx context.Context, name string) error {
	metaKey := r.metaKey(name)

	metaBackup, err := r.store.HGetAll(ctx, metaKey)
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", name, err)
	}
	if len(metaBackup) == 0 {
		return domain.ErrCollectionNotFound
	}

	if err := r.store.Del(ctx, metaKey); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}

	// FT.DROPINDEX: rollback HSET on error
	if err := r.store.DropIndex(ctx, r.indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		cleanupErr := r.store.HSet(ctx, metaKey, metaBackup)
		return errors.Join(err, cleanupErr)
	}

	return nil
}

func (r *Repo) rollback(ctx context.Context, metaKey string, previous map[string]string) error {
	if len(previous) == 0 {
		return r.store.Del(ctx, metaKey)
	}
	return r.store.HSet(ctx, metaKey, previous)
}

// Key patterns: {prefix}collection:{name}, {prefix}{name}:idx, {prefix}{name}:

func (r *Repo) metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", r.prefix, name)
}

func (r *Repo) indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", r.prefix, name)
}

func (r *Repo) collectionPrefix(name string) string {
	return fmt.Sprintf("%s%s:", r.prefix, name)
}
