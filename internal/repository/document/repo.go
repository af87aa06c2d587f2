package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/tagdex/internal/db"
	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
)

const (
	// scanPageSize is the SCAN COUNT hint used by full collection scans.
	scanPageSize = 500
	// jsonKeyType is the key type reported by the JSON module.
	jsonKeyType = "ReJSON-RL"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, cursor uint64, pattern, typ string, count int64) ([]string, uint64, error)
	SearchFiltered(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/tagging.DocumentRepository on Redis/Valkey JSON documents.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// Save creates or replaces a document. Returns true if created.
func (r *Repo) Save(ctx context.Context, cfg domcol.Config, doc *domdoc.Document) (bool, error) {
	key := r.docKey(cfg.Name(), doc.ID())
	data, err := marshalDoc(doc)
	if err != nil {
		return false, err
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}

	return !exists, nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, cfg domcol.Config, id string) (*domdoc.Document, error) {
	key := r.docKey(cfg.Name(), id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseJSONGetResult(cfg, id, raw)
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, cfg domcol.Config, id string) error {
	key := r.docKey(cfg.Name(), id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Find returns one page of documents matching expr and the total match count.
// A match-none expression returns nothing without touching the store.
func (r *Repo) Find(
	ctx context.Context, cfg domcol.Config, expr filter.Expression, offset, limit int,
) ([]*domdoc.Document, int, error) {
	if expr.IsMatchNone() {
		return nil, 0, nil
	}

	result, err := r.store.SearchFiltered(ctx, &db.FilterQuery{
		IndexName:    r.indexName(cfg.Name()),
		Filters:      expr,
		Offset:       offset,
		Limit:        limit,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search %s: %w", cfg.Name(), err)
	}
	if result == nil {
		return nil, 0, nil
	}

	docs, err := r.parseEntries(cfg, result.Entries)
	if err != nil {
		return nil, 0, err
	}
	return docs, result.Total, nil
}

// Scan streams every document of the collection to fn. It walks the keyspace
// with a SCAN cursor over the collection prefix and loads each page with one
// JSON.MGET. A SCAN cursor returns every key present for the whole iteration,
// so concurrent deletes or rewrites never shift the remaining documents. Keys
// deleted between SCAN and JSON.MGET are skipped. Iteration stops at the first
// error returned by fn.
func (r *Repo) Scan(ctx context.Context, cfg domcol.Config, fn func(*domdoc.Document) error) error {
	pattern := escapeGlob(r.collectionPrefix(cfg.Name())) + "*"
	seen := make(map[string]bool)
	var cursor uint64
	for {
		keys, next, err := r.store.Scan(ctx, cursor, pattern, jsonKeyType, scanPageSize)
		if err != nil {
			return fmt.Errorf("scan %s at cursor %d: %w", cfg.Name(), cursor, err)
		}

		// SCAN may return a key more than once.
		fresh := keys[:0:0]
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}

		if len(fresh) > 0 {
			raws, err := r.store.JSONMGet(ctx, fresh, "$")
			if err != nil {
				return fmt.Errorf("load %s page: %w", cfg.Name(), err)
			}
			for i, raw := range raws {
				if raw == nil {
					continue
				}
				doc, err := parseJSONGetResult(cfg, r.extractDocID(fresh[i], cfg.Name()), raw)
				if err != nil {
					return err
				}
				if err := fn(doc); err != nil {
					return err
				}
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Count returns the number of documents in a collection.
func (r *Repo) Count(ctx context.Context, cfg domcol.Config) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(cfg.Name()), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", cfg.Name(), err)
	}
	return n, nil
}

func (r *Repo) parseEntries(cfg domcol.Config, entries []db.SearchEntry) ([]*domdoc.Document, error) {
	docs := make([]*domdoc.Document, 0, len(entries))
	for _, entry := range entries {
		id := r.extractDocID(entry.Key, cfg.Name())
		raw := entry.Fields["$"]
		if raw == "" {
			continue
		}
		doc, err := parseJSONDoc(cfg, id, []byte(raw))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Repo) docKey(collection, id string) string {
	return r.collectionPrefix(collection) + id
}

func (r *Repo) collectionPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", r.prefix, collection)
}

func (r *Repo) indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", r.prefix, collection)
}

func (r *Repo) extractDocID(key, collection string) string {
	return strings.TrimPrefix(key, r.collectionPrefix(collection))
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// escapeGlob quotes the SCAN MATCH metacharacters in s.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
