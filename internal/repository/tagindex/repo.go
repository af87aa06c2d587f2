package tagindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
)

// store is the consumer interface for tag indexes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Rename(ctx context.Context, src, dst string) error
	Del(ctx context.Context, key string) error
}

// Repo stores each tag index as one hash: field = composite key, value = count.
type Repo struct {
	store  store
	prefix string
	newID  func() string
}

// New creates a tag index repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, newID: uuid.NewString}
}

// Replace overwrites the whole index. Entries are written to a staging hash that
// is then renamed over the live key, so readers see either the old or the new
// index. On failure the live index is untouched and the staging hash is removed.
func (r *Repo) Replace(ctx context.Context, indexName string, entries []tagindex.Entry) error {
	live := r.indexKey(indexName)

	if len(entries) == 0 {
		if err := r.store.Del(ctx, live); err != nil {
			return fmt.Errorf("clear index %s: %w", indexName, err)
		}
		return nil
	}

	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[e.Key()] = strconv.FormatInt(e.Count, 10)
	}

	staging := fmt.Sprintf("%s:staging:%s", live, r.newID())
	if err := r.store.HSet(ctx, staging, fields); err != nil {
		return errors.Join(
			fmt.Errorf("stage index %s: %w", indexName, err),
			r.discard(ctx, staging),
		)
	}

	if err := r.store.Rename(ctx, staging, live); err != nil {
		return errors.Join(
			fmt.Errorf("swap index %s: %w", indexName, err),
			r.discard(ctx, staging),
		)
	}
	return nil
}

// Entries loads every record of an index, sorted by locale then tag.
// A missing index yields no entries.
func (r *Repo) Entries(ctx context.Context, indexName string, localized bool) ([]tagindex.Entry, error) {
	m, err := r.store.HGetAll(ctx, r.indexKey(indexName))
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", indexName, err)
	}

	out := make([]tagindex.Entry, 0, len(m))
	for key, raw := range m {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("index %s: bad count %q for %q: %w", indexName, raw, key, err)
		}
		loc, t := tagindex.DecodeKey(key, localized)
		out = append(out, tagindex.Entry{Tag: t, Locale: loc, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Locale != out[j].Locale {
			return out[i].Locale < out[j].Locale
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (r *Repo) discard(ctx context.Context, staging string) error {
	if err := r.store.Del(ctx, staging); err != nil {
		return fmt.Errorf("discard staging %s: %w", staging, err)
	}
	return nil
}

func (r *Repo) indexKey(indexName string) string {
	return r.prefix + indexName
}
