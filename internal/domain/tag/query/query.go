// Package query builds tag membership filters for a collection, picking the
// target field from the collection's tag variant.
package query

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/tagdex/internal/domain"
	"github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/locale"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// Builder translates tagged_with requests into filter expressions (not results).
type Builder interface {
	TaggedWith(ctx context.Context, t string) (filter.Expression, error)
	TaggedWithAll(ctx context.Context, tags ...[]string) (filter.Expression, error)
	TaggedWithAny(ctx context.Context, tags ...[]string) (filter.Expression, error)
}

// New returns the builder matching the collection variant. Localized builders
// resolve the locale from locales on every call; a locale the collection does
// not declare has no search field and selects nothing.
func New(cfg collection.Config, locales locale.Provider) Builder {
	if cfg.IsLocalized() {
		return &localized{cfg: cfg, locales: locales}
	}
	return flat{}
}

type flat struct{}

func (flat) TaggedWith(_ context.Context, t string) (filter.Expression, error) {
	return wrap(filter.TaggedWith(tag.Field, t))
}

func (flat) TaggedWithAll(_ context.Context, tags ...[]string) (filter.Expression, error) {
	return wrap(filter.TaggedWithAll(tag.Field, tags...))
}

func (flat) TaggedWithAny(_ context.Context, tags ...[]string) (filter.Expression, error) {
	return wrap(filter.TaggedWithAny(tag.Field, tags...))
}

type localized struct {
	cfg     collection.Config
	locales locale.Provider
}

// field returns the search key for the caller's locale. ok is false when the
// locale is not declared on the collection.
func (l *localized) field(ctx context.Context) (key string, ok bool, err error) {
	loc := ""
	if l.locales != nil {
		loc = l.locales.Locale(ctx)
	}
	if loc == "" {
		return "", false, fmt.Errorf("no locale resolved for localized query: %w", domain.ErrInvalidQuery)
	}
	if !l.cfg.HasLocale(loc) {
		return "", false, nil
	}
	return tag.LocaleField(loc), true, nil
}

func (l *localized) TaggedWith(ctx context.Context, t string) (filter.Expression, error) {
	key, ok, err := l.field(ctx)
	if err != nil || !ok {
		return filter.MatchNone(), err
	}
	return wrap(filter.TaggedWith(key, t))
}

func (l *localized) TaggedWithAll(ctx context.Context, tags ...[]string) (filter.Expression, error) {
	key, ok, err := l.field(ctx)
	if err != nil || !ok {
		return filter.MatchNone(), err
	}
	return wrap(filter.TaggedWithAll(key, tags...))
}

func (l *localized) TaggedWithAny(ctx context.Context, tags ...[]string) (filter.Expression, error) {
	key, ok, err := l.field(ctx)
	if err != nil || !ok {
		return filter.MatchNone(), err
	}
	return wrap(filter.TaggedWithAny(key, tags...))
}

func wrap(expr filter.Expression, err error) (filter.Expression, error) {
	if err != nil {
		return filter.Expression{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	return expr, nil
}
