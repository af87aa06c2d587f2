// Package postgres implements the document and tag index repositories on Postgres.
package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/tagdex/internal/domain"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

const (
	documentsTable = "tagdex_documents"
	tagIndexTable  = "tagdex_tag_index"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// buildWhere translates a filter expression into a predicate over one collection.
// Must conditions sharing a key collapse into one containment test, should
// conditions into one overlap test per key, OR'ed together.
func buildWhere(collection string, expr filter.Expression) (sq.Sqlizer, error) {
	where := sq.And{sq.Eq{"collection": collection}}

	for _, g := range groupByKey(expr.Must()) {
		p, err := tagPredicate(g.key, g.tags, true)
		if err != nil {
			return nil, err
		}
		where = append(where, p)
	}

	if should := groupByKey(expr.Should()); len(should) > 0 {
		anyOf := make(sq.Or, 0, len(should))
		for _, g := range should {
			p, err := tagPredicate(g.key, g.tags, false)
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, p)
		}
		where = append(where, anyOf)
	}
	return where, nil
}

// tagPredicate targets the text[] column for flat keys and one locale's array
// inside localized_tags for "tags.<locale>" keys. The function forms of ?& and ?|
// keep squirrel's placeholders unambiguous.
func tagPredicate(key string, tags []string, all bool) (sq.Sqlizer, error) {
	locale, ok := tag.SplitField(key)
	if !ok {
		return nil, fmt.Errorf("unsupported filter field %q: %w", key, domain.ErrInvalidQuery)
	}
	switch {
	case locale == "" && all:
		return sq.Expr("tags @> ?", tags), nil
	case locale == "":
		return sq.Expr("tags && ?", tags), nil
	case all:
		return sq.Expr("jsonb_exists_all(localized_tags -> ?, ?)", locale, tags), nil
	default:
		return sq.Expr("jsonb_exists_any(localized_tags -> ?, ?)", locale, tags), nil
	}
}

type keyGroup struct {
	key  string
	tags []string
}

func groupByKey(conds []filter.Condition) []keyGroup {
	var out []keyGroup
	pos := make(map[string]int)
	for _, c := range conds {
		i, ok := pos[c.Key()]
		if !ok {
			i = len(out)
			pos[c.Key()] = i
			out = append(out, keyGroup{key: c.Key()})
		}
		out[i].tags = append(out[i].tags, c.Match())
	}
	return out
}
