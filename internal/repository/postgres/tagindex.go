package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/tagdex/internal/domain/tagindex"
)

var tagIndexColumns = []string{"index_name", "locale", "tag", "count"}

// IndexRepo implements usecase/tagging.IndexRepository on Postgres.
type IndexRepo struct {
	db DB
}

// NewIndexRepo creates a Postgres tag index repository.
func NewIndexRepo(db DB) *IndexRepo {
	return &IndexRepo{db: db}
}

// Replace overwrites every record of the index inside one transaction:
// the old rows are deleted and the new ones copied in. Readers see either
// the old or the new index.
func (r *IndexRepo) Replace(ctx context.Context, indexName string, entries []tagindex.Entry) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", indexName, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	sql, args, err := psql.Delete(tagIndexTable).Where(sq.Eq{"index_name": indexName}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err = tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear index %s: %w", indexName, err)
	}

	if len(entries) > 0 {
		rows := make([][]any, len(entries))
		for i, e := range entries {
			rows[i] = []any{indexName, e.Locale, e.Tag, e.Count}
		}
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{tagIndexTable}, tagIndexColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy index %s: %w", indexName, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit index %s: %w", indexName, err)
	}
	return nil
}

// Entries loads every record of an index, sorted by locale then tag.
// The locale lives in its own column, so localized is not needed to decode.
func (r *IndexRepo) Entries(ctx context.Context, indexName string, _ bool) ([]tagindex.Entry, error) {
	sql, args, err := psql.Select("locale", "tag", "count").
		From(tagIndexTable).
		Where(sq.Eq{"index_name": indexName}).
		OrderBy("locale", "tag").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entries: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", indexName, err)
	}
	defer rows.Close()

	out := make([]tagindex.Entry, 0)
	for rows.Next() {
		var e tagindex.Entry
		if err := rows.Scan(&e.Locale, &e.Tag, &e.Count); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index %s: %w", indexName, err)
	}
	return out, nil
}
