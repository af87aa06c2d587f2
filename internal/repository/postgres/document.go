package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/kailas-cloud/tagdex/internal/domain"
	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	domdoc "github.com/kailas-cloud/tagdex/internal/domain/document"
	"github.com/kailas-cloud/tagdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// scanPageSize is the keyset page used by full collection scans.
const scanPageSize = 500

var documentColumns = []string{"id", "fields", "tags", "localized_tags"}

// DocumentRepo implements usecase/tagging.DocumentRepository on Postgres.
type DocumentRepo struct {
	db DB
}

// NewDocumentRepo creates a Postgres document repository.
func NewDocumentRepo(db DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// docRow is the scanned shape of one tagdex_documents row.
type docRow struct {
	ID        string
	Fields    []byte
	Tags      []string
	Localized []byte
}

// Save upserts a document. Returns true if the row was inserted.
func (r *DocumentRepo) Save(ctx context.Context, cfg domcol.Config, doc *domdoc.Document) (bool, error) {
	fields, tags, localized, err := encodeDocument(doc)
	if err != nil {
		return false, err
	}

	sql, args, err := psql.Insert(documentsTable).
		Columns("collection", "id", "fields", "tags", "localized_tags").
		Values(cfg.Name(), doc.ID(), fields, tags, localized).
		Suffix("ON CONFLICT (collection, id) DO UPDATE SET " +
			"fields = EXCLUDED.fields, tags = EXCLUDED.tags, localized_tags = EXCLUDED.localized_tags " +
			"RETURNING (xmax = 0)").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build upsert: %w", err)
	}

	var inserted bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&inserted); err != nil {
		return false, fmt.Errorf("upsert %s/%s: %w", cfg.Name(), doc.ID(), err)
	}
	return inserted, nil
}

// Get returns a document by ID.
func (r *DocumentRepo) Get(ctx context.Context, cfg domcol.Config, id string) (*domdoc.Document, error) {
	sql, args, err := psql.Select(documentColumns...).
		From(documentsTable).
		Where(sq.Eq{"collection": cfg.Name(), "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row docRow
	err = r.db.QueryRow(ctx, sql, args...).Scan(&row.ID, &row.Fields, &row.Tags, &row.Localized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("select %s/%s: %w", cfg.Name(), id, err)
	}
	return row.toDomain(cfg)
}

// Delete removes a document.
func (r *DocumentRepo) Delete(ctx context.Context, cfg domcol.Config, id string) error {
	sql, args, err := psql.Delete(documentsTable).
		Where(sq.Eq{"collection": cfg.Name(), "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	ct, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", cfg.Name(), id, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Find returns one page of documents matching expr, ordered by ID, and the total match count.
// A match-none expression returns nothing without touching the database.
func (r *DocumentRepo) Find(
	ctx context.Context, cfg domcol.Config, expr filter.Expression, offset, limit int,
) ([]*domdoc.Document, int, error) {
	if expr.IsMatchNone() {
		return nil, 0, nil
	}

	where, err := buildWhere(cfg.Name(), expr)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, where)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", cfg.Name(), err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	sql, args, err := psql.Select(documentColumns...).
		From(documentsTable).
		Where(where).
		OrderBy("id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build find: %w", err)
	}

	docs, err := r.query(ctx, cfg, sql, args)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Scan streams every document of the collection to fn using keyset pagination.
// Iteration stops at the first error returned by fn.
func (r *DocumentRepo) Scan(ctx context.Context, cfg domcol.Config, fn func(*domdoc.Document) error) error {
	after := ""
	for {
		sql, args, err := psql.Select(documentColumns...).
			From(documentsTable).
			Where(sq.Eq{"collection": cfg.Name()}).
			Where(sq.Gt{"id": after}).
			OrderBy("id").
			Limit(scanPageSize).
			ToSql()
		if err != nil {
			return fmt.Errorf("build scan: %w", err)
		}

		docs, err := r.query(ctx, cfg, sql, args)
		if err != nil {
			return fmt.Errorf("scan %s after %q: %w", cfg.Name(), after, err)
		}
		for _, doc := range docs {
			if err := fn(doc); err != nil {
				return err
			}
		}
		if len(docs) < scanPageSize {
			return nil
		}
		after = docs[len(docs)-1].ID()
	}
}

// Count returns the number of documents in a collection.
func (r *DocumentRepo) Count(ctx context.Context, cfg domcol.Config) (int, error) {
	n, err := r.count(ctx, sq.Eq{"collection": cfg.Name()})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", cfg.Name(), err)
	}
	return n, nil
}

func (r *DocumentRepo) count(ctx context.Context, where sq.Sqlizer) (int, error) {
	sql, args, err := psql.Select("count(*)").From(documentsTable).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *DocumentRepo) query(ctx context.Context, cfg domcol.Config, sql string, args []any) ([]*domdoc.Document, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*domdoc.Document, 0)
	for rows.Next() {
		var row docRow
		if err := rows.Scan(&row.ID, &row.Fields, &row.Tags, &row.Localized); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := row.toDomain(cfg)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// encodeDocument renders the jsonb and text[] column values. The unused variant
// column gets its empty value so NOT NULL holds.
func encodeDocument(doc *domdoc.Document) (fields []byte, tags []string, localized []byte, err error) {
	fields, err = json.Marshal(doc.Fields())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal fields: %w", err)
	}

	tags = []string{}
	byLocale := map[string]tag.Set{}
	if f, ok := doc.Flat(); ok {
		tags = f.Tags()
	}
	if l, ok := doc.Localized(); ok {
		byLocale = l.All()
	}

	localized, err = json.Marshal(byLocale)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal localized tags: %w", err)
	}
	return fields, tags, localized, nil
}

func (row docRow) toDomain(cfg domcol.Config) (*domdoc.Document, error) {
	fields := map[string]string{}
	if len(row.Fields) > 0 {
		if err := json.Unmarshal(row.Fields, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields of %s: %w", row.ID, err)
		}
	}

	if !cfg.IsLocalized() {
		return domdoc.Reconstruct(row.ID, fields, tag.LoadFlat(cfg.Separator(), row.Tags)), nil
	}

	byLocale := map[string]tag.Set{}
	if len(row.Localized) > 0 {
		if err := json.Unmarshal(row.Localized, &byLocale); err != nil {
			return nil, fmt.Errorf("unmarshal localized tags of %s: %w", row.ID, err)
		}
	}
	return domdoc.Reconstruct(row.ID, fields, tag.LoadLocalized(cfg.Separator(), byLocale)), nil
}
