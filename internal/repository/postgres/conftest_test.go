package postgres

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domcol "github.com/kailas-cloud/tagdex/internal/domain/collection"
	"github.com/kailas-cloud/tagdex/internal/domain/tag"
)

// fakeDB implements DB with per-method hooks. Unset hooks fail the test.
type fakeDB struct {
	t          *testing.T
	execFn     func(sql string, args []any) (pgconn.CommandTag, error)
	queryFn    func(sql string, args []any) (pgx.Rows, error)
	queryRowFn func(sql string, args []any) pgx.Row
	beginFn    func() (pgx.Tx, error)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execFn == nil {
		f.t.Fatalf("unexpected Exec: %s", sql)
	}
	return f.execFn(sql, args)
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.queryFn == nil {
		f.t.Fatalf("unexpected Query: %s", sql)
	}
	return f.queryFn(sql, args)
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if f.queryRowFn == nil {
		f.t.Fatalf("unexpected QueryRow: %s", sql)
	}
	return f.queryRowFn(sql, args)
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if f.beginFn == nil {
		f.t.Fatal("unexpected Begin")
	}
	return f.beginFn()
}

// fakeRow returns one row of values or an error.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

// fakeRows serves canned rows. Only the iteration methods are implemented.
type fakeRows struct {
	pgx.Rows
	data [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return assign(dest, r.data[r.pos-1]) }
func (r *fakeRows) Close()                 {}
func (r *fakeRows) Err() error             { return nil }

// fakeTx records the calls of a transaction.
type fakeTx struct {
	pgx.Tx
	calls   []string
	copied  [][]any
	copyErr error
}

func (tx *fakeTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	tx.calls = append(tx.calls, "exec")
	return pgconn.NewCommandTag("DELETE 3"), nil
}

func (tx *fakeTx) CopyFrom(
	_ context.Context, _ pgx.Identifier, _ []string, src pgx.CopyFromSource,
) (int64, error) {
	tx.calls = append(tx.calls, "copy")
	if tx.copyErr != nil {
		return 0, tx.copyErr
	}
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		tx.copied = append(tx.copied, vals)
	}
	return int64(len(tx.copied)), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.calls = append(tx.calls, "commit")
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.calls = append(tx.calls, "rollback")
	return nil
}

func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		if v == nil {
			continue
		}
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
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
