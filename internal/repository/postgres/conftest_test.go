package postgres

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeQuerier records statements and replays canned rows.
type fakeQuerier struct {
	execSQL  []string
	execArgs [][]any
	execErr  error

	querySQL  string
	queryArgs []any
	rows      [][]any
	queryErr  error

	row []any // nil makes QueryRow report pgx.ErrNoRows

	batch      *pgx.Batch
	batchErrAt int // 1-based statement that fails; 0 means none
	batchErr   error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.querySQL, f.queryArgs = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.querySQL, f.queryArgs = sql, args
	if f.row == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.row}
}

func (f *fakeQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batch = b
	return &fakeBatch{f: f}
}

type fakeBatch struct {
	f *fakeQuerier
	n int
}

func (b *fakeBatch) Exec() (pgconn.CommandTag, error) {
	b.n++
	if b.n == b.f.batchErrAt {
		return pgconn.CommandTag{}, b.f.batchErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatch) Query() (pgx.Rows, error) { return nil, fmt.Errorf("not supported") }
func (b *fakeBatch) QueryRow() pgx.Row        { return fakeRow{err: fmt.Errorf("not supported")} }
func (b *fakeBatch) Close() error             { return nil }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return assign(r.rows[r.pos], dest) }

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.pos], nil }

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}
