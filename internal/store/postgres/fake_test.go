package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records statements and replays canned results.
type fakeDB struct {
	lastSQL  string
	lastArgs []any

	rows    [][]any
	row     []any
	rowErr  error
	execTag string
	err     error
	closed  bool
	pingErr error
}

func (f *fakeDB) record(sql string, args []any) {
	f.lastSQL, f.lastArgs = sql, args
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(f.execTag), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{data: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	switch {
	case f.err != nil:
		return fakeRow{err: f.err}
	case f.rowErr != nil:
		return fakeRow{err: f.rowErr}
	case f.row == nil:
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.row}
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) Close() { f.closed = true }

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
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.idx], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.idx], nil
}

// assign copies values into scan destinations of the matching pointer type.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *[]string:
			*d = v.([]string)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v == nil {
				*d = nil
			} else {
				t := v.(time.Time)
				*d = &t
			}
		case *float64:
			*d = v.(float64)
		default:
			return errors.New("scan: unsupported destination")
		}
	}
	return nil
}

func noteRow(id int64, content string, tags []string, created time.Time, deleted any) []any {
	return []any{id, content, tags, created, created, deleted}
}
