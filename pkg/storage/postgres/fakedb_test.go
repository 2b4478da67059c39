package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow replays canned column values into Scan destinations.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		v := reflect.ValueOf(r.values[i])
		if !v.IsValid() {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(v.Convert(target.Type()))
	}
	return nil
}

type execResult struct {
	match string
	tag   string
	err   error
}

type rowResult struct {
	match string
	row   fakeRow
}

type statement struct {
	sql  string
	args []any
}

// fakeDB answers statements by the first scripted entry whose text appears in the SQL.
// Transactions share the same script and record whether they committed.
type fakeDB struct {
	mu         sync.Mutex
	execs      []execResult
	rows       []rowResult
	statements []statement
	committed  bool
	rolledBack bool
}

var _ DB = (*fakeDB)(nil)

func (f *fakeDB) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statements = append(f.statements, statement{sql: sql, args: args})
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return &fakeTx{db: f}, nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.record(sql, arguments)
	for _, e := range f.execs {
		if strings.Contains(sql, e.match) {
			return pgconn.NewCommandTag(e.tag), e.err
		}
	}
	return pgconn.CommandTag{}, fmt.Errorf("unscripted exec: %s", sql)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	return nil, errors.New("fakeDB does not script multi-row queries")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	for _, r := range f.rows {
		if strings.Contains(sql, r.match) {
			return r.row
		}
	}
	return fakeRow{err: fmt.Errorf("unscripted query: %s", sql)}
}

// ran reports whether a statement containing match was executed.
func (f *fakeDB) ran(match string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statements {
		if strings.Contains(s.sql, match) {
			return true
		}
	}
	return false
}

func (f *fakeDB) statement(match string) (statement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.statements {
		if strings.Contains(s.sql, match) {
			return s, true
		}
	}
	return statement{}, false
}

// fakeTx embeds pgx.Tx for the methods the Store never calls.
type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, arguments...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.db.Query(ctx, sql, args...)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if !t.db.committed {
		t.db.rolledBack = true
	}
	return nil
}
