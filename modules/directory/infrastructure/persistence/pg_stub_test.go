package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type beginFunc func(ctx context.Context) (pgx.Tx, error)

func (f beginFunc) Begin(ctx context.Context) (pgx.Tx, error) { return f(ctx) }

func beginTx(tx *txStub) beginFunc {
	return func(context.Context) (pgx.Tx, error) { return tx, nil }
}

var errBegin = errors.New("begin")

func failingBegin() beginFunc {
	return func(context.Context) (pgx.Tx, error) { return nil, errBegin }
}

type txStub struct {
	execErr   error
	execErrAt int
	execTag   string
	queryErr  error
	rows      [][]any
	rowsErr   error
	row       pgx.Row
	commitErr error

	execs     []string
	queries   []string
	args      [][]any
	committed bool
}

func (t *txStub) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *txStub) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}
func (t *txStub) Rollback(context.Context) error { return nil }
func (t *txStub) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *txStub) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return fakeBatchResults{} }
func (t *txStub) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *txStub) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *txStub) Conn() *pgx.Conn { return nil }

// Exec fails on call number execErrAt (1-based; 0 means every call).
func (t *txStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	t.args = append(t.args, args)
	if t.execErr != nil && (t.execErrAt == 0 || t.execErrAt == len(t.execs)) {
		return pgconn.CommandTag{}, t.execErr
	}
	tag := t.execTag
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (t *txStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.queries = append(t.queries, sql)
	t.args = append(t.args, args)
	if t.queryErr != nil {
		return nil, t.queryErr
	}
	return &stubRows{data: t.rows, err: t.rowsErr}, nil
}

func (t *txStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	t.queries = append(t.queries, sql)
	t.args = append(t.args, args)
	if t.row != nil {
		return t.row
	}
	return stubRow{err: errors.New("row not mocked")}
}

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Close()                        {}
func (r *stubRows) Err() error                    { return r.err }
func (r *stubRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}
func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}
func (r *stubRows) Scan(dest ...any) error {
	assign(dest, r.data[r.idx-1])
	return nil
}
func (r *stubRows) Values() ([]any, error) { return nil, nil }
func (r *stubRows) RawValues() [][]byte    { return nil }
func (r *stubRows) Conn() *pgx.Conn        { return nil }

type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	assign(dest, r.vals)
	return nil
}

func assign(dest []any, vals []any) {
	for i := range dest {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		switch d := dest[i].(type) {
		case *string:
			*d = vals[i].(string)
		case *int:
			*d = vals[i].(int)
		case *time.Time:
			*d = vals[i].(time.Time)
		}
	}
}

type fakeBatchResults struct{}

func (fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (fakeBatchResults) Query() (pgx.Rows, error)         { return &stubRows{}, nil }
func (fakeBatchResults) QueryRow() pgx.Row                { return stubRow{} }
func (fakeBatchResults) Close() error                     { return nil }

func pgError(code string, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint, Message: "stub " + code}
}
