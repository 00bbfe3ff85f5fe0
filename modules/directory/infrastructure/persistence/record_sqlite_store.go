package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// OpenSQLite opens (creating if needed) a single-file database with WAL,
// a busy timeout and foreign keys enforced on every connection.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func sqlitePlaceholder(int) string { return "?" }

const sqliteTimeLayout = time.RFC3339Nano

type sqliteConstraint string

const (
	sqliteNoConstraint sqliteConstraint = ""
	sqliteUnique       sqliteConstraint = "unique"
	sqliteForeignKey   sqliteConstraint = "foreign_key"
	sqliteCheck        sqliteConstraint = "check"
	sqliteOther        sqliteConstraint = "other"
)

// constraintOf classifies a constraint failure from either the extended
// result code or, when only the primary code is reported, the message.
func constraintOf(err error) sqliteConstraint {
	se, ok := errors.AsType[*sqlite.Error](err)
	if !ok || se == nil || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return sqliteNoConstraint
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return sqliteUnique
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return sqliteForeignKey
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return sqliteCheck
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE"):
		return sqliteUnique
	case strings.Contains(msg, "FOREIGN KEY"):
		return sqliteForeignKey
	case strings.Contains(msg, "CHECK"):
		return sqliteCheck
	}
	return sqliteOther
}

func mapSQLiteError(op string, id string, err error) error {
	switch constraintOf(err) {
	case sqliteUnique:
		return &hierarchy.OrderConflictError{}
	case sqliteForeignKey:
		if op == "delete" {
			return &hierarchy.HasChildrenError{ID: id}
		}
		return &hierarchy.NotFoundError{Collection: "parent", ID: id}
	case sqliteCheck:
		return &hierarchy.ValidationError{Message: err.Error()}
	}
	return &hierarchy.StoreError{Op: op, Err: err}
}

type RecordSQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecordSQLiteStore(db *sql.DB) *RecordSQLiteStore {
	return &RecordSQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanSQLiteRecord(scan func(dest ...any) error) (hierarchy.Record, error) {
	var (
		r                hierarchy.Record
		created, updated string
	)
	if err := scan(&r.ID, &r.Name, &r.ParentID, &r.Level, &r.Order, &created, &updated); err != nil {
		return hierarchy.Record{}, err
	}
	r.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	r.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updated)
	return r, nil
}

func (s *RecordSQLiteStore) Query(ctx context.Context, collection types.Collection, filter ports.Filter, orderBy ...ports.OrderBy) ([]hierarchy.Record, error) {
	t, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	where, args, ok := t.where(filter, sqlitePlaceholder, "")
	if !ok {
		return []hierarchy.Record{}, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+t.selectColumns("")+" FROM "+t.name+where+orderClause(t, orderBy), args...)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	out := make([]hierarchy.Record, 0)
	for rows.Next() {
		r, err := scanSQLiteRecord(rows.Scan)
		if err != nil {
			return nil, &hierarchy.StoreError{Op: "query", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}
	return out, nil
}

func (s *RecordSQLiteStore) Count(ctx context.Context, collection types.Collection, filter ports.Filter) (int, error) {
	t, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	where, args, ok := t.where(filter, sqlitePlaceholder, "")
	if !ok {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+t.name+where, args...).Scan(&n); err != nil {
		return 0, &hierarchy.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *RecordSQLiteStore) Insert(ctx context.Context, collection types.Collection, rec hierarchy.Record) (hierarchy.Record, error) {
	return s.ApplyBatch(ctx, collection, ports.Batch{Insert: &rec})
}

func (s *RecordSQLiteStore) Update(ctx context.Context, collection types.Collection, id string, patch ports.Patch) error {
	_, err := s.ApplyBatch(ctx, collection, ports.Batch{Updates: []ports.RecordUpdate{{ID: id, Patch: patch}}})
	return err
}

func (s *RecordSQLiteStore) Delete(ctx context.Context, collection types.Collection, id string) error {
	t, err := tableFor(collection)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return mapSQLiteError("delete", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &hierarchy.NotFoundError{Collection: t.name, ID: id}
	}
	return nil
}

// ApplyBatch runs in one transaction. SQLite checks unique indexes per
// statement, so every reordered row is first parked on a negative order and
// then moved to its final one.
func (s *RecordSQLiteStore) ApplyBatch(ctx context.Context, collection types.Collection, batch ports.Batch) (hierarchy.Record, error) {
	t, err := tableFor(collection)
	if err != nil {
		return hierarchy.Record{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hierarchy.Record{}, &hierarchy.StoreError{Op: "batch", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().Format(sqliteTimeLayout)

	parked := 0
	for _, u := range batch.Updates {
		if u.Patch.Order == nil {
			continue
		}
		parked++
		if _, err := tx.ExecContext(ctx, "UPDATE "+t.name+` SET "order" = ? WHERE id = ?`, -parked, u.ID); err != nil {
			return hierarchy.Record{}, mapSQLiteError("update", u.ID, err)
		}
	}

	var inserted hierarchy.Record
	if batch.Insert != nil {
		inserted, err = s.insert(ctx, tx, t, *batch.Insert, now)
		if err != nil {
			return hierarchy.Record{}, err
		}
	}

	for _, u := range batch.Updates {
		sets, args := t.setClauses(u.Patch, sqlitePlaceholder, 0, "")
		sets = append(sets, "updated_at = ?")
		args = append(args, now, u.ID)
		res, err := tx.ExecContext(ctx, "UPDATE "+t.name+" SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			ref := u.ID
			if u.Patch.ParentID != nil && constraintOf(err) == sqliteForeignKey {
				ref = *u.Patch.ParentID
			}
			return hierarchy.Record{}, mapSQLiteError("update", ref, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return hierarchy.Record{}, &hierarchy.NotFoundError{Collection: t.name, ID: u.ID}
		}
	}

	if err := tx.Commit(); err != nil {
		return hierarchy.Record{}, mapSQLiteError("batch", "", err)
	}
	return inserted, nil
}

func (s *RecordSQLiteStore) insert(ctx context.Context, tx *sql.Tx, t recordTable, rec hierarchy.Record, now string) (hierarchy.Record, error) {
	if rec.ID == "" {
		id, err := newUUID()
		if err != nil {
			return hierarchy.Record{}, &hierarchy.StoreError{Op: "insert", Err: err}
		}
		rec.ID = id
	}
	rec.Name = strings.TrimSpace(rec.Name)

	cols := []string{"id", "name", `"order"`, "created_at", "updated_at"}
	args := []any{rec.ID, rec.Name, rec.Order, now, now}
	if t.parent != "" {
		cols = append(cols, t.parent)
		var parent any
		if rec.ParentID != "" {
			parent = rec.ParentID
		}
		args = append(args, parent)
	}
	if t.hasLevel {
		cols = append(cols, "level")
		args = append(args, rec.Level)
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	if _, err := tx.ExecContext(ctx, "INSERT INTO "+t.name+" ("+strings.Join(cols, ", ")+") VALUES ("+marks+")", args...); err != nil {
		return hierarchy.Record{}, mapSQLiteError("insert", rec.ParentID, err)
	}
	rec.CreatedAt, _ = time.Parse(sqliteTimeLayout, now)
	rec.UpdatedAt = rec.CreatedAt
	return rec, nil
}
