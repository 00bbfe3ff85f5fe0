package persistence

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
	"github.com/jacksonlee411/contact-directory/pkg/uuidv7"
)

var newUUID = uuidv7.NewString

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

func pgPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

type RecordPGStore struct {
	pool pgBeginner
}

func NewRecordPGStore(pool pgBeginner) *RecordPGStore {
	return &RecordPGStore{pool: pool}
}

func (s *RecordPGStore) Query(ctx context.Context, collection types.Collection, filter ports.Filter, orderBy ...ports.OrderBy) ([]hierarchy.Record, error) {
	t, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	where, args, ok := t.where(filter, pgPlaceholder, "::uuid")
	if !ok {
		return []hierarchy.Record{}, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, "SELECT "+t.selectColumns("::text")+" FROM "+t.name+where+orderClause(t, orderBy), args...)
	if err != nil {
		if isPgInvalidInput(err) {
			return []hierarchy.Record{}, nil
		}
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}
	defer rows.Close()

	out := make([]hierarchy.Record, 0)
	for rows.Next() {
		var r hierarchy.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.ParentID, &r.Level, &r.Order, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, &hierarchy.StoreError{Op: "query", Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if isPgInvalidInput(err) {
			return []hierarchy.Record{}, nil
		}
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &hierarchy.StoreError{Op: "query", Err: err}
	}
	return out, nil
}

func (s *RecordPGStore) Count(ctx context.Context, collection types.Collection, filter ports.Filter) (int, error) {
	t, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	where, args, ok := t.where(filter, pgPlaceholder, "::uuid")
	if !ok {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &hierarchy.StoreError{Op: "count", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var n int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM "+t.name+where, args...).Scan(&n); err != nil {
		if isPgInvalidInput(err) {
			return 0, nil
		}
		return 0, &hierarchy.StoreError{Op: "count", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &hierarchy.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *RecordPGStore) Insert(ctx context.Context, collection types.Collection, rec hierarchy.Record) (hierarchy.Record, error) {
	return s.ApplyBatch(ctx, collection, ports.Batch{Insert: &rec})
}

func (s *RecordPGStore) Update(ctx context.Context, collection types.Collection, id string, patch ports.Patch) error {
	_, err := s.ApplyBatch(ctx, collection, ports.Batch{Updates: []ports.RecordUpdate{{ID: id, Patch: patch}}})
	return err
}

func (s *RecordPGStore) Delete(ctx context.Context, collection types.Collection, id string) error {
	t, err := tableFor(collection)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &hierarchy.StoreError{Op: "delete", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	tag, err := tx.Exec(ctx, "DELETE FROM "+t.name+" WHERE id = $1::uuid", id)
	if err != nil {
		return mapPgError("delete", t.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return &hierarchy.NotFoundError{Collection: t.name, ID: id}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError("delete", t.name, id, err)
	}
	return nil
}

// ApplyBatch runs the insert and every update in one transaction. Sibling
// order uniqueness is checked at COMMIT, so updates may be issued in any
// order.
func (s *RecordPGStore) ApplyBatch(ctx context.Context, collection types.Collection, batch ports.Batch) (hierarchy.Record, error) {
	t, err := tableFor(collection)
	if err != nil {
		return hierarchy.Record{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return hierarchy.Record{}, &hierarchy.StoreError{Op: "batch", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var inserted hierarchy.Record
	if batch.Insert != nil {
		inserted, err = insertPGRecord(ctx, tx, t, *batch.Insert)
		if err != nil {
			return hierarchy.Record{}, err
		}
	}

	for _, u := range batch.Updates {
		if err := updatePGRecord(ctx, tx, t, u); err != nil {
			return hierarchy.Record{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return hierarchy.Record{}, mapPgError("batch", t.name, "", err)
	}
	return inserted, nil
}

func insertPGRecord(ctx context.Context, tx pgx.Tx, t recordTable, rec hierarchy.Record) (hierarchy.Record, error) {
	if rec.ID == "" {
		id, err := newUUID()
		if err != nil {
			return hierarchy.Record{}, &hierarchy.StoreError{Op: "insert", Err: err}
		}
		rec.ID = id
	}

	cols := []string{"id", "name", `"order"`}
	vals := []string{"$1::uuid", "$2", "$3"}
	args := []any{rec.ID, strings.TrimSpace(rec.Name), rec.Order}
	if t.parent != "" {
		args = append(args, rec.ParentID)
		cols = append(cols, t.parent)
		vals = append(vals, "NULLIF("+pgPlaceholder(len(args))+", '')::uuid")
	}
	if t.hasLevel {
		args = append(args, rec.Level)
		cols = append(cols, "level")
		vals = append(vals, pgPlaceholder(len(args)))
	}

	sql := "INSERT INTO " + t.name + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ") RETURNING created_at, updated_at"
	if err := tx.QueryRow(ctx, sql, args...).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return hierarchy.Record{}, mapPgError("insert", t.name, rec.ParentID, err)
	}
	return rec, nil
}

func updatePGRecord(ctx context.Context, tx pgx.Tx, t recordTable, u ports.RecordUpdate) error {
	sets, args := t.setClauses(u.Patch, pgPlaceholder, 0, "::uuid")
	sets = append(sets, "updated_at = now()")
	args = append(args, u.ID)

	sql := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") + " WHERE id = " + pgPlaceholder(len(args)) + "::uuid"
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation && u.Patch.ParentID != nil {
			return mapPgError("update", t.name, *u.Patch.ParentID, err)
		}
		return mapPgError("update", t.name, u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &hierarchy.NotFoundError{Collection: t.name, ID: u.ID}
	}
	return nil
}
