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
)

type ContactSQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewContactSQLiteStore(db *sql.DB) *ContactSQLiteStore {
	return &ContactSQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func scanSQLiteContact(scan func(dest ...any) error) (types.Contact, error) {
	var (
		r                contactRow
		created, updated string
	)
	if err := scan(append(r.dest(), &created, &updated)...); err != nil {
		return types.Contact{}, err
	}
	c := r.contact()
	c.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	c.UpdatedAt, _ = time.Parse(sqliteTimeLayout, updated)
	return c, nil
}

// mapContactSQLiteError reports a dangling reference without naming it;
// SQLite does not say which foreign key failed.
func mapContactSQLiteError(op string, c types.Contact, err error) error {
	switch constraintOf(err) {
	case sqliteForeignKey:
		return &hierarchy.NotFoundError{Collection: "reference", ID: c.ID}
	case sqliteUnique:
		return &hierarchy.ValidationError{Field: "id", Message: "already exists"}
	case sqliteCheck:
		return &hierarchy.ValidationError{Message: err.Error()}
	}
	return &hierarchy.StoreError{Op: op, Err: err}
}

func (s *ContactSQLiteStore) List(ctx context.Context, filter ports.ContactFilter) ([]types.Contact, error) {
	where, args := contactWhere(filter, sqlitePlaceholder, "")
	rows, err := s.db.QueryContext(ctx, contactSelect("")+where+" ORDER BY c.full_name, c.id", args...)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}
	defer rows.Close()

	out := make([]types.Contact, 0)
	for rows.Next() {
		c, err := scanSQLiteContact(rows.Scan)
		if err != nil {
			return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}
	return out, nil
}

func (s *ContactSQLiteStore) Get(ctx context.Context, id string) (types.Contact, error) {
	c, err := scanSQLiteContact(s.db.QueryRowContext(ctx, contactSelect("")+" WHERE c.id = ?", id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
		}
		return types.Contact{}, &hierarchy.StoreError{Op: "get contact", Err: err}
	}
	return c, nil
}

func (s *ContactSQLiteStore) Create(ctx context.Context, c types.Contact) (types.Contact, error) {
	if c.ID == "" {
		id, err := newUUID()
		if err != nil {
			return types.Contact{}, &hierarchy.StoreError{Op: "create contact", Err: err}
		}
		c.ID = id
	}
	now := s.now().Format(sqliteTimeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "create contact", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	cols := append([]string{"id"}, contactColumns...)
	cols = append(cols, "created_at", "updated_at")
	vals := []string{"?"}
	for _, col := range contactColumns {
		vals = append(vals, contactValueExpr(col, "?", ""))
	}
	vals = append(vals, "?", "?")
	args := append([]any{c.ID}, contactArgs(c)...)
	args = append(args, now, now)

	if _, err := tx.ExecContext(ctx, "INSERT INTO contacts ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(vals, ", ")+")", args...); err != nil {
		return types.Contact{}, mapContactSQLiteError("create contact", c, err)
	}
	if err := insertSQLiteDetails(ctx, tx, c); err != nil {
		return types.Contact{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Contact{}, mapContactSQLiteError("create contact", c, err)
	}

	c.CreatedAt, _ = time.Parse(sqliteTimeLayout, now)
	c.UpdatedAt = c.CreatedAt
	return c, nil
}

func insertSQLiteDetails(ctx context.Context, tx *sql.Tx, c types.Contact) error {
	if p, ok := c.Person(); ok {
		_, err := tx.ExecContext(ctx, `INSERT INTO person_details (contact_id, title, designation_id, mobile_no_1, mobile_no_2, personal_email, status)
VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?)`,
			c.ID, string(p.Title), p.DesignationID, p.MobileNo1, p.MobileNo2, p.PersonalEmail, string(p.Status))
		if err != nil {
			return mapContactSQLiteError("person details", c, err)
		}
		return nil
	}
	b, _ := c.Building()
	if _, err := tx.ExecContext(ctx, `INSERT INTO building_details (contact_id, status) VALUES (?, ?)`, c.ID, string(b.Status)); err != nil {
		return mapContactSQLiteError("building details", c, err)
	}
	return nil
}

func (s *ContactSQLiteStore) Update(ctx context.Context, c types.Contact) (types.Contact, error) {
	now := s.now().Format(sqliteTimeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "update contact", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var created string
	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM contacts WHERE id = ?", c.ID).Scan(&created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: c.ID}
		}
		return types.Contact{}, &hierarchy.StoreError{Op: "update contact", Err: err}
	}

	sets := make([]string, 0, len(contactColumns)+1)
	for _, col := range contactColumns {
		sets = append(sets, col+" = "+contactValueExpr(col, "?", ""))
	}
	sets = append(sets, "updated_at = ?")
	args := append(contactArgs(c), now, c.ID)
	if _, err := tx.ExecContext(ctx, "UPDATE contacts SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return types.Contact{}, mapContactSQLiteError("update contact", c, err)
	}
	for _, table := range []string{"person_details", "building_details"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE contact_id = ?", c.ID); err != nil {
			return types.Contact{}, mapContactSQLiteError("update contact", c, err)
		}
	}
	if err := insertSQLiteDetails(ctx, tx, c); err != nil {
		return types.Contact{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Contact{}, mapContactSQLiteError("update contact", c, err)
	}

	c.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	c.UpdatedAt, _ = time.Parse(sqliteTimeLayout, now)
	return c, nil
}

func (s *ContactSQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return &hierarchy.StoreError{Op: "delete contact", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
	}
	return nil
}

func (s *ContactSQLiteStore) CountByDesignation(ctx context.Context, designationID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM person_details WHERE designation_id = ?", designationID).Scan(&n); err != nil {
		return 0, &hierarchy.StoreError{Op: "count contacts", Err: err}
	}
	return n, nil
}

func (s *ContactSQLiteStore) StaffCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT designation_id, count(*) FROM person_details WHERE designation_id IS NOT NULL GROUP BY designation_id`)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "staff counts", Err: err}
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, &hierarchy.StoreError{Op: "staff counts", Err: err}
		}
		out[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, &hierarchy.StoreError{Op: "staff counts", Err: err}
	}
	return out, nil
}
