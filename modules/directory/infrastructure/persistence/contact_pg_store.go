package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

const contactsCollection = "contacts"

type ContactPGStore struct {
	pool pgBeginner
}

func NewContactPGStore(pool pgBeginner) *ContactPGStore {
	return &ContactPGStore{pool: pool}
}

// referenceOf names the referenced collection and id behind a foreign key
// constraint such as contacts_department_id_fkey.
func referenceOf(c types.Contact, constraint string) (string, string) {
	switch {
	case strings.Contains(constraint, "department_id"):
		return string(types.CollectionDepartments), c.DepartmentID
	case strings.Contains(constraint, "institute_id"):
		return string(types.CollectionInstitutes), c.InstituteID
	case strings.Contains(constraint, "subdivision_id"):
		return string(types.CollectionSubdivisions), c.SubdivisionID
	case strings.Contains(constraint, "unit_id"):
		return string(types.CollectionUnits), c.UnitID
	case strings.Contains(constraint, "designation_id"):
		p, _ := c.Person()
		return string(types.CollectionDesignations), p.DesignationID
	}
	return "reference", ""
}

func mapContactPgError(op string, c types.Contact, err error) error {
	if pgErrorCode(err) == pgForeignKeyViolation {
		constraint := ""
		if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
			constraint = pgErr.ConstraintName
		}
		collection, id := referenceOf(c, constraint)
		return &hierarchy.NotFoundError{Collection: collection, ID: id}
	}
	if pgErrorCode(err) == pgUniqueViolation {
		return &hierarchy.ValidationError{Field: "id", Message: "already exists"}
	}
	return mapPgError(op, contactsCollection, c.ID, err)
}

func (s *ContactPGStore) List(ctx context.Context, filter ports.ContactFilter) ([]types.Contact, error) {
	where, args := contactWhere(filter, pgPlaceholder, "::uuid")

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, contactSelect("::text")+where+" ORDER BY c.full_name, c.id", args...)
	if err != nil {
		if isPgInvalidInput(err) {
			return []types.Contact{}, nil
		}
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}
	defer rows.Close()

	out := make([]types.Contact, 0)
	for rows.Next() {
		c, err := scanPGContact(rows)
		if err != nil {
			return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		if isPgInvalidInput(err) {
			return []types.Contact{}, nil
		}
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &hierarchy.StoreError{Op: "list contacts", Err: err}
	}
	return out, nil
}

func scanPGContact(row pgx.Row) (types.Contact, error) {
	var r contactRow
	var c types.Contact
	dest := append(r.dest(), &c.CreatedAt, &c.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return types.Contact{}, err
	}
	out := r.contact()
	out.CreatedAt, out.UpdatedAt = c.CreatedAt, c.UpdatedAt
	return out, nil
}

func (s *ContactPGStore) Get(ctx context.Context, id string) (types.Contact, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "get contact", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	c, err := scanPGContact(tx.QueryRow(ctx, contactSelect("::text")+" WHERE c.id = $1::uuid", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgInvalidInput(err) {
			return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
		}
		return types.Contact{}, &hierarchy.StoreError{Op: "get contact", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "get contact", Err: err}
	}
	return c, nil
}

func (s *ContactPGStore) Create(ctx context.Context, c types.Contact) (types.Contact, error) {
	if c.ID == "" {
		id, err := newUUID()
		if err != nil {
			return types.Contact{}, &hierarchy.StoreError{Op: "create contact", Err: err}
		}
		c.ID = id
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "create contact", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	cols := append([]string{"id"}, contactColumns...)
	vals := []string{"$1::uuid"}
	for i, col := range contactColumns {
		vals = append(vals, contactValueExpr(col, pgPlaceholder(i+2), "::uuid"))
	}
	args := append([]any{c.ID}, contactArgs(c)...)

	sql := "INSERT INTO contacts (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(vals, ", ") + ") RETURNING created_at, updated_at"
	if err := tx.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return types.Contact{}, mapContactPgError("create contact", c, err)
	}
	if err := insertPGDetails(ctx, tx, c); err != nil {
		return types.Contact{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Contact{}, mapContactPgError("create contact", c, err)
	}
	return c, nil
}

func insertPGDetails(ctx context.Context, tx pgx.Tx, c types.Contact) error {
	if p, ok := c.Person(); ok {
		_, err := tx.Exec(ctx, `INSERT INTO person_details (contact_id, title, designation_id, mobile_no_1, mobile_no_2, personal_email, status)
VALUES ($1::uuid, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)`,
			c.ID, string(p.Title), p.DesignationID, p.MobileNo1, p.MobileNo2, p.PersonalEmail, string(p.Status))
		if err != nil {
			return mapContactPgError("person details", c, err)
		}
		return nil
	}
	b, _ := c.Building()
	if _, err := tx.Exec(ctx, `INSERT INTO building_details (contact_id, status) VALUES ($1::uuid, $2)`, c.ID, string(b.Status)); err != nil {
		return mapContactPgError("building details", c, err)
	}
	return nil
}

// Update rewrites the contact row and replaces its details, which also
// covers a change of contact type.
func (s *ContactPGStore) Update(ctx context.Context, c types.Contact) (types.Contact, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Contact{}, &hierarchy.StoreError{Op: "update contact", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	sets := make([]string, 0, len(contactColumns)+1)
	for i, col := range contactColumns {
		sets = append(sets, col+" = "+contactValueExpr(col, pgPlaceholder(i+1), "::uuid"))
	}
	sets = append(sets, "updated_at = now()")
	args := append(contactArgs(c), c.ID)

	sql := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id = " + pgPlaceholder(len(args)) + "::uuid RETURNING created_at, updated_at"
	if err := tx.QueryRow(ctx, sql, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Contact{}, &hierarchy.NotFoundError{Collection: contactsCollection, ID: c.ID}
		}
		return types.Contact{}, mapContactPgError("update contact", c, err)
	}
	for _, table := range []string{"person_details", "building_details"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE contact_id = $1::uuid", c.ID); err != nil {
			return types.Contact{}, mapContactPgError("update contact", c, err)
		}
	}
	if err := insertPGDetails(ctx, tx, c); err != nil {
		return types.Contact{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Contact{}, mapContactPgError("update contact", c, err)
	}
	return c, nil
}

func (s *ContactPGStore) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &hierarchy.StoreError{Op: "delete contact", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	tag, err := tx.Exec(ctx, "DELETE FROM contacts WHERE id = $1::uuid", id)
	if err != nil {
		return mapPgError("delete contact", contactsCollection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return &hierarchy.NotFoundError{Collection: contactsCollection, ID: id}
	}

	if err := tx.Commit(ctx); err != nil {
		return &hierarchy.StoreError{Op: "delete contact", Err: err}
	}
	return nil
}

func (s *ContactPGStore) CountByDesignation(ctx context.Context, designationID string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &hierarchy.StoreError{Op: "count contacts", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var n int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM person_details WHERE designation_id = $1::uuid", designationID).Scan(&n); err != nil {
		if isPgInvalidInput(err) {
			return 0, nil
		}
		return 0, &hierarchy.StoreError{Op: "count contacts", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &hierarchy.StoreError{Op: "count contacts", Err: err}
	}
	return n, nil
}

func (s *ContactPGStore) StaffCounts(ctx context.Context) (map[string]int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &hierarchy.StoreError{Op: "staff counts", Err: err}
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `SELECT designation_id::text, count(*) FROM person_details WHERE designation_id IS NOT NULL GROUP BY 1`)
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

	if err := tx.Commit(ctx); err != nil {
		return nil, &hierarchy.StoreError{Op: "staff counts", Err: err}
	}
	return out, nil
}
