package ports

import (
	"context"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
)

// ContactFilter fields are exact matches; empty fields are ignored.
type ContactFilter struct {
	Type          types.ContactType
	DepartmentID  string
	InstituteID   string
	SubdivisionID string
	UnitID        string
	DesignationID string
	Status        string
}

type ContactStore interface {
	List(ctx context.Context, filter ContactFilter) ([]types.Contact, error)
	Get(ctx context.Context, id string) (types.Contact, error)
	Create(ctx context.Context, c types.Contact) (types.Contact, error)
	Update(ctx context.Context, c types.Contact) (types.Contact, error)
	// Delete removes the contact together with its details row.
	Delete(ctx context.Context, id string) error
	CountByDesignation(ctx context.Context, designationID string) (int, error)
	// StaffCounts maps designation id to the number of people holding it.
	StaffCounts(ctx context.Context) (map[string]int, error)
}
