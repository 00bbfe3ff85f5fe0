package ports

import (
	"context"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

// Filter narrows a query. A nil ParentID matches any parent; a pointer to ""
// matches roots.
type Filter struct {
	ID       string
	ParentID *string
}

func ByParent(parentID string) Filter { return Filter{ParentID: &parentID} }

type OrderBy string

const (
	OrderByOrder OrderBy = "order"
	OrderByName  OrderBy = "name"
)

// Patch holds the fields to change. Nil means unchanged; ParentID pointing
// at "" clears the parent.
type Patch struct {
	Name     *string
	ParentID *string
	Level    *int
	Order    *int
}

func (p Patch) Empty() bool {
	return p.Name == nil && p.ParentID == nil && p.Level == nil && p.Order == nil
}

type RecordUpdate struct {
	ID    string
	Patch Patch
}

// Batch is applied atomically: either the optional insert and every update
// land, or none do.
type Batch struct {
	Insert  *hierarchy.Record
	Updates []RecordUpdate
}

// RecordStore persists ordered records. Stores report a missing id as
// *hierarchy.NotFoundError and a committed sibling order collision as
// *hierarchy.OrderConflictError.
type RecordStore interface {
	Query(ctx context.Context, collection types.Collection, filter Filter, orderBy ...OrderBy) ([]hierarchy.Record, error)
	Insert(ctx context.Context, collection types.Collection, rec hierarchy.Record) (hierarchy.Record, error)
	Update(ctx context.Context, collection types.Collection, id string, patch Patch) error
	Delete(ctx context.Context, collection types.Collection, id string) error
	Count(ctx context.Context, collection types.Collection, filter Filter) (int, error)
	ApplyBatch(ctx context.Context, collection types.Collection, batch Batch) (hierarchy.Record, error)
}
