package services

import (
	"errors"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

// orderRequest is the order part of a write: Requested 0 (or nil on update)
// means "pick one", Confirm allows renumbering siblings to free Requested.
type orderRequest struct {
	Requested *int
	Confirm   bool
}

func conflictError(sibling hierarchy.Record, order int) error {
	return &hierarchy.OrderConflictError{Order: order, SiblingID: sibling.ID, SiblingName: sibling.Name}
}

func shiftUpdates(shifts []hierarchy.Shift) []ports.RecordUpdate {
	updates := make([]ports.RecordUpdate, 0, len(shifts))
	for _, sh := range shifts {
		to := sh.To
		updates = append(updates, ports.RecordUpdate{ID: sh.ID, Patch: ports.Patch{Order: &to}})
	}
	return updates
}

func positiveOrder(order int) error {
	if order <= 0 {
		return &hierarchy.ValidationError{Field: "order", Message: "must be a positive number"}
	}
	return nil
}

// planCreate places rec among siblings. The returned batch inserts rec and
// carries any sibling shifts.
func planCreate(siblings []hierarchy.Record, rec hierarchy.Record, req orderRequest) (ports.Batch, error) {
	if req.Requested == nil || *req.Requested == 0 {
		rec.Order = hierarchy.NextOrder(hierarchy.Orders(siblings))
		return ports.Batch{Insert: &rec}, nil
	}
	order := *req.Requested
	if err := positiveOrder(order); err != nil {
		return ports.Batch{}, err
	}
	rec.Order = order

	sibling, taken := hierarchy.FindConflict(siblings, "", order)
	if !taken {
		return ports.Batch{Insert: &rec}, nil
	}
	if !req.Confirm {
		return ports.Batch{}, conflictError(sibling, order)
	}
	return ports.Batch{Insert: &rec, Updates: shiftUpdates(hierarchy.PlanInsert(siblings, order))}, nil
}

// planUpdate applies patch to cur. siblings are the records of the target
// scope; when the scope is unchanged they include cur itself. A record that
// changes scope without a requested order takes the next free order there,
// and its old scope keeps the gap.
func planUpdate(cur hierarchy.Record, siblings []hierarchy.Record, scopeChanged bool, patch ports.Patch, req orderRequest) (ports.Batch, error) {
	patch.Order = nil
	self := func(p ports.Patch) []ports.RecordUpdate {
		if p.Empty() {
			return nil
		}
		return []ports.RecordUpdate{{ID: cur.ID, Patch: p}}
	}

	if scopeChanged {
		if req.Requested == nil || *req.Requested == 0 {
			next := hierarchy.NextOrder(hierarchy.Orders(siblings))
			patch.Order = &next
			return ports.Batch{Updates: self(patch)}, nil
		}
		order := *req.Requested
		if err := positiveOrder(order); err != nil {
			return ports.Batch{}, err
		}
		patch.Order = &order
		sibling, taken := hierarchy.FindConflict(siblings, cur.ID, order)
		if !taken {
			return ports.Batch{Updates: self(patch)}, nil
		}
		if !req.Confirm {
			return ports.Batch{}, conflictError(sibling, order)
		}
		updates := shiftUpdates(hierarchy.PlanInsert(siblings, order))
		return ports.Batch{Updates: append(updates, self(patch)...)}, nil
	}

	if req.Requested == nil || *req.Requested == cur.Order {
		return ports.Batch{Updates: self(patch)}, nil
	}
	order := *req.Requested
	if err := positiveOrder(order); err != nil {
		return ports.Batch{}, err
	}
	sibling, taken := hierarchy.FindConflict(siblings, cur.ID, order)
	if !taken {
		patch.Order = &order
		return ports.Batch{Updates: self(patch)}, nil
	}
	if !req.Confirm {
		return ports.Batch{}, conflictError(sibling, order)
	}

	shifts, err := hierarchy.PlanMove(siblings, cur.ID, order)
	if err != nil {
		return ports.Batch{}, err
	}
	// the moved record is the last shift; fold the rest of the patch into it
	updates := shiftUpdates(shifts[:len(shifts)-1])
	patch.Order = &order
	return ports.Batch{Updates: append(updates, self(patch)...)}, nil
}

// shiftCount is the number of sibling rows a batch renumbers besides the
// record being written.
func shiftCount(b ports.Batch, selfID string) int {
	n := 0
	for _, u := range b.Updates {
		if u.ID != selfID && u.Patch.Order != nil {
			n++
		}
	}
	return n
}

// storeFailure keeps typed hierarchy errors as they are and wraps anything
// else in a StoreError.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if isHierarchyError(err) {
		return err
	}
	return &hierarchy.StoreError{Op: op, Err: err}
}

func isHierarchyError(err error) bool {
	if _, ok := errors.AsType[*hierarchy.ValidationError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.OrderConflictError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.NotFoundError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.HasChildrenError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.CircularReferenceError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.ReferencedBySubjectError](err); ok {
		return true
	}
	if _, ok := errors.AsType[*hierarchy.InconsistentHierarchyError](err); ok {
		return true
	}
	_, ok := errors.AsType[*hierarchy.StoreError](err)
	return ok
}
