package hierarchy

// Shift moves one record from one order to another.
type Shift struct {
	ID   string
	From int
	To   int
}

// NextOrder returns the smallest positive integer not present in orders, or
// len(orders)+1 when 1..len(orders) are all taken.
func NextOrder(orders []int) int {
	used := make(map[int]struct{}, len(orders))
	for _, o := range orders {
		if o > 0 {
			used[o] = struct{}{}
		}
	}
	for i := 1; i <= len(orders); i++ {
		if _, ok := used[i]; !ok {
			return i
		}
	}
	return len(orders) + 1
}

// Orders extracts the order of every record.
func Orders(records []Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.Order)
	}
	return out
}

// FindConflict returns the sibling other than selfID that already holds order.
func FindConflict(siblings []Record, selfID string, order int) (Record, bool) {
	for _, s := range siblings {
		if s.ID != selfID && s.Order == order {
			return s, true
		}
	}
	return Record{}, false
}

// PlanMove computes the shifts needed to move id to newOrder among its
// siblings. Moving down (newOrder > old) pulls the records in (old, newOrder]
// up by one; moving up pushes the records in [newOrder, old) down by one. The
// moved record itself is the last shift of the plan.
func PlanMove(siblings []Record, id string, newOrder int) ([]Shift, error) {
	if newOrder <= 0 {
		return nil, &ValidationError{Field: "order", Message: "must be a positive number"}
	}

	oldOrder := 0
	found := false
	for _, s := range siblings {
		if s.ID == id {
			oldOrder = s.Order
			found = true
			break
		}
	}
	if !found {
		return nil, &NotFoundError{Collection: "sibling", ID: id}
	}
	if oldOrder == newOrder {
		return nil, nil
	}

	var shifts []Shift
	for _, s := range siblings {
		if s.ID == id {
			continue
		}
		switch {
		case newOrder > oldOrder && s.Order > oldOrder && s.Order <= newOrder:
			shifts = append(shifts, Shift{ID: s.ID, From: s.Order, To: s.Order - 1})
		case newOrder < oldOrder && s.Order >= newOrder && s.Order < oldOrder:
			shifts = append(shifts, Shift{ID: s.ID, From: s.Order, To: s.Order + 1})
		}
	}
	return append(shifts, Shift{ID: id, From: oldOrder, To: newOrder}), nil
}

// PlanInsert computes the shifts that open newOrder for a record entering the
// scope. It is a move up from past the last sibling: every sibling at or after
// newOrder is pushed down by one.
func PlanInsert(siblings []Record, newOrder int) []Shift {
	var shifts []Shift
	for _, s := range siblings {
		if s.Order >= newOrder {
			shifts = append(shifts, Shift{ID: s.ID, From: s.Order, To: s.Order + 1})
		}
	}
	return shifts
}
