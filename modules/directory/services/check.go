package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jacksonlee411/contact-directory/modules/directory/domain/ports"
	"github.com/jacksonlee411/contact-directory/modules/directory/domain/types"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

type IssueKind string

const (
	IssueDuplicateOrder IssueKind = "duplicate_order"
	IssueCycle          IssueKind = "cycle"
	IssueLevelMismatch  IssueKind = "level_mismatch"
	IssueDanglingParent IssueKind = "dangling_parent"
)

// Issue is one integrity problem found in stored data.
type Issue struct {
	Kind       IssueKind        `json:"kind"`
	Collection types.Collection `json:"collection"`
	ID         string           `json:"id"`
	Detail     string           `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %s: %s", i.Kind, i.Collection, i.ID, i.Detail)
}

// CheckIntegrity scans every collection for data the write path would never
// produce: two siblings sharing an order, parent loops, designation levels
// that disagree with their depth and parents that do not exist.
func CheckIntegrity(ctx context.Context, records ports.RecordStore) ([]Issue, error) {
	all := make(map[types.Collection][]hierarchy.Record, len(types.Collections))
	for _, c := range types.Collections {
		recs, err := records.Query(ctx, c, ports.Filter{})
		if err != nil {
			return nil, storeFailure("list "+string(c), err)
		}
		all[c] = recs
	}

	var issues []Issue
	for _, c := range types.Collections {
		issues = append(issues, duplicateOrders(c, all[c])...)
	}

	designationRecs := all[types.CollectionDesignations]
	issues = append(issues, designationShape(designationRecs)...)

	for _, level := range types.OrgLevels {
		parent, ok := level.Parent()
		if !ok {
			continue
		}
		ids := make(map[string]struct{}, len(all[parent.Collection()]))
		for _, r := range all[parent.Collection()] {
			ids[r.ID] = struct{}{}
		}
		for _, r := range all[level.Collection()] {
			if _, ok := ids[r.ParentID]; !ok {
				issues = append(issues, Issue{
					Kind:       IssueDanglingParent,
					Collection: level.Collection(),
					ID:         r.ID,
					Detail:     fmt.Sprintf("%s %q does not exist", parent, r.ParentID),
				})
			}
		}
	}
	return issues, nil
}

func duplicateOrders(c types.Collection, recs []hierarchy.Record) []Issue {
	type slot struct {
		parentID string
		order    int
	}
	holders := make(map[slot][]string)
	for _, r := range recs {
		k := slot{parentID: r.ParentID, order: r.Order}
		holders[k] = append(holders[k], r.ID)
	}

	var issues []Issue
	for k, ids := range holders {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		for _, id := range ids[1:] {
			issues = append(issues, Issue{
				Kind:       IssueDuplicateOrder,
				Collection: c,
				ID:         id,
				Detail:     fmt.Sprintf("order %d already used by %q under parent %q", k.order, ids[0], k.parentID),
			})
		}
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].ID < issues[j].ID })
	return issues
}

// designationShape walks each designation up to its root. A walk that
// revisits a node is a cycle; otherwise the stored level must equal the
// number of ancestors.
func designationShape(recs []hierarchy.Record) []Issue {
	byID := make(map[string]hierarchy.Record, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}

	var issues []Issue
	for _, r := range recs {
		depth := 0
		seen := map[string]struct{}{r.ID: {}}
		cyclic, dangling := false, false
		for cur := r.ParentID; cur != ""; depth++ {
			if _, ok := seen[cur]; ok {
				cyclic = true
				break
			}
			seen[cur] = struct{}{}
			parent, ok := byID[cur]
			if !ok {
				dangling = true
				break
			}
			cur = parent.ParentID
		}

		switch {
		case cyclic:
			issues = append(issues, Issue{Kind: IssueCycle, Collection: types.CollectionDesignations, ID: r.ID, Detail: "ancestors loop back"})
		case dangling && depth == 0:
			issues = append(issues, Issue{
				Kind:       IssueDanglingParent,
				Collection: types.CollectionDesignations,
				ID:         r.ID,
				Detail:     fmt.Sprintf("parent %q does not exist", r.ParentID),
			})
		case !dangling && r.Level != depth:
			issues = append(issues, Issue{
				Kind:       IssueLevelMismatch,
				Collection: types.CollectionDesignations,
				ID:         r.ID,
				Detail:     fmt.Sprintf("level is %d, depth is %d", r.Level, depth),
			})
		}
	}
	return issues
}
