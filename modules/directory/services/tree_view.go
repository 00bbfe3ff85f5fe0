package services

import (
	"strings"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

type TreeSort string

const (
	TreeSortOrder   TreeSort = "order"
	TreeSortName    TreeSort = "name"
	TreeSortStaff   TreeSort = "staff"
	TreeSortUpdated TreeSort = "updated"
)

// TreeQuery shapes a tree read. ExpandTo names a node whose ancestors are
// reported as expanded.
type TreeQuery struct {
	Search    string
	Sort      string
	ExpandAll bool
	ExpandTo  string
}

type TreeView struct {
	Roots       []*hierarchy.Node `json:"roots"`
	Total       int               `json:"total"`
	Visible     int               `json:"visible"`
	Expanded    []string          `json:"expanded"`
	StaffCounts map[string]int    `json:"staff_counts,omitempty"`
}

func parseTreeSort(raw string) (TreeSort, error) {
	switch TreeSort(strings.ToLower(strings.TrimSpace(raw))) {
	case "", TreeSortOrder:
		return TreeSortOrder, nil
	case TreeSortName:
		return TreeSortName, nil
	case TreeSortStaff:
		return TreeSortStaff, nil
	case TreeSortUpdated:
		return TreeSortUpdated, nil
	}
	return "", &hierarchy.ValidationError{Field: "sort", Message: "must be one of: order name staff updated"}
}

func treeLess(mode TreeSort, staff map[string]int) func(a, b *hierarchy.Node) bool {
	switch mode {
	case TreeSortName:
		return hierarchy.ByName
	case TreeSortUpdated:
		return hierarchy.ByUpdatedDesc
	case TreeSortStaff:
		return func(a, b *hierarchy.Node) bool {
			if staff[a.ID] != staff[b.ID] {
				return staff[a.ID] > staff[b.ID]
			}
			return hierarchy.ByOrder(a, b)
		}
	default:
		return hierarchy.ByOrder
	}
}

// buildTreeView filters roots by the search term and works out which nodes
// start expanded. A search expands every surviving branch.
func buildTreeView(roots []*hierarchy.Node, q TreeQuery) TreeView {
	visible := hierarchy.Search(roots, q.Search)

	exp := hierarchy.NewExpansion()
	if q.ExpandAll || q.Search != "" {
		exp.ExpandAll(visible)
	}
	if id := strings.TrimSpace(q.ExpandTo); id != "" {
		exp.ExpandPathTo(roots, id)
	}

	return TreeView{
		Roots:    visible,
		Total:    hierarchy.Count(roots),
		Visible:  hierarchy.Count(visible),
		Expanded: exp.IDs(),
	}
}
