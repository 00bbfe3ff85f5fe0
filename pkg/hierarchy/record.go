// Package hierarchy maintains ordered parent/child trees: sibling order
// sequencing, parent assignment validation and tree building/search.
//
// Everything here is pure; persistence lives behind the directory ports.
package hierarchy

import "time"

// Record is one ordered node. ParentID is empty for roots. Order is unique
// among records sharing the same ParentID.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  string    `json:"parent_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Level     int       `json:"level"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func indexByID(records []Record) map[string]Record {
	byID := make(map[string]Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	return byID
}

// Descendants returns the ids of every record below id, in breadth-first
// order. Cycles in the data are tolerated.
func Descendants(id string, records []Record) []string {
	children := make(map[string][]string, len(records))
	for _, r := range records {
		if r.ParentID != "" {
			children[r.ParentID] = append(children[r.ParentID], r.ID)
		}
	}

	var out []string
	seen := map[string]struct{}{id: {}}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
