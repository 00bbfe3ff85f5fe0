package hierarchy

import "sort"

// Expansion is per-view state recording which nodes are expanded. It is
// never persisted.
type Expansion struct {
	expanded map[string]struct{}
}

func NewExpansion() *Expansion {
	return &Expansion{expanded: make(map[string]struct{})}
}

// ExpandAll expands every node that has children.
func (e *Expansion) ExpandAll(roots []*Node) {
	Walk(roots, func(n *Node, _ int) bool {
		if len(n.Children) > 0 {
			e.expanded[n.ID] = struct{}{}
		}
		return true
	})
}

func (e *Expansion) CollapseAll() {
	clear(e.expanded)
}

// Toggle flips id and reports whether it is now expanded.
func (e *Expansion) Toggle(id string) bool {
	if _, ok := e.expanded[id]; ok {
		delete(e.expanded, id)
		return false
	}
	e.expanded[id] = struct{}{}
	return true
}

func (e *Expansion) IsExpanded(id string) bool {
	_, ok := e.expanded[id]
	return ok
}

// ExpandPathTo expands every ancestor of id so it becomes visible.
func (e *Expansion) ExpandPathTo(roots []*Node, id string) bool {
	path := PathTo(roots, id)
	if path == nil {
		return false
	}
	for _, ancestor := range path[:len(path)-1] {
		e.expanded[ancestor] = struct{}{}
	}
	return true
}

// IDs returns the expanded ids in sorted order.
func (e *Expansion) IDs() []string {
	out := make([]string, 0, len(e.expanded))
	for id := range e.expanded {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
