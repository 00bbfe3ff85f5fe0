package hierarchy

import (
	"sort"
	"strings"
)

type ParentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Node struct {
	Record
	Parent      *ParentRef `json:"parent,omitempty"`
	Children    []*Node    `json:"children"`
	Highlighted bool       `json:"highlighted,omitempty"`
}

// BuildTree assembles records into roots in O(n). A record whose parent is
// not among records is treated as a root. Siblings are ordered by ByOrder.
func BuildTree(records []Record) []*Node {
	nodes := make(map[string]*Node, len(records))
	for _, r := range records {
		nodes[r.ID] = &Node{Record: r, Children: []*Node{}}
	}

	roots := make([]*Node, 0)
	for _, r := range records {
		n := nodes[r.ID]
		parent, ok := nodes[r.ParentID]
		if r.ParentID == "" || !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		n.Parent = &ParentRef{ID: parent.ID, Name: parent.Name}
		parent.Children = append(parent.Children, n)
	}

	SortTree(roots, ByOrder)
	return roots
}

// ByOrder sorts siblings by order, then name, then id.
func ByOrder(a, b *Node) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

func ByName(a, b *Node) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return ByOrder(a, b)
}

// ByUpdatedDesc puts the most recently updated sibling first.
func ByUpdatedDesc(a, b *Node) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return ByOrder(a, b)
}

// SortTree sorts every sibling list in place. Cycles cannot occur in a tree
// produced by BuildTree.
func SortTree(roots []*Node, less func(a, b *Node) bool) {
	sort.SliceStable(roots, func(i, j int) bool { return less(roots[i], roots[j]) })
	for _, n := range roots {
		SortTree(n.Children, less)
	}
}

// Search keeps every node that matches term (case-insensitive substring of
// the name) or has a matching descendant. Only direct matches are
// highlighted. An empty term returns a copy of the whole tree. The input is
// never modified.
func Search(roots []*Node, term string) []*Node {
	term = strings.ToLower(term)
	out := make([]*Node, 0, len(roots))
	for _, n := range roots {
		if m := filterNode(n, term); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func filterNode(n *Node, term string) *Node {
	children := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if m := filterNode(c, term); m != nil {
			children = append(children, m)
		}
	}
	matched := term != "" && strings.Contains(strings.ToLower(n.Name), term)
	if term != "" && !matched && len(children) == 0 {
		return nil
	}
	return &Node{Record: n.Record, Parent: n.Parent, Children: children, Highlighted: matched}
}

// Walk visits nodes depth-first, parents before children. Returning false
// from fn skips the node's subtree.
func Walk(roots []*Node, fn func(n *Node, depth int) bool) {
	var visit func(nodes []*Node, depth int)
	visit = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				visit(n.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// PathTo returns the ids from a root down to id, inclusive. It returns nil
// when id is not in the tree.
func PathTo(roots []*Node, id string) []string {
	for _, n := range roots {
		if n.ID == id {
			return []string{id}
		}
		if sub := PathTo(n.Children, id); sub != nil {
			return append([]string{n.ID}, sub...)
		}
	}
	return nil
}
