package hierarchy

// ValidateParentAssignment checks that nodeID may be placed under
// candidateParentID. An empty candidate means "make it a root" and is always
// allowed. The ancestor walk is bounded by a visited set, so cycles already
// present in nodes are reported instead of looping.
func ValidateParentAssignment(nodeID string, candidateParentID string, nodes []Record) error {
	if candidateParentID == "" {
		return nil
	}
	if candidateParentID == nodeID {
		return &CircularReferenceError{NodeID: nodeID, ParentID: candidateParentID}
	}

	byID := indexByID(nodes)
	if _, ok := byID[candidateParentID]; !ok {
		return &NotFoundError{Collection: "parent", ID: candidateParentID}
	}

	visited := make(map[string]struct{}, len(nodes))
	for cur := candidateParentID; cur != ""; {
		if cur == nodeID {
			return &CircularReferenceError{NodeID: nodeID, ParentID: candidateParentID}
		}
		if _, seen := visited[cur]; seen {
			return &CircularReferenceError{NodeID: nodeID, ParentID: candidateParentID, Corrupt: true}
		}
		visited[cur] = struct{}{}

		rec, ok := byID[cur]
		if !ok {
			// dangling ancestor: the chain ends here, same as the tree builder treats it
			break
		}
		cur = rec.ParentID
	}
	return nil
}

// ChainLink is one selected node in a fixed-depth chain, top level first.
// ParentID is the stored parent of ID.
type ChainLink struct {
	Level    string
	ID       string
	ParentID string
}

// ValidateChain checks that every selected node belongs to the node selected
// one level above it. Unselected levels (empty ID) break the comparison.
func ValidateChain(links []ChainLink) error {
	for i := 1; i < len(links); i++ {
		upper, lower := links[i-1], links[i]
		if upper.ID == "" || lower.ID == "" {
			continue
		}
		if lower.ParentID != upper.ID {
			return &InconsistentHierarchyError{
				Level:    lower.Level,
				ID:       lower.ID,
				ParentID: lower.ParentID,
				Expected: upper.ID,
			}
		}
	}
	return nil
}
