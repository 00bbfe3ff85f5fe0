package hierarchy

import (
	"fmt"
	"strconv"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return "validation: " + e.Field + ": " + e.Message
}

// CircularReferenceError reports a parent assignment that would close a loop,
// or an ancestor walk that found a loop already stored.
type CircularReferenceError struct {
	NodeID   string
	ParentID string
	Corrupt  bool
}

func (e *CircularReferenceError) Error() string {
	if e.Corrupt {
		return fmt.Sprintf("circular reference: ancestors of %q already form a cycle", e.ParentID)
	}
	return fmt.Sprintf("circular reference: %q cannot be placed under %q", e.NodeID, e.ParentID)
}

type InconsistentHierarchyError struct {
	Level    string
	ID       string
	ParentID string
	Expected string
}

func (e *InconsistentHierarchyError) Error() string {
	return fmt.Sprintf("inconsistent hierarchy: %s %q belongs to %q, not %q", e.Level, e.ID, e.ParentID, e.Expected)
}

// OrderConflictError names the sibling already holding the requested order.
type OrderConflictError struct {
	Order       int
	SiblingID   string
	SiblingName string
}

func (e *OrderConflictError) Error() string {
	if e.SiblingID == "" {
		return "order conflict: sibling order changed concurrently"
	}
	return "order conflict: " + strconv.Itoa(e.Order) + " is used by " + strconv.Quote(e.SiblingName)
}

type HasChildrenError struct {
	ID       string
	Children int
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("%q has %d child record(s)", e.ID, e.Children)
}

type ReferencedBySubjectError struct {
	ID         string
	References int
}

func (e *ReferencedBySubjectError) Error() string {
	return fmt.Sprintf("%q is referenced by %d record(s)", e.ID, e.References)
}

type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return e.Collection + " " + strconv.Quote(e.ID) + " not found"
}

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store: " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }
