package httperr

import (
	"errors"
	"net/http"

	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

type BadRequestError struct {
	msg string
}

func (e *BadRequestError) Error() string { return e.msg }

func NewBadRequest(msg string) error { return &BadRequestError{msg: msg} }

func IsBadRequest(err error) bool {
	_, ok := errors.AsType[*BadRequestError](err)
	return ok
}

const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeValidation            = "VALIDATION_FAILED"
	CodeCircularReference     = "CIRCULAR_REFERENCE"
	CodeInconsistentHierarchy = "INCONSISTENT_HIERARCHY"
	CodeOrderConflict         = "ORDER_CONFLICT"
	CodeHasChildren           = "HAS_CHILDREN_CANNOT_DELETE"
	CodeReferenced            = "REFERENCED_CANNOT_DELETE"
	CodeNotFound              = "NOT_FOUND"
	CodeStore                 = "STORE_ERROR"
	CodeInternal              = "INTERNAL_ERROR"
)

// Classify maps an error to an HTTP status and a stable code.
func Classify(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if _, ok := errors.AsType[*BadRequestError](err); ok {
		return http.StatusBadRequest, CodeBadRequest
	}
	if _, ok := errors.AsType[*hierarchy.ValidationError](err); ok {
		return http.StatusUnprocessableEntity, CodeValidation
	}
	if _, ok := errors.AsType[*hierarchy.CircularReferenceError](err); ok {
		return http.StatusUnprocessableEntity, CodeCircularReference
	}
	if _, ok := errors.AsType[*hierarchy.InconsistentHierarchyError](err); ok {
		return http.StatusUnprocessableEntity, CodeInconsistentHierarchy
	}
	if _, ok := errors.AsType[*hierarchy.OrderConflictError](err); ok {
		return http.StatusConflict, CodeOrderConflict
	}
	if _, ok := errors.AsType[*hierarchy.HasChildrenError](err); ok {
		return http.StatusConflict, CodeHasChildren
	}
	if _, ok := errors.AsType[*hierarchy.ReferencedBySubjectError](err); ok {
		return http.StatusConflict, CodeReferenced
	}
	if _, ok := errors.AsType[*hierarchy.NotFoundError](err); ok {
		return http.StatusNotFound, CodeNotFound
	}
	if _, ok := errors.AsType[*hierarchy.StoreError](err); ok {
		return http.StatusServiceUnavailable, CodeStore
	}
	return http.StatusInternalServerError, CodeInternal
}
