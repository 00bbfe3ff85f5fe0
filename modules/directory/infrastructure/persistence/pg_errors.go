package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jacksonlee411/contact-directory/pkg/hierarchy"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgErrorCode(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		return strings.TrimSpace(pgErr.Code)
	}
	return ""
}

func isPgInvalidInput(err error) bool {
	switch pgErrorCode(err) {
	case "22P02", "22003", "22007", "22008":
		return true
	default:
		return false
	}
}

// mapPgError turns constraint violations into hierarchy errors and wraps
// everything else in a StoreError.
func mapPgError(op string, collection string, id string, err error) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return &hierarchy.OrderConflictError{}
	case pgForeignKeyViolation:
		if op == "delete" {
			return &hierarchy.HasChildrenError{ID: id}
		}
		return &hierarchy.NotFoundError{Collection: "parent", ID: id}
	case pgCheckViolation:
		return &hierarchy.ValidationError{Message: pgErrorMessage(err)}
	}
	if isPgInvalidInput(err) {
		return &hierarchy.NotFoundError{Collection: collection, ID: id}
	}
	return &hierarchy.StoreError{Op: op, Err: err}
}

func pgErrorMessage(err error) string {
	if pgErr, ok := errors.AsType[*pgconn.PgError](err); ok && pgErr != nil {
		if msg := strings.TrimSpace(pgErr.Message); msg != "" {
			return msg
		}
	}
	return "UNKNOWN"
}
