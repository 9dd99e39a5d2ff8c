// Package storagex maps database driver failures onto the coded errors the
// HTTP boundary knows how to surface. Every persistence path funnels its
// errors through MapError so a not-found, a pool timeout, a decode failure
// and a constraint violation each keep a distinct, stable status.
package storagex

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/lib/pq"
)

var ErrRegistry = errx.NewRegistry("STORAGE")

var (
	CodeNotFound   = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Record not found")
	CodeTimeout    = ErrRegistry.Register("TIMEOUT", errx.TypeInternal, http.StatusRequestTimeout, "Database operation timed out")
	CodeDecode     = ErrRegistry.Register("DECODE", errx.TypeValidation, http.StatusBadRequest, "Failed to decode stored value")
	CodeConflict   = ErrRegistry.Register("CONFLICT", errx.TypeConflict, http.StatusConflict, "Record already exists")
	CodeForeignKey = ErrRegistry.Register("FOREIGN_KEY", errx.TypeConflict, http.StatusConflict, "Referenced record does not exist")
	CodeInternal   = ErrRegistry.Register("INTERNAL", errx.TypeInternal, http.StatusInternalServerError, "Database operation failed")
)

// Postgres error classes, per the pq driver.
const (
	pgUniqueViolation     pq.ErrorCode = "23505"
	pgForeignKeyViolation pq.ErrorCode = "23503"
)

// MapError translates a driver error into a coded error. Already-coded
// errors pass through untouched.
func MapError(err error) *errx.Error {
	if err == nil {
		return nil
	}
	if coded, ok := errx.As(err); ok {
		return coded
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRegistry.NewWithCause(CodeNotFound, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrRegistry.NewWithCause(CodeTimeout, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return ErrRegistry.NewWithCause(CodeConflict, err).WithDetail("constraint", pqErr.Constraint)
		case pgForeignKeyViolation:
			return ErrRegistry.NewWithCause(CodeForeignKey, err).WithDetail("constraint", pqErr.Constraint)
		}
	}
	return ErrRegistry.NewWithCause(CodeInternal, err)
}

// IsConflict reports whether err maps to a unique-constraint violation.
// Provisioning treats a lost insert race as already-provisioned, so this is
// checked rather than surfaced.
func IsConflict(err error) bool {
	coded := MapError(err)
	return coded != nil && coded.Code == CodeConflict.Code
}

// IsNotFound reports whether err maps to a missing record.
func IsNotFound(err error) bool {
	coded := MapError(err)
	return coded != nil && coded.Code == CodeNotFound.Code
}
