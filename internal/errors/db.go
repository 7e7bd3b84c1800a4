package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField pulls the column list out of "Key (user_id)=(u-1) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// constraintFields maps named profile constraints to the input field they guard.
var constraintFields = map[string]string{
	"profiles_pkey":               "user_id",
	"profiles_role_check":         "role",
	"profiles_availability_check": "availability",
}

// fieldMessages holds the user-facing text for check failures on known columns.
var fieldMessages = map[string]string{
	"role":         "role must be jobseeker or employer",
	"availability": "must be one of: available, busy, offline",
	"name":         "name is required and cannot be empty",
}

// MapDBError maps pgx and context errors to AppError values.
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "Request timed out. Please try again.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Request was canceled.")
	case errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Profile not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This profile already exists.",
			Field:   uniqueField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		field := pgErr.ColumnName
		if field == "" {
			field = constraintFields[pgErr.ConstraintName]
		}
		msg, ok := fieldMessages[field]
		if !ok {
			msg = "Invalid data. Please check your input."
		}
		return &AppError{Code: ErrCodeValidation, Message: msg, Field: field, Cause: pgErr}
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return Wrap(pgErr, ErrCodeConflict, "The profile is being updated. Please try again.")
	case pgerrcode.QueryCanceled:
		return Wrap(pgErr, ErrCodeTimeout, "Request timed out. Please try again.")
	default:
		return Wrap(pgErr, ErrCodeInternal, "A database error occurred. Please try again.")
	}
}

func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		// Multi-column keys have no single field to blame.
		if !strings.Contains(m[1], ",") {
			return m[1]
		}
		return ""
	}
	return constraintFields[pgErr.ConstraintName]
}
