package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column list from a unique violation detail: "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances.
//   - sql.ErrNoRows / pgx.ErrNoRows → NotFound
//   - unique violation → Conflict (with Field when derivable)
//   - foreign key, check, not-null violations → Validation
//   - context deadline / cancellation → Timeout / Canceled
//
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
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Resource not found")
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
			Message: "This value already exists. Please choose a different one.",
			Field:   uniqueViolationField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Referenced " + tableLabel(pgErr.TableName) + " does not exist.",
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Invalid data. Please check your input.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "A database error occurred. Please try again.",
			Cause:   pgErr,
		}
	}
}

// uniqueViolationField prefers ColumnName metadata, then the Detail message, then the constraint name.
func uniqueViolationField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// inferFieldFromConstraint maps "<table>_<field>_key" to "<field>".
// Multi-column constraints are ambiguous and yield "".
func inferFieldFromConstraint(name string) string {
	for _, suffix := range []string{"_key", "_unique", "_idx"} {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		trimmed := strings.TrimSuffix(name, suffix)
		for _, table := range knownTables {
			if rest, ok := strings.CutPrefix(trimmed, table+"_"); ok && !strings.Contains(rest, "_") {
				return rest
			}
		}
	}
	return ""
}

var knownTables = []string{
	"accounts",
	"user_profiles",
	"account_identities",
	"seller_credentials",
	"auth_refresh_sessions",
	"audit_logs",
}

var tableLabels = map[string]string{
	"accounts":              "account",
	"user_profiles":         "profile",
	"account_identities":    "identity",
	"seller_credentials":    "seller credential",
	"auth_refresh_sessions": "session",
	"audit_logs":            "audit log",
}

func tableLabel(table string) string {
	if label, ok := tableLabels[strings.ToLower(strings.TrimSpace(table))]; ok {
		return label
	}
	return "record"
}
