package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"ledger/internal/core/apperror"
)

// PostgreSQL error codes the repositories react to.
const (
	pgForeignKeyViolation   = "23503"
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
	pgExclusionViolation    = "23P01"
	pgSerializationFailure  = "40001"
	pgDeadlockDetected      = "40P01"
	pgLockNotAvailable      = "55P03"
	pgQueryCanceled         = "57014"
	pgRaiseException        = "P0001"
	oneDraftSessionIndex    = "reconciliation_sessions_one_draft"
	accountsParentForeignFK = "accounts_control_account_code_fkey"
)

// PgError returns the PostgreSQL error in err's chain.
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a unique violation, optionally of
// the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := PgError(err)
	if !ok || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsOneDraftViolation reports whether err came from the one-draft-per-account index.
func IsOneDraftViolation(err error) bool {
	return IsUniqueViolation(err, oneDraftSessionIndex)
}

// MapError converts driver errors into ledger errors. entity names the row
// being written. Errors that are already *apperror.AppError pass through;
// unrecognized errors are returned unchanged for the caller to wrap.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	pgErr, ok := PgError(err)
	if !ok {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		rule := "referenced_row_exists"
		if pgErr.ConstraintName == accountsParentForeignFK {
			rule = "control_account_exists"
		}
		return apperror.NewConstraintViolation(rule, "referenced row is missing or still referenced").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation, pgExclusionViolation, pgRaiseException:
		return apperror.NewConstraintViolation(pgErr.ConstraintName, pgErr.Message).
			WithDetail("entity", entity).
			WithCause(err)
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return apperror.NewConcurrentModification(entity, nil).WithCause(err)
	case pgQueryCanceled:
		return apperror.NewStorage(err)
	}
	return err
}
