// Package apperror provides structured error handling for the ledger.
// Every error that crosses a service boundary is an *AppError so the transport
// layer can render it without knowing the domain.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeStorage  = "STORAGE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Ledger rule violations (422)
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeUnbalancedEntry     = "UNBALANCED_ENTRY"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeNotACashAccount     = "NOT_A_CASH_ACCOUNT"
	CodeDocumentPosted      = "DOCUMENT_ALREADY_POSTED"
	CodeSessionCompleted    = "SESSION_ALREADY_COMPLETED"

	// Concurrency (409)
	CodeDraftSessionExists     = "DRAFT_SESSION_EXISTS"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeLockNotObtained        = "LOCK_NOT_OBTAINED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type of the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (entity id, violated rule, amounts)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewUnbalancedEntry is returned when a journal entry's debits and credits differ.
func NewUnbalancedEntry(ref int64, debit, credit int64) *AppError {
	return &AppError{
		Code:       CodeUnbalancedEntry,
		Message:    fmt.Sprintf("journal entry %d is unbalanced: debit %d, credit %d", ref, debit, credit),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"ref":    ref,
			"debit":  debit,
			"credit": credit,
			"rule":   "debit_equals_credit",
		},
	}
}

// NewConstraintViolation is returned when a mutation would break a ledger constraint.
// rule names the constraint so callers can act on it.
func NewConstraintViolation(rule, message string) *AppError {
	return &AppError{
		Code:       CodeConstraintViolation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"rule": rule},
	}
}

// NewNotACashAccount is returned when a cash count targets an account without the cash tag.
func NewNotACashAccount(accountCode string) *AppError {
	return &AppError{
		Code:       CodeNotACashAccount,
		Message:    fmt.Sprintf("account %s is not a cash account", accountCode),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account_code": accountCode, "rule": "cash_equivalents_tag"},
	}
}

// NewDraftSessionExists is returned when an account already has an open reconciliation.
func NewDraftSessionExists(accountCode string, sessionID any) *AppError {
	return &AppError{
		Code:       CodeDraftSessionExists,
		Message:    fmt.Sprintf("account %s already has a draft reconciliation session", accountCode),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"account_code": accountCode, "session_id": sessionID},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified concurrently. Please retry the operation.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewLockNotObtained is returned when a distributed lock is held elsewhere.
func NewLockNotObtained(key string) *AppError {
	return &AppError{
		Code:       CodeLockNotObtained,
		Message:    "Resource is busy, retry later",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"lock": key},
	}
}

// NewStorage wraps a transaction or commit failure.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "Storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different operation or body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}
