// Package errors provides custom error types for the PersAcc ledger.
// All service-layer errors should use AppError so that the HTTP layer and the
// CLI can report a specific error kind instead of a generic failure.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrMonthClosed) holds for wrapped or re-messaged copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrUnauthorized   = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Movement validation errors.
var (
	ErrInvalidAmount        = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrMissingRelevance     = &AppError{Code: "MISSING_RELEVANCE", Message: "Expenses require a relevance code", StatusCode: http.StatusBadRequest}
	ErrUnexpectedRelevance  = &AppError{Code: "UNEXPECTED_RELEVANCE", Message: "Only expenses carry a relevance code", StatusCode: http.StatusBadRequest}
	ErrInvalidMovementType  = &AppError{Code: "INVALID_MOVEMENT_TYPE", Message: "Unsupported movement type", StatusCode: http.StatusBadRequest}
	ErrInvalidRelevanceCode = &AppError{Code: "INVALID_RELEVANCE_CODE", Message: "Unsupported relevance code", StatusCode: http.StatusBadRequest}
	ErrInvalidFiscalMonth   = &AppError{Code: "INVALID_FISCAL_MONTH", Message: "Fiscal month must use the YYYY-MM format", StatusCode: http.StatusBadRequest}
	ErrMovementNotFound     = &AppError{Code: "MOVEMENT_NOT_FOUND", Message: "Movement not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryTypeMismatch = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Category is not valid for this movement type", StatusCode: http.StatusBadRequest}
	ErrCategoryInactive     = &AppError{Code: "CATEGORY_INACTIVE", Message: "Category is inactive", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategory    = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryInUse        = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing movements", StatusCode: http.StatusConflict}
)

// Month state and closing errors.
var (
	ErrMonthClosed       = &AppError{Code: "MONTH_CLOSED", Message: "The fiscal month is closed", StatusCode: http.StatusConflict}
	ErrAlreadyClosed     = &AppError{Code: "ALREADY_CLOSED", Message: "The fiscal month has already been closed", StatusCode: http.StatusConflict}
	ErrNotNextInSequence = &AppError{Code: "NOT_NEXT_IN_SEQUENCE", Message: "The fiscal month is not the next closable month", StatusCode: http.StatusConflict}
	ErrMonthNotFound     = &AppError{Code: "MONTH_NOT_FOUND", Message: "Month state not found", StatusCode: http.StatusNotFound}
	ErrSnapshotNotFound  = &AppError{Code: "SNAPSHOT_NOT_FOUND", Message: "Snapshot not found", StatusCode: http.StatusNotFound}
	ErrInvalidCloseInput = &AppError{Code: "INVALID_CLOSE_INPUT", Message: "Invalid month close input", StatusCode: http.StatusBadRequest}
)
