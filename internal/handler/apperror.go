package handler

import "net/http"

// AppError pairs an HTTP status with a stable machine-readable code.
type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingUser      = &AppError{http.StatusUnauthorized, "MISSING_USER", "X-User-ID header required"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Not allowed"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrNotGroupMember = &AppError{http.StatusForbidden, "NOT_GROUP_MEMBER", "User is not a member of the group"}
	ErrSelfSettlement = &AppError{http.StatusUnprocessableEntity, "SELF_SETTLEMENT", "Cannot settle with yourself"}
	ErrInvalidAmount  = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be positive"}
	ErrInvalidSplit   = &AppError{http.StatusBadRequest, "INVALID_SPLIT", "Invalid split"}
)
