package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/settleup/internal/models"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{Success: true, Data: data})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps service sentinel errors to HTTP responses.
// Consistency violations are logged loudly; they indicate a ledger bug,
// never a user error.
func RespondDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError
	var details any

	switch {
	case errors.Is(err, models.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, models.ErrForbidden):
		appErr = ErrForbidden
	case errors.Is(err, models.ErrNotGroupMember):
		appErr = ErrNotGroupMember
	case errors.Is(err, models.ErrSelfSettlement):
		appErr = ErrSelfSettlement
	case errors.Is(err, models.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, models.ErrInvalidSplit),
		errors.Is(err, models.ErrNoParticipants),
		errors.Is(err, models.ErrDuplicateParticipant),
		errors.Is(err, models.ErrPayerNotParticipant):
		appErr = ErrInvalidSplit
		details = err.Error()
	case errors.Is(err, models.ErrConsistency):
		slog.Error("ledger consistency violation", "error", err)
		appErr = ErrInternalError
	default:
		slog.Error("unhandled domain error", "error", err)
		appErr = ErrInternalError
	}

	RespondAppError(w, appErr, details)
}

// callerID returns the authenticated user id supplied by the upstream
// gateway. Authentication itself is outside this service.
func callerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
