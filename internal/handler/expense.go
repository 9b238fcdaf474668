package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/service"
)

type ExpenseHandler struct {
	expenses *service.ExpenseService
}

func NewExpenseHandler(expenses *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

type participantRequest struct {
	UserID     string           `json:"user_id"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percentage *decimal.Decimal `json:"percentage,omitempty"`
}

type expenseRequest struct {
	Description  string               `json:"description"`
	Amount       decimal.Decimal      `json:"amount"`
	PaidBy       string               `json:"paid_by"`
	GroupID      string               `json:"group_id,omitempty"`
	SplitType    models.SplitType     `json:"split_type"`
	Participants []participantRequest `json:"participants"`
}

func (r expenseRequest) Validate() []FieldError {
	var errs []FieldError

	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.PaidBy == "" {
		errs = append(errs, FieldError{Field: "paid_by", Message: "required"})
	}
	if !r.SplitType.Valid() {
		errs = append(errs, FieldError{Field: "split_type", Message: "must be EQUAL, EXACT, or PERCENT"})
	}
	if len(r.Participants) == 0 {
		errs = append(errs, FieldError{Field: "participants", Message: "required"})
	}

	for _, p := range r.Participants {
		if p.UserID == "" {
			errs = append(errs, FieldError{Field: "participants.user_id", Message: "required"})
		}
		// Missing per-participant fields are a validation error, not a zero.
		if r.SplitType == models.SplitExact && p.Amount == nil {
			errs = append(errs, FieldError{Field: "participants.amount", Message: "required for EXACT split"})
		}
		if r.SplitType == models.SplitPercent && p.Percentage == nil {
			errs = append(errs, FieldError{Field: "participants.percentage", Message: "required for PERCENT split"})
		}
	}
	return errs
}

func (r expenseRequest) toInput() service.ExpenseInput {
	participants := make([]models.Participant, len(r.Participants))
	for i, p := range r.Participants {
		participants[i] = models.Participant{UserID: p.UserID}
		if p.Amount != nil {
			participants[i].Amount = *p.Amount
		}
		if p.Percentage != nil {
			participants[i].Percentage = *p.Percentage
		}
	}
	return service.ExpenseInput{
		Description:  r.Description,
		Amount:       r.Amount,
		PaidBy:       r.PaidBy,
		GroupID:      r.GroupID,
		SplitType:    r.SplitType,
		Participants: participants,
	}
}

type participantResponse struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type expenseResponse struct {
	ID           string                `json:"id"`
	Description  string                `json:"description"`
	Amount       decimal.Decimal       `json:"amount"`
	PaidBy       string                `json:"paid_by"`
	CreatedBy    string                `json:"created_by"`
	GroupID      string                `json:"group_id,omitempty"`
	SplitType    models.SplitType      `json:"split_type"`
	Participants []participantResponse `json:"participants"`
	CreatedAt    int64                 `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	participants := make([]participantResponse, len(e.Participants))
	for i, p := range e.Participants {
		participants[i] = participantResponse{UserID: p.UserID, Amount: p.Amount}
	}
	return expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		CreatedBy:    e.CreatedBy,
		GroupID:      e.GroupID,
		SplitType:    e.SplitType,
		Participants: participants,
		CreatedAt:    e.CreatedAt,
	}
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	expense, err := h.expenses.Create(r.Context(), req.toInput(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toExpenseResponse(expense))
}

// Update handles PUT /api/v1/expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	expense, err := h.expenses.Update(r.Context(), r.PathValue("id"), req.toInput(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	if err := h.expenses.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListByGroup handles GET /api/v1/groups/{id}/expenses.
func (h *ExpenseHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	expenses, err := h.expenses.GroupExpenses(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	RespondSuccess(w, http.StatusOK, out)
}

// ListMine handles GET /api/v1/expenses (the caller's non-group expenses).
func (h *ExpenseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	expenses, err := h.expenses.UserExpenses(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = toExpenseResponse(e)
	}
	RespondSuccess(w, http.StatusOK, out)
}
