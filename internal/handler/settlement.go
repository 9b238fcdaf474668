package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/service"
)

type SettlementHandler struct {
	settlements *service.SettlementService
}

func NewSettlementHandler(settlements *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

type settlementRequest struct {
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	GroupID    string          `json:"group_id,omitempty"`
	Note       string          `json:"note,omitempty"`
}

func (r settlementRequest) Validate() []FieldError {
	var errs []FieldError
	if r.FromUserID == "" {
		errs = append(errs, FieldError{Field: "from_user_id", Message: "required"})
	}
	if r.ToUserID == "" {
		errs = append(errs, FieldError{Field: "to_user_id", Message: "required"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type settlementResponse struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id,omitempty"`
	FromUserID string          `json:"from_user_id"`
	ToUserID   string          `json:"to_user_id"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  int64           `json:"created_at"`
	CreatedBy  string          `json:"created_by"`
	Note       string          `json:"note,omitempty"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		CreatedAt:  s.CreatedAt,
		CreatedBy:  s.CreatedBy,
		Note:       s.Note,
	}
}

// Create handles POST /api/v1/settlements.
func (h *SettlementHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	settlement, err := h.settlements.Create(r.Context(), service.SettlementInput{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     req.Amount,
		GroupID:    req.GroupID,
		Note:       req.Note,
	}, userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toSettlementResponse(settlement))
}

// ListByGroup handles GET /api/v1/groups/{id}/settlements.
func (h *SettlementHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	settlements, err := h.settlements.GroupSettlements(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]settlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlementResponse(s)
	}
	RespondSuccess(w, http.StatusOK, out)
}

// ListMine handles GET /api/v1/settlements (the caller's non-group
// settlements).
func (h *SettlementHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}

	settlements, err := h.settlements.UserSettlements(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	out := make([]settlementResponse, len(settlements))
	for i, s := range settlements {
		out[i] = toSettlementResponse(s)
	}
	RespondSuccess(w, http.StatusOK, out)
}
