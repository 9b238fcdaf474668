package handler

import (
	"net/http"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
)

type BalanceHandler struct {
	engine *ledger.Engine
}

func NewBalanceHandler(engine *ledger.Engine) *BalanceHandler {
	return &BalanceHandler{engine: engine}
}

type balanceEntryResponse struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type balancesResponse struct {
	UserID  string                 `json:"user_id"`
	GroupID string                 `json:"group_id,omitempty"`
	Owes    []balanceEntryResponse `json:"owes"`
	OwedBy  []balanceEntryResponse `json:"owed_by"`
}

type netBalanceResponse struct {
	UserID     string          `json:"user_id"`
	GroupID    string          `json:"group_id,omitempty"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

type transferResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type netPositionResponse struct {
	UserID string          `json:"user_id"`
	Net    decimal.Decimal `json:"net"`
}

// Balances handles GET /api/v1/balances?group_id= for the calling user.
func (h *BalanceHandler) Balances(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}
	groupID := r.URL.Query().Get("group_id")

	balances, err := h.engine.Balances(r.Context(), userID, groupID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	resp := balancesResponse{
		UserID:  userID,
		GroupID: groupID,
		Owes:    toEntries(balances.Owes),
		OwedBy:  toEntries(balances.OwedBy),
	}
	RespondSuccess(w, http.StatusOK, resp)
}

// NetBalance handles GET /api/v1/balances/net?group_id= for the calling user.
func (h *BalanceHandler) NetBalance(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		RespondAppError(w, ErrMissingUser, nil)
		return
	}
	groupID := r.URL.Query().Get("group_id")

	net, err := h.engine.NetBalance(r.Context(), userID, groupID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, netBalanceResponse{UserID: userID, GroupID: groupID, NetBalance: net})
}

// GroupNetPositions handles GET /api/v1/groups/{id}/balances.
func (h *BalanceHandler) GroupNetPositions(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	positions, err := h.engine.NetPositions(r.Context(), groupID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	out := make([]netPositionResponse, 0, len(positions))
	for userID, net := range positions {
		out = append(out, netPositionResponse{UserID: userID, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	RespondSuccess(w, http.StatusOK, out)
}

// SimplifyGroup handles GET /api/v1/groups/{id}/simplify.
func (h *BalanceHandler) SimplifyGroup(w http.ResponseWriter, r *http.Request) {
	h.simplify(w, r, r.PathValue("id"))
}

// SimplifyGlobal handles GET /api/v1/simplify: the global no-group scope.
func (h *BalanceHandler) SimplifyGlobal(w http.ResponseWriter, r *http.Request) {
	h.simplify(w, r, models.GlobalScope)
}

func (h *BalanceHandler) simplify(w http.ResponseWriter, r *http.Request, groupID string) {
	transfers, err := h.engine.Simplify(r.Context(), groupID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toTransfers(transfers))
}

func toEntries(entries []models.BalanceEntry) []balanceEntryResponse {
	out := make([]balanceEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = balanceEntryResponse{UserID: e.UserID, Amount: e.Amount}
	}
	return out
}

func toTransfers(transfers []calculator.Transfer) []transferResponse {
	out := make([]transferResponse, len(transfers))
	for i, t := range transfers {
		out[i] = transferResponse{From: t.From, To: t.To, Amount: t.Amount}
	}
	return out
}
