package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// SettlementInput carries the caller-supplied fields of a settlement.
type SettlementInput struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
	GroupID    string
	Note       string
}

// SettlementService records payments between users and feeds the resulting
// negative delta into the ledger engine: a payment reduces what the payer
// owes the receiver.
type SettlementService struct {
	store  storage.Store
	engine *ledger.Engine
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, engine *ledger.Engine) *SettlementService {
	return &SettlementService{store: store, engine: engine}
}

// Create validates and records a settlement. The ledger delta is applied
// first; if persisting the settlement then fails, the delta is reversed so
// no effect remains.
func (s *SettlementService) Create(ctx context.Context, input SettlementInput, createdBy string) (*models.Settlement, error) {
	if input.FromUserID == input.ToUserID {
		return nil, models.ErrSelfSettlement
	}
	if !input.Amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	if input.GroupID != models.GlobalScope {
		group, err := s.store.GetGroup(ctx, input.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(input.FromUserID) || !group.HasMember(input.ToUserID) {
			return nil, fmt.Errorf("%w: both users must be group members", models.ErrNotGroupMember)
		}
	}

	if err := s.engine.ApplyDelta(ctx, input.FromUserID, input.ToUserID, input.Amount.Neg(), input.GroupID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		GroupID:    input.GroupID,
		FromUserID: input.FromUserID,
		ToUserID:   input.ToUserID,
		Amount:     input.Amount,
		CreatedBy:  createdBy,
		Note:       input.Note,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		// Deltas are invertible: undo the balance effect.
		if undoErr := s.engine.ApplyDelta(ctx, input.FromUserID, input.ToUserID, input.Amount, input.GroupID); undoErr != nil {
			slog.Error("failed to reverse delta after settlement persist failure",
				"from", input.FromUserID, "to", input.ToUserID, "error", undoErr)
		}
		return nil, err
	}

	slog.Info("settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", settlement.GroupID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount,
	)
	return settlement, nil
}

// GroupSettlements lists a group's settlements. The caller must be a member.
func (s *SettlementService) GroupSettlements(ctx context.Context, groupID, userID string) ([]*models.Settlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, models.ErrNotGroupMember
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}

// UserSettlements lists the user's non-group settlements.
func (s *SettlementService) UserSettlements(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return s.store.ListUserSettlements(ctx, userID)
}
