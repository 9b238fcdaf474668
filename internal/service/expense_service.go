// Package service implements the application services that translate domain
// events (expenses, settlements, group changes) into ledger operations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// ExpenseInput carries the caller-supplied fields of an expense. For EXACT
// splits participants carry amounts, for PERCENT splits percentages; EQUAL
// splits need neither.
type ExpenseInput struct {
	Description  string
	Amount       decimal.Decimal
	PaidBy       string
	GroupID      string
	SplitType    models.SplitType
	Participants []models.Participant
}

// ExpenseService validates expenses, persists them, and feeds their balance
// deltas into the ledger engine.
type ExpenseService struct {
	store  storage.Store
	engine *ledger.Engine
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(store storage.Store, engine *ledger.Engine) *ExpenseService {
	return &ExpenseService{store: store, engine: engine}
}

// Create validates the expense, computes participant shares, persists the
// expense, and applies one delta per non-payer participant as an atomic
// batch. No delta is applied if validation fails.
func (s *ExpenseService) Create(ctx context.Context, input ExpenseInput, createdBy string) (*models.Expense, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	shares, err := calculator.ComputeShares(input.SplitType, input.Amount, input.Participants)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Description:  input.Description,
		Amount:       input.Amount,
		PaidBy:       input.PaidBy,
		CreatedBy:    createdBy,
		GroupID:      input.GroupID,
		SplitType:    input.SplitType,
		Participants: shares,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	if err := s.engine.ApplyAll(ctx, ledger.ExpenseDeltas(expense), expense.GroupID); err != nil {
		// Back out the stored expense so the record and the ledger agree.
		if delErr := s.store.DeleteExpense(ctx, expense.ID); delErr != nil {
			slog.Error("failed to back out expense after delta failure",
				"expense_id", expense.ID, "error", delErr)
		}
		return nil, err
	}

	slog.Info("expense created",
		"expense_id", expense.ID,
		"group_id", expense.GroupID,
		"paid_by", expense.PaidBy,
		"amount", expense.Amount,
		"participants", len(expense.Participants),
	)
	return expense, nil
}

// Update replaces an expense. The old expense's deltas are negated and the
// new expense's deltas applied in one atomic ledger batch, so a failure
// partway cannot leave the scope half-reversed. Only the expense creator or
// payer may update; an expense's scope is immutable.
func (s *ExpenseService) Update(ctx context.Context, expenseID string, input ExpenseInput, userID string) (*models.Expense, error) {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if userID != existing.CreatedBy && userID != existing.PaidBy {
		return nil, fmt.Errorf("%w: only the expense creator or payer can update", models.ErrForbidden)
	}

	input.GroupID = existing.GroupID
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	shares, err := calculator.ComputeShares(input.SplitType, input.Amount, input.Participants)
	if err != nil {
		return nil, err
	}

	updated := &models.Expense{
		ID:           existing.ID,
		Description:  input.Description,
		Amount:       input.Amount,
		PaidBy:       input.PaidBy,
		CreatedBy:    existing.CreatedBy,
		GroupID:      existing.GroupID,
		SplitType:    input.SplitType,
		Participants: shares,
		CreatedAt:    existing.CreatedAt,
	}
	if err := s.store.UpdateExpense(ctx, updated); err != nil {
		return nil, err
	}

	// Reversal and reapply as a single batch.
	deltas := append(ledger.ReversalDeltas(existing), ledger.ExpenseDeltas(updated)...)
	if err := s.engine.ApplyAll(ctx, deltas, existing.GroupID); err != nil {
		if restoreErr := s.store.UpdateExpense(ctx, existing); restoreErr != nil {
			slog.Error("failed to restore expense after delta failure",
				"expense_id", existing.ID, "error", restoreErr)
		}
		return nil, err
	}

	slog.Info("expense updated", "expense_id", updated.ID, "group_id", updated.GroupID)
	return updated, nil
}

// Delete removes an expense after backing its deltas out of the ledger.
// Only the expense creator or payer may delete.
func (s *ExpenseService) Delete(ctx context.Context, expenseID, userID string) error {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if userID != existing.CreatedBy && userID != existing.PaidBy {
		return fmt.Errorf("%w: only the expense creator or payer can delete", models.ErrForbidden)
	}

	if err := s.engine.ApplyAll(ctx, ledger.ReversalDeltas(existing), existing.GroupID); err != nil {
		return err
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		// The reversal already committed; reapply to keep record and ledger
		// in agreement.
		if reErr := s.engine.ApplyAll(ctx, ledger.ExpenseDeltas(existing), existing.GroupID); reErr != nil {
			slog.Error("failed to reapply deltas after delete failure",
				"expense_id", expenseID, "error", reErr)
		}
		return err
	}

	slog.Info("expense deleted", "expense_id", expenseID, "group_id", existing.GroupID)
	return nil
}

// GroupExpenses lists a group's expenses. The caller must be a member.
func (s *ExpenseService) GroupExpenses(ctx context.Context, groupID, userID string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, models.ErrNotGroupMember
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// UserExpenses lists the user's non-group expenses.
func (s *ExpenseService) UserExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.store.ListUserExpenses(ctx, userID)
}

func (s *ExpenseService) validate(ctx context.Context, input *ExpenseInput) error {
	if len(input.Participants) == 0 {
		return models.ErrNoParticipants
	}

	seen := make(map[string]bool, len(input.Participants))
	payerIsParticipant := false
	for _, p := range input.Participants {
		if p.UserID == "" {
			return fmt.Errorf("%w: participant user id required", models.ErrInvalidSplit)
		}
		if seen[p.UserID] {
			return models.ErrDuplicateParticipant
		}
		seen[p.UserID] = true
		if p.UserID == input.PaidBy {
			payerIsParticipant = true
		}
	}
	if !payerIsParticipant {
		return models.ErrPayerNotParticipant
	}

	if input.GroupID != models.GlobalScope {
		group, err := s.store.GetGroup(ctx, input.GroupID)
		if err != nil {
			return err
		}
		for _, p := range input.Participants {
			if !group.HasMember(p.UserID) {
				return fmt.Errorf("%w: participant %s", models.ErrNotGroupMember, p.UserID)
			}
		}
	}
	return nil
}
