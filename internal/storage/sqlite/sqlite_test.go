package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func TestSQLiteStore(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("CreateExpense generates ID and timestamp", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Dinner",
			Amount:      d(t, "60"),
			PaidBy:      "alice",
			CreatedBy:   "alice",
			SplitType:   models.SplitEqual,
			Participants: []models.Participant{
				{UserID: "alice", Amount: d(t, "30")},
				{UserID: "bob", Amount: d(t, "30")},
			},
		}

		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}
		if expense.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetExpense retrieves complete expense", func(t *testing.T) {
		original := &models.Expense{
			Description: "Groceries",
			Amount:      d(t, "45.50"),
			PaidBy:      "bob",
			CreatedBy:   "bob",
			GroupID:     "house",
			SplitType:   models.SplitExact,
			Participants: []models.Participant{
				{UserID: "alice", Amount: d(t, "20.50")},
				{UserID: "bob", Amount: d(t, "25")},
			},
		}
		if err := store.CreateExpense(ctx, original); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		retrieved, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if retrieved.Description != original.Description {
			t.Errorf("Description mismatch: got %s, want %s", retrieved.Description, original.Description)
		}
		if !retrieved.Amount.Equal(original.Amount) {
			t.Errorf("Amount mismatch: got %s, want %s", retrieved.Amount, original.Amount)
		}
		if retrieved.SplitType != models.SplitExact {
			t.Errorf("SplitType mismatch: got %s", retrieved.SplitType)
		}
		if len(retrieved.Participants) != 2 {
			t.Fatalf("Participants count mismatch: got %d, want 2", len(retrieved.Participants))
		}
		// Participants come back ordered by user id.
		if retrieved.Participants[0].UserID != "alice" || !retrieved.Participants[0].Amount.Equal(d(t, "20.50")) {
			t.Errorf("Participant mismatch: got %+v", retrieved.Participants[0])
		}
	})

	t.Run("GetExpense returns ErrNotFound for missing id", func(t *testing.T) {
		_, err := store.GetExpense(ctx, "nonexistent-id")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateExpense replaces participants", func(t *testing.T) {
		expense := &models.Expense{
			Description: "Taxi",
			Amount:      d(t, "30"),
			PaidBy:      "alice",
			CreatedBy:   "alice",
			SplitType:   models.SplitEqual,
			Participants: []models.Participant{
				{UserID: "alice", Amount: d(t, "15")},
				{UserID: "bob", Amount: d(t, "15")},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expense.Amount = d(t, "45")
		expense.Participants = []models.Participant{
			{UserID: "alice", Amount: d(t, "15")},
			{UserID: "bob", Amount: d(t, "15")},
			{UserID: "carol", Amount: d(t, "15")},
		}
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}

		retrieved, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if len(retrieved.Participants) != 3 {
			t.Errorf("Participants count mismatch: got %d, want 3", len(retrieved.Participants))
		}
	})

	t.Run("DeleteExpense removes expense and participants", func(t *testing.T) {
		expense := &models.Expense{
			Description:  "Coffee",
			Amount:       d(t, "5"),
			PaidBy:       "alice",
			CreatedBy:    "alice",
			SplitType:    models.SplitEqual,
			Participants: []models.Participant{{UserID: "alice", Amount: d(t, "5")}},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on double delete, got %v", err)
		}
	})

	t.Run("Balance upsert, get, and delete within a transaction", func(t *testing.T) {
		err := store.UpdateBalances(ctx, func(tx storage.BalanceTx) error {
			if err := tx.Upsert(ctx, &models.Balance{
				Ower: "alice", OwedTo: "bob", Amount: d(t, "12.34"), GroupID: "house",
			}); err != nil {
				return err
			}
			b, err := tx.Get(ctx, "alice", "bob", "house")
			if err != nil {
				return err
			}
			if b == nil || !b.Amount.Equal(d(t, "12.34")) {
				t.Errorf("Get after Upsert: got %+v", b)
			}

			// Upsert on the same key overwrites.
			if err := tx.Upsert(ctx, &models.Balance{
				Ower: "alice", OwedTo: "bob", Amount: d(t, "20"), GroupID: "house",
			}); err != nil {
				return err
			}
			b, err = tx.Get(ctx, "alice", "bob", "house")
			if err != nil {
				return err
			}
			if b == nil || !b.Amount.Equal(d(t, "20")) {
				t.Errorf("Get after second Upsert: got %+v", b)
			}
			return tx.Delete(ctx, "alice", "bob", "house")
		})
		if err != nil {
			t.Fatalf("UpdateBalances failed: %v", err)
		}

		balances, err := store.ListBalancesByScope(ctx, "house")
		if err != nil {
			t.Fatalf("ListBalancesByScope failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("Expected empty scope after delete, got %d records", len(balances))
		}
	})

	t.Run("UpdateBalances rolls back on error", func(t *testing.T) {
		wantErr := errors.New("boom")
		err := store.UpdateBalances(ctx, func(tx storage.BalanceTx) error {
			if err := tx.Upsert(ctx, &models.Balance{
				Ower: "x", OwedTo: "y", Amount: d(t, "1"), GroupID: "rollback",
			}); err != nil {
				return err
			}
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Expected wrapped error, got %v", err)
		}

		balances, err := store.ListBalancesByScope(ctx, "rollback")
		if err != nil {
			t.Fatalf("ListBalancesByScope failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("Expected rollback to discard upsert, got %d records", len(balances))
		}
	})

	t.Run("ListBalancesByUser splits owes and owed-by", func(t *testing.T) {
		err := store.UpdateBalances(ctx, func(tx storage.BalanceTx) error {
			for _, b := range []models.Balance{
				{Ower: "alice", OwedTo: "bob", Amount: d(t, "10"), GroupID: "view"},
				{Ower: "carol", OwedTo: "alice", Amount: d(t, "7"), GroupID: "view"},
			} {
				if err := tx.Upsert(ctx, &b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("UpdateBalances failed: %v", err)
		}

		ub, err := store.ListBalancesByUser(ctx, "alice", "view")
		if err != nil {
			t.Fatalf("ListBalancesByUser failed: %v", err)
		}
		if len(ub.Owes) != 1 || ub.Owes[0].UserID != "bob" || !ub.Owes[0].Amount.Equal(d(t, "10")) {
			t.Errorf("Owes mismatch: %+v", ub.Owes)
		}
		if len(ub.OwedBy) != 1 || ub.OwedBy[0].UserID != "carol" || !ub.OwedBy[0].Amount.Equal(d(t, "7")) {
			t.Errorf("OwedBy mismatch: %+v", ub.OwedBy)
		}
	})

	t.Run("Settlement round trip with optional note", func(t *testing.T) {
		withNote := &models.Settlement{
			FromUserID: "alice", ToUserID: "bob", Amount: d(t, "25"),
			CreatedBy: "alice", Note: "venmo",
		}
		noNote := &models.Settlement{
			FromUserID: "bob", ToUserID: "alice", Amount: d(t, "5"), CreatedBy: "bob",
		}
		for _, s := range []*models.Settlement{withNote, noNote} {
			if err := store.CreateSettlement(ctx, s); err != nil {
				t.Fatalf("CreateSettlement failed: %v", err)
			}
			if s.ID == "" || s.CreatedAt == 0 {
				t.Errorf("Expected generated ID and CreatedAt, got %+v", s)
			}
		}

		both, err := store.ListUserSettlements(ctx, "alice")
		if err != nil {
			t.Fatalf("ListUserSettlements failed: %v", err)
		}
		if len(both) != 2 {
			t.Fatalf("Expected 2 settlements, got %d", len(both))
		}
	})

	t.Run("Group CRUD and membership", func(t *testing.T) {
		group := &models.Group{Name: "Trip", Members: []string{"alice", "bob"}}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		retrieved, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(retrieved.Members) != 2 {
			t.Errorf("Members count mismatch: got %d, want 2", len(retrieved.Members))
		}

		// Adding a mix of new and existing members only adds the new one.
		if err := store.AddGroupMembers(ctx, group.ID, []string{"bob", "carol"}); err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}
		retrieved, err = store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(retrieved.Members) != 3 {
			t.Errorf("Members count mismatch after add: got %d, want 3", len(retrieved.Members))
		}

		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup excludes other scopes", func(t *testing.T) {
		grouped := &models.Expense{
			Description: "Hotel", Amount: d(t, "200"), PaidBy: "alice", CreatedBy: "alice",
			GroupID: "weekend", SplitType: models.SplitEqual,
			Participants: []models.Participant{{UserID: "alice", Amount: d(t, "200")}},
		}
		if err := store.CreateExpense(ctx, grouped); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		expenses, err := store.ListExpensesByGroup(ctx, "weekend")
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 1 || expenses[0].ID != grouped.ID {
			t.Errorf("Expected only the weekend expense, got %d", len(expenses))
		}
	})
}
