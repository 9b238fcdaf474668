// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/settleup/internal/models"
)

// Store defines the full persistence surface. This abstraction allows
// swapping storage backends (SQLite, PostgreSQL) without changing the
// service layer.
type Store interface {
	BalanceStore
	ExpenseStore
	SettlementStore
	GroupStore

	// Close releases any resources held by the store.
	Close() error
}

// BalanceTx is a transactional view of the balance records. Everything done
// through one BalanceTx commits or rolls back as a unit; the ledger engine
// relies on this for delta atomicity.
type BalanceTx interface {
	// Get returns the record for (ower, owedTo, groupID), or nil if no such
	// record exists.
	Get(ctx context.Context, ower, owedTo, groupID string) (*models.Balance, error)

	// Upsert creates or replaces the record for the balance's key.
	Upsert(ctx context.Context, balance *models.Balance) error

	// Delete removes the record for (ower, owedTo, groupID). Deleting an
	// absent record is not an error.
	Delete(ctx context.Context, ower, owedTo, groupID string) error

	// ListScope returns every record in the scope, as seen by this
	// transaction.
	ListScope(ctx context.Context, groupID string) ([]models.Balance, error)
}

// BalanceStore persists directed debt records keyed by (ower, owedTo, scope).
type BalanceStore interface {
	// UpdateBalances runs fn against a transactional view of the balance
	// records and commits if fn returns nil, rolling back otherwise.
	UpdateBalances(ctx context.Context, fn func(tx BalanceTx) error) error

	// ListBalancesByScope returns every balance record in the scope.
	ListBalancesByScope(ctx context.Context, groupID string) ([]models.Balance, error)

	// ListBalancesByUser returns the records where the user owes and is
	// owed, restricted to the scope.
	ListBalancesByUser(ctx context.Context, userID, groupID string) (*models.UserBalances, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// CreateExpense persists a new expense, populating ID and CreatedAt.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by id.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense replaces an existing expense and its participants.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense by id.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListUserExpenses returns the user's non-group expenses (payer or
	// participant), newest first.
	ListUserExpenses(ctx context.Context, userID string) ([]*models.Expense, error)
}

// SettlementStore persists recorded settlements.
type SettlementStore interface {
	// CreateSettlement persists a new settlement, populating ID and
	// CreatedAt.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ListUserSettlements returns the user's non-group settlements, newest
	// first.
	ListUserSettlements(ctx context.Context, userID string) ([]*models.Settlement, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group, populating ID and CreatedAt.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups retrieves all groups.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup replaces a group's name and membership.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup removes a group by id.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMembers adds members to a group, ignoring existing ones.
	AddGroupMembers(ctx context.Context, groupID string, members []string) error
}
