package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// CreateExpense persists a new expense and its participants.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, paid_by, created_by, group_id, split_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.PaidBy,
		expense.CreatedBy, expense.GroupID, string(expense.SplitType), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertParticipants(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its participants.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var splitType string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount, paid_by, created_by, group_id, split_type, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.PaidBy,
		&expense.CreatedBy, &expense.GroupID, &splitType, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.SplitType = models.SplitType(splitType)

	expense.Participants, err = s.expenseParticipants(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense replaces an existing expense and its participants.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, paid_by = ?, group_id = ?, split_type = ?
		 WHERE id = ?`,
		expense.Description, expense.Amount, expense.PaidBy, expense.GroupID,
		string(expense.SplitType), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, models.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_participants WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; participants cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, models.ErrNotFound)
	}
	return nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT id, description, amount, paid_by, created_by, group_id, split_type, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
}

// ListUserExpenses retrieves the user's non-group expenses, newest first.
func (s *SQLiteStore) ListUserExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT DISTINCT e.id, e.description, e.amount, e.paid_by, e.created_by, e.group_id, e.split_type, e.created_at
		 FROM expenses e
		 LEFT JOIN expense_participants p ON p.expense_id = e.id
		 WHERE e.group_id = '' AND (e.paid_by = ? OR p.user_id = ?)
		 ORDER BY e.created_at DESC, e.id`,
		userID, userID,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var splitType string
		if err := rows.Scan(&expense.ID, &expense.Description, &expense.Amount, &expense.PaidBy,
			&expense.CreatedBy, &expense.GroupID, &splitType, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.SplitType = models.SplitType(splitType)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		expense.Participants, err = s.expenseParticipants(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func (s *SQLiteStore) expenseParticipants(ctx context.Context, expenseID string) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount, percentage FROM expense_participants WHERE expense_id = ? ORDER BY user_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Amount, &p.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for _, p := range expense.Participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, amount, percentage) VALUES (?, ?, ?, ?)",
			expense.ID, p.UserID, p.Amount, p.Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}
