// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time. Funnel all access through a single
	// connection so concurrent transactions queue instead of failing with
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// balanceTx implements storage.BalanceTx on top of a sql.Tx.
type balanceTx struct {
	tx *sql.Tx
}

// UpdateBalances runs fn against a transactional view of the balance table.
func (s *SQLiteStore) UpdateBalances(ctx context.Context, fn func(tx storage.BalanceTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&balanceTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *balanceTx) Get(ctx context.Context, ower, owedTo, groupID string) (*models.Balance, error) {
	b := &models.Balance{}
	err := t.tx.QueryRowContext(ctx,
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE ower = ? AND owed_to = ? AND group_id = ?",
		ower, owedTo, groupID,
	).Scan(&b.Ower, &b.OwedTo, &b.Amount, &b.GroupID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return b, nil
}

func (t *balanceTx) Upsert(ctx context.Context, balance *models.Balance) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO balances (ower, owed_to, amount, group_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT (ower, owed_to, group_id) DO UPDATE SET amount = excluded.amount`,
		balance.Ower, balance.OwedTo, balance.Amount, balance.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

func (t *balanceTx) Delete(ctx context.Context, ower, owedTo, groupID string) error {
	_, err := t.tx.ExecContext(ctx,
		"DELETE FROM balances WHERE ower = ? AND owed_to = ? AND group_id = ?",
		ower, owedTo, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return nil
}

func (t *balanceTx) ListScope(ctx context.Context, groupID string) ([]models.Balance, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE group_id = ? ORDER BY ower, owed_to",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()
	return scanBalances(rows)
}

// ListBalancesByScope returns every balance record in the scope.
func (s *SQLiteStore) ListBalancesByScope(ctx context.Context, groupID string) ([]models.Balance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE group_id = ? ORDER BY ower, owed_to",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()
	return scanBalances(rows)
}

// ListBalancesByUser returns what the user owes and is owed within the scope.
// Both directions are read inside one transaction so a concurrent direction
// flip cannot be observed half-applied.
func (s *SQLiteStore) ListBalancesByUser(ctx context.Context, userID, groupID string) (*models.UserBalances, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := &models.UserBalances{}

	rows, err := tx.QueryContext(ctx,
		"SELECT owed_to, amount FROM balances WHERE ower = ? AND group_id = ? ORDER BY owed_to",
		userID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owed balances: %w", err)
	}
	out.Owes, err = scanEntries(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx,
		"SELECT ower, amount FROM balances WHERE owed_to = ? AND group_id = ? ORDER BY ower",
		userID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list owing balances: %w", err)
	}
	out.OwedBy, err = scanEntries(rows)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func scanBalances(rows *sql.Rows) ([]models.Balance, error) {
	var balances []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.Ower, &b.OwedTo, &b.Amount, &b.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

func scanEntries(rows *sql.Rows) ([]models.BalanceEntry, error) {
	defer rows.Close()
	var entries []models.BalanceEntry
	for rows.Next() {
		var e models.BalanceEntry
		if err := rows.Scan(&e.UserID, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan balance entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance entries: %w", err)
	}
	return entries, nil
}
