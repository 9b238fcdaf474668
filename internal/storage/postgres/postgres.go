// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Ensure PostgresStore implements storage.Store
var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New connects to PostgreSQL with the given DSN and runs migrations.
func New(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// balanceTx implements storage.BalanceTx on top of a sql.Tx.
type balanceTx struct {
	tx *sql.Tx
}

// UpdateBalances runs fn against a transactional view of the balance table.
func (s *PostgresStore) UpdateBalances(ctx context.Context, fn func(tx storage.BalanceTx) error) error {
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
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE ower = $1 AND owed_to = $2 AND group_id = $3",
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
		`INSERT INTO balances (ower, owed_to, amount, group_id) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (ower, owed_to, group_id) DO UPDATE SET amount = EXCLUDED.amount`,
		balance.Ower, balance.OwedTo, balance.Amount, balance.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

func (t *balanceTx) Delete(ctx context.Context, ower, owedTo, groupID string) error {
	_, err := t.tx.ExecContext(ctx,
		"DELETE FROM balances WHERE ower = $1 AND owed_to = $2 AND group_id = $3",
		ower, owedTo, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete balance: %w", err)
	}
	return nil
}

func (t *balanceTx) ListScope(ctx context.Context, groupID string) ([]models.Balance, error) {
	rows, err := t.tx.QueryContext(ctx,
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE group_id = $1 ORDER BY ower, owed_to",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()
	return scanBalances(rows)
}

// ListBalancesByScope returns every balance record in the scope.
func (s *PostgresStore) ListBalancesByScope(ctx context.Context, groupID string) ([]models.Balance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT ower, owed_to, amount, group_id FROM balances WHERE group_id = $1 ORDER BY ower, owed_to",
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
// flip cannot be observed half-applied. Repeatable-read isolation gives both
// queries the same snapshot; read-committed would re-snapshot per statement.
func (s *PostgresStore) ListBalancesByUser(ctx context.Context, userID, groupID string) (*models.UserBalances, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	out := &models.UserBalances{}

	rows, err := tx.QueryContext(ctx,
		"SELECT owed_to, amount FROM balances WHERE ower = $1 AND group_id = $2 ORDER BY owed_to",
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
		"SELECT ower, amount FROM balances WHERE owed_to = $1 AND group_id = $2 ORDER BY ower",
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
