package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, created_at, created_by, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.CreatedAt, settlement.CreatedBy, note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, created_at, created_by, note
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
}

// ListUserSettlements retrieves the user's non-group settlements, newest first.
func (s *SQLiteStore) ListUserSettlements(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, created_at, created_by, note
		 FROM settlements WHERE group_id = '' AND (from_user_id = ? OR to_user_id = ?)
		 ORDER BY created_at DESC, id`,
		userID, userID,
	)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...any) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var note sql.NullString
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID, &settlement.ToUserID,
			&settlement.Amount, &settlement.CreatedAt, &settlement.CreatedBy, &note); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if note.Valid {
			settlement.Note = note.String
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
