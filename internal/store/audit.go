package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/safar/tradein-store/internal/models"
)

// AppendAuditEntry records changes for a trade-in. Entries are never updated
// or deleted.
func AppendAuditEntry(ctx context.Context, tx *sql.Tx, tradeInID, staffID int64, action string, changes any) (*models.AuditEntry, error) {
	encoded, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("encode audit changes: %w", err)
	}

	entry := &models.AuditEntry{}
	var stored []byte
	err = tx.QueryRowContext(ctx,
		`INSERT INTO trade_in_audit_log (trade_in_id, staff_id, action, changes, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, trade_in_id, staff_id, action, changes, created_at`,
		tradeInID, staffID, action, encoded,
	).Scan(
		&entry.ID,
		&entry.TradeInID,
		&entry.StaffID,
		&entry.Action,
		&stored,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("append audit entry: %w", err)
	}
	entry.Changes = json.RawMessage(stored)

	return entry, nil
}

func ListAuditLog(ctx context.Context, db Querier, tradeInID int64) ([]models.AuditEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, trade_in_id, staff_id, action, changes, created_at
		 FROM trade_in_audit_log
		 WHERE trade_in_id = $1
		 ORDER BY id`,
		tradeInID)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var (
			entry   models.AuditEntry
			changes []byte
		)
		err := rows.Scan(
			&entry.ID,
			&entry.TradeInID,
			&entry.StaffID,
			&entry.Action,
			&changes,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Changes = json.RawMessage(changes)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}
