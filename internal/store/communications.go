package store

import (
	"context"
	"fmt"

	"github.com/safar/tradein-store/internal/models"
)

func InsertCommunication(ctx context.Context, db Querier, c *models.Communication) error {
	err := db.QueryRowContext(ctx,
		`INSERT INTO trade_in_communications (trade_in_id, channel, event, template, recipient, subject,
			status, attempts, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 RETURNING id, created_at`,
		c.TradeInID, c.Channel, c.Event, c.Template, c.Recipient, c.Subject,
		c.Status, c.Attempts, c.Error,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create communication: %w", err)
	}
	return nil
}

func ListCommunications(ctx context.Context, db Querier, tradeInID int64) ([]models.Communication, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, trade_in_id, channel, event, template, recipient, subject, status, attempts, error, created_at
		 FROM trade_in_communications
		 WHERE trade_in_id = $1
		 ORDER BY id`,
		tradeInID)
	if err != nil {
		return nil, fmt.Errorf("list communications: %w", err)
	}
	defer rows.Close()

	comms := []models.Communication{}
	for rows.Next() {
		var c models.Communication
		err := rows.Scan(
			&c.ID,
			&c.TradeInID,
			&c.Channel,
			&c.Event,
			&c.Template,
			&c.Recipient,
			&c.Subject,
			&c.Status,
			&c.Attempts,
			&c.Error,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan communication: %w", err)
		}
		comms = append(comms, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return comms, nil
}
