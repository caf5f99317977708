package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

// Reservation is a request to hold quantity units of sku.
type Reservation struct {
	SKU      string
	Quantity int
}

func CreateInventoryItem(ctx context.Context, db Querier, sku, name string, price decimal.Decimal, quantity int) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}

	query := `
		INSERT INTO inventory (sku, name, price, quantity, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, NOW(), NOW(), 1)
		RETURNING id, sku, name, price, quantity, created_at, updated_at, version`

	err := db.QueryRowContext(ctx, query, sku, name, price, quantity).Scan(
		&item.ID,
		&item.SKU,
		&item.Name,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}

	return item, nil
}

func GetInventoryItem(ctx context.Context, db Querier, sku string) (*models.InventoryItem, error) {
	item := &models.InventoryItem{}

	query := `
		SELECT id, sku, name, price, quantity, created_at, updated_at, version
		FROM inventory
		WHERE sku = $1`

	err := db.QueryRowContext(ctx, query, sku).Scan(
		&item.ID,
		&item.SKU,
		&item.Name,
		&item.Price,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.Version,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrInventoryNotFound
		}
		return nil, fmt.Errorf("get inventory item: %w", err)
	}

	return item, nil
}

// ReserveInventory decrements stock for every reservation in order and stops
// at the first SKU that cannot cover its quantity. The caller's transaction
// must be rolled back on error so earlier decrements are undone.
func ReserveInventory(ctx context.Context, tx *sql.Tx, reservations []Reservation) error {
	for _, r := range reservations {
		if err := decrementInventory(ctx, tx, r); err != nil {
			return err
		}
	}
	return nil
}

func decrementInventory(ctx context.Context, tx *sql.Tx, r Reservation) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET quantity = quantity - $1,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE sku = $2
		   AND quantity >= $1`,
		r.Quantity, r.SKU)
	if err != nil {
		return fmt.Errorf("decrement inventory %s: %w", r.SKU, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &database.InsufficientInventoryError{SKU: r.SKU, Requested: r.Quantity}
	}

	return nil
}

// ReleaseInventory returns previously reserved quantities to stock. SKUs
// whose inventory row no longer exists are skipped and reported in missing.
func ReleaseInventory(ctx context.Context, tx *sql.Tx, reservations []Reservation) ([]string, error) {
	var missing []string
	for _, r := range reservations {
		result, err := tx.ExecContext(ctx,
			`UPDATE inventory
			 SET quantity = quantity + $1,
			     updated_at = NOW(),
			     version = version + 1
			 WHERE sku = $2`,
			r.Quantity, r.SKU)
		if err != nil {
			return nil, fmt.Errorf("release inventory %s: %w", r.SKU, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			missing = append(missing, r.SKU)
		}
	}
	return missing, nil
}

// ReservationsFor lists the inventory holds implied by a set of new items.
// Custom orders are made for the customer and never draw on stock.
func ReservationsFor(items []models.NewItem) []Reservation {
	var reservations []Reservation
	for _, item := range items {
		if !item.Reserved() {
			continue
		}
		reservations = append(reservations, Reservation{SKU: item.SKU, Quantity: item.Quantity})
	}
	return reservations
}
