package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

const tradeInColumns = `id, reference_number, customer_id, staff_id, trade_in_date, status, notes,
	trade_in_credit, new_items_cost, tax, net_difference, status_history, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTradeIn(row rowScanner, t *models.TradeIn) error {
	var history []byte
	err := row.Scan(
		&t.ID,
		&t.ReferenceNumber,
		&t.CustomerID,
		&t.StaffID,
		&t.Date,
		&t.Status,
		&t.Notes,
		&t.Financial.TradeInCredit,
		&t.Financial.NewItemsCost,
		&t.Financial.Tax,
		&t.Financial.NetDifference,
		&history,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(history, &t.StatusHistory); err != nil {
		return fmt.Errorf("decode status history: %w", err)
	}

	return nil
}

// InsertTradeIn persists the header, items and new items of t and fills in
// the generated ids and timestamps.
func InsertTradeIn(ctx context.Context, tx *sql.Tx, t *models.TradeIn) error {
	history, err := json.Marshal(t.StatusHistory)
	if err != nil {
		return fmt.Errorf("encode status history: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO trade_ins (reference_number, customer_id, staff_id, trade_in_date, status, notes,
			trade_in_credit, new_items_cost, tax, net_difference, status_history, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW(), 1)
		 RETURNING id, created_at, updated_at, version`,
		t.ReferenceNumber,
		t.CustomerID,
		t.StaffID,
		t.Date,
		t.Status,
		t.Notes,
		t.Financial.TradeInCredit,
		t.Financial.NewItemsCost,
		t.Financial.Tax,
		t.Financial.NetDifference,
		history,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.Version)
	if err != nil {
		return fmt.Errorf("create trade-in: %w", err)
	}

	if err := insertItems(ctx, tx, t.ID, t.Items); err != nil {
		return err
	}

	return insertNewItems(ctx, tx, t.ID, t.NewItems)
}

func insertItems(ctx context.Context, tx *sql.Tx, tradeInID int64, items []models.TradeInItem) error {
	for i := range items {
		item := &items[i]

		var (
			gemType, gemQuality, gemCert sql.NullString
			gemCarat                     decimal.NullDecimal
		)
		if g := item.Gemstone; g != nil {
			gemType = sql.NullString{String: g.Type, Valid: true}
			gemQuality = sql.NullString{String: g.Quality, Valid: true}
			gemCarat = decimal.NullDecimal{Decimal: g.Carat, Valid: true}
			gemCert = sql.NullString{String: g.CertificateID, Valid: g.CertificateID != ""}
		}

		photos := item.Photos
		if photos == nil {
			photos = []string{}
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO trade_in_items (trade_in_id, position, item_type, metal_type, purity, weight, weight_unit,
				condition, appraisal_value, accepted_value, description, photos,
				gemstone_type, gemstone_carat, gemstone_quality, gemstone_certificate)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			 RETURNING id`,
			tradeInID, i, item.Type, item.MetalType, item.Purity, item.Weight, item.WeightUnit,
			item.Condition, item.AppraisalValue, item.AcceptedValue, item.Description, pq.Array(photos),
			gemType, gemCarat, gemQuality, gemCert,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("create trade-in item: %w", err)
		}
	}
	return nil
}

func insertNewItems(ctx context.Context, tx *sql.Tx, tradeInID int64, items []models.NewItem) error {
	for i := range items {
		item := &items[i]

		specs := item.Specs
		if specs == nil {
			specs = map[string]string{}
		}
		specsJSON, err := json.Marshal(specs)
		if err != nil {
			return fmt.Errorf("encode specs: %w", err)
		}

		var dueDate sql.NullTime
		if item.DueDate != nil {
			dueDate = sql.NullTime{Time: *item.DueDate, Valid: true}
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO trade_in_new_items (trade_in_id, position, name, sku, price, quantity, status,
				custom_order, specs, due_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			tradeInID, i, item.Name, item.SKU, item.Price, item.Quantity, item.Status,
			item.CustomOrder, specsJSON, dueDate,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("create trade-in new item: %w", err)
		}
	}
	return nil
}

// GetTradeIn loads a trade-in with its items and new items.
func GetTradeIn(ctx context.Context, db Querier, id int64) (*models.TradeIn, error) {
	t := &models.TradeIn{}

	row := db.QueryRowContext(ctx, `SELECT `+tradeInColumns+` FROM trade_ins WHERE id = $1`, id)
	if err := scanTradeIn(row, t); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrTradeInNotFound
		}
		return nil, fmt.Errorf("get trade-in: %w", err)
	}

	if err := loadLines(ctx, db, t); err != nil {
		return nil, err
	}

	return t, nil
}

func GetTradeInByReference(ctx context.Context, db Querier, reference string) (*models.TradeIn, error) {
	t := &models.TradeIn{}

	row := db.QueryRowContext(ctx, `SELECT `+tradeInColumns+` FROM trade_ins WHERE reference_number = $1`, reference)
	if err := scanTradeIn(row, t); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrTradeInNotFound
		}
		return nil, fmt.Errorf("get trade-in by reference: %w", err)
	}

	if err := loadLines(ctx, db, t); err != nil {
		return nil, err
	}

	return t, nil
}

// LockTradeIn loads a trade-in and holds a row lock on it until tx ends.
func LockTradeIn(ctx context.Context, tx *sql.Tx, id int64) (*models.TradeIn, error) {
	t := &models.TradeIn{}

	row := tx.QueryRowContext(ctx, `SELECT `+tradeInColumns+` FROM trade_ins WHERE id = $1 FOR UPDATE`, id)
	if err := scanTradeIn(row, t); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrTradeInNotFound
		}
		return nil, fmt.Errorf("lock trade-in: %w", err)
	}

	if err := loadLines(ctx, tx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func loadLines(ctx context.Context, db Querier, t *models.TradeIn) error {
	items, err := listItems(ctx, db, t.ID)
	if err != nil {
		return err
	}
	newItems, err := listNewItems(ctx, db, t.ID)
	if err != nil {
		return err
	}
	t.Items = items
	t.NewItems = newItems
	return nil
}

func listItems(ctx context.Context, db Querier, tradeInID int64) ([]models.TradeInItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_type, metal_type, purity, weight, weight_unit, condition, appraisal_value,
			accepted_value, description, photos, gemstone_type, gemstone_carat, gemstone_quality,
			gemstone_certificate
		 FROM trade_in_items
		 WHERE trade_in_id = $1
		 ORDER BY position`,
		tradeInID)
	if err != nil {
		return nil, fmt.Errorf("get trade-in items: %w", err)
	}
	defer rows.Close()

	items := []models.TradeInItem{}
	for rows.Next() {
		var (
			item                         models.TradeInItem
			gemType, gemQuality, gemCert sql.NullString
			gemCarat                     decimal.NullDecimal
		)
		err := rows.Scan(
			&item.ID,
			&item.Type,
			&item.MetalType,
			&item.Purity,
			&item.Weight,
			&item.WeightUnit,
			&item.Condition,
			&item.AppraisalValue,
			&item.AcceptedValue,
			&item.Description,
			pq.Array(&item.Photos),
			&gemType,
			&gemCarat,
			&gemQuality,
			&gemCert,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade-in item: %w", err)
		}
		if gemType.Valid {
			item.Gemstone = &models.Gemstone{
				Type:          gemType.String,
				Carat:         gemCarat.Decimal,
				Quality:       gemQuality.String,
				CertificateID: gemCert.String,
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func listNewItems(ctx context.Context, db Querier, tradeInID int64) ([]models.NewItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, sku, price, quantity, status, custom_order, specs, due_date
		 FROM trade_in_new_items
		 WHERE trade_in_id = $1
		 ORDER BY position`,
		tradeInID)
	if err != nil {
		return nil, fmt.Errorf("get trade-in new items: %w", err)
	}
	defer rows.Close()

	items := []models.NewItem{}
	for rows.Next() {
		var (
			item    models.NewItem
			specs   []byte
			dueDate sql.NullTime
		)
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.SKU,
			&item.Price,
			&item.Quantity,
			&item.Status,
			&item.CustomOrder,
			&specs,
			&dueDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade-in new item: %w", err)
		}
		if err := json.Unmarshal(specs, &item.Specs); err != nil {
			return nil, fmt.Errorf("decode specs: %w", err)
		}
		if len(item.Specs) == 0 {
			item.Specs = nil
		}
		if dueDate.Valid {
			d := dueDate.Time
			item.DueDate = &d
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// AppendStatus sets the status and appends the matching history entry in a
// single statement, so status always equals the last history entry. t is
// updated to match the stored row.
func AppendStatus(ctx context.Context, tx *sql.Tx, t *models.TradeIn, entry models.StatusHistoryEntry) error {
	encoded, err := json.Marshal([]models.StatusHistoryEntry{entry})
	if err != nil {
		return fmt.Errorf("encode status history entry: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE trade_ins
		 SET status = $1,
		     status_history = status_history || $2::jsonb,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE id = $3
		 RETURNING updated_at, version`,
		entry.Status, encoded, t.ID,
	).Scan(&t.UpdatedAt, &t.Version)
	if err != nil {
		if database.IsNoRows(err) {
			return database.ErrTradeInNotFound
		}
		return fmt.Errorf("update trade-in status: %w", err)
	}

	t.Status = entry.Status
	t.StatusHistory = append(t.StatusHistory, entry)

	return nil
}

// UpdateTradeInFields writes the mutable header fields. Status and history
// are not touched.
func UpdateTradeInFields(ctx context.Context, tx *sql.Tx, t *models.TradeIn) error {
	err := tx.QueryRowContext(ctx,
		`UPDATE trade_ins
		 SET staff_id = $1,
		     trade_in_date = $2,
		     notes = $3,
		     trade_in_credit = $4,
		     new_items_cost = $5,
		     tax = $6,
		     net_difference = $7,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE id = $8
		 RETURNING updated_at, version`,
		t.StaffID,
		t.Date,
		t.Notes,
		t.Financial.TradeInCredit,
		t.Financial.NewItemsCost,
		t.Financial.Tax,
		t.Financial.NetDifference,
		t.ID,
	).Scan(&t.UpdatedAt, &t.Version)
	if err != nil {
		if database.IsNoRows(err) {
			return database.ErrTradeInNotFound
		}
		return fmt.Errorf("update trade-in: %w", err)
	}

	return nil
}

func ReplaceItems(ctx context.Context, tx *sql.Tx, tradeInID int64, items []models.TradeInItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_in_items WHERE trade_in_id = $1`, tradeInID); err != nil {
		return fmt.Errorf("clear trade-in items: %w", err)
	}
	return insertItems(ctx, tx, tradeInID, items)
}

func ReplaceNewItems(ctx context.Context, tx *sql.Tx, tradeInID int64, items []models.NewItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM trade_in_new_items WHERE trade_in_id = $1`, tradeInID); err != nil {
		return fmt.Errorf("clear trade-in new items: %w", err)
	}
	return insertNewItems(ctx, tx, tradeInID, items)
}

// TradeInFilter narrows ListTradeInsCursor. Zero values match everything.
type TradeInFilter struct {
	CustomerID int64
	Status     models.Status
}

// ListTradeInsCursor pages trade-in headers newest first. Items are not loaded.
func ListTradeInsCursor(ctx context.Context, db Querier, filter TradeInFilter, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `SELECT ` + tradeInColumns + `
		FROM trade_ins
		WHERE ($1::bigint = 0 OR customer_id = $1::bigint)
		  AND ($2::text = '' OR status = $2::text)
		  AND (created_at, id) < ($3, $4)
		ORDER BY created_at DESC, id DESC
		LIMIT $5`

	rows, err := db.QueryContext(ctx, query,
		filter.CustomerID, string(filter.Status), cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list trade-ins: %w", err)
	}
	defer rows.Close()

	tradeIns := []models.TradeIn{}
	for rows.Next() {
		var t models.TradeIn
		if err := scanTradeIn(rows, &t); err != nil {
			return nil, fmt.Errorf("scan trade-in: %w", err)
		}
		tradeIns = append(tradeIns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(tradeIns) > limit
	if hasMore {
		tradeIns = tradeIns[:limit]
	}

	var nextCursor string
	if hasMore && len(tradeIns) > 0 {
		last := tradeIns[len(tradeIns)-1]
		nextCursor = EncodeCursor(Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      tradeIns,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}
