package store

import (
	"context"
	"fmt"

	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/models"
)

func CreateCustomer(ctx context.Context, db Querier, name, email, phone string) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		INSERT INTO customers (name, email, phone, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, email, phone, created_at`

	err := db.QueryRowContext(ctx, query, name, email, phone).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return customer, nil
}

func GetCustomer(ctx context.Context, db Querier, id int64) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `
		SELECT id, name, email, phone, created_at
		FROM customers
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func CreateStaff(ctx context.Context, db Querier, name, email, role string) (*models.Staff, error) {
	staff := &models.Staff{}

	query := `
		INSERT INTO staff (name, email, role, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, name, email, role, created_at`

	err := db.QueryRowContext(ctx, query, name, email, role).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Role,
		&staff.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create staff: %w", err)
	}

	return staff, nil
}

func CustomerExists(ctx context.Context, db Querier, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)",
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

func StaffExists(ctx context.Context, db Querier, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM staff WHERE id = $1)",
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check staff exists: %w", err)
	}
	return exists, nil
}
