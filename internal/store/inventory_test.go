package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/safar/tradein-store/internal/database"
	"github.com/safar/tradein-store/internal/database/dbtest"
	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

func TestReserveInventory(t *testing.T) {
	db := dbtest.Setup(t)
	ctx := context.Background()

	if _, err := CreateInventoryItem(ctx, db, "RING-001", "Solitaire ring", decimal.NewFromInt(2000), 5); err != nil {
		t.Fatalf("Create inventory: %v", err)
	}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return ReserveInventory(ctx, tx, []Reservation{{SKU: "RING-001", Quantity: 2}})
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	item, err := GetInventoryItem(ctx, db, "RING-001")
	if err != nil {
		t.Fatalf("Get inventory: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", item.Quantity)
	}
	if item.Version != 2 {
		t.Errorf("Expected version 2, got %d", item.Version)
	}
}

func TestReserveInventoryIsAllOrNothing(t *testing.T) {
	db := dbtest.Setup(t)
	ctx := context.Background()

	if _, err := CreateInventoryItem(ctx, db, "RING-001", "Solitaire ring", decimal.NewFromInt(2000), 5); err != nil {
		t.Fatalf("Create inventory: %v", err)
	}
	if _, err := CreateInventoryItem(ctx, db, "CHAIN-002", "Box chain", decimal.NewFromInt(300), 1); err != nil {
		t.Fatalf("Create inventory: %v", err)
	}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return ReserveInventory(ctx, tx, []Reservation{
			{SKU: "RING-001", Quantity: 1},
			{SKU: "CHAIN-002", Quantity: 2},
		})
	})

	var short *database.InsufficientInventoryError
	if !errors.As(err, &short) {
		t.Fatalf("Expected insufficient inventory error, got: %v", err)
	}
	if short.SKU != "CHAIN-002" || short.Requested != 2 {
		t.Errorf("Unexpected error detail: %+v", short)
	}

	for sku, want := range map[string]int{"RING-001": 5, "CHAIN-002": 1} {
		item, err := GetInventoryItem(ctx, db, sku)
		if err != nil {
			t.Fatalf("Get inventory %s: %v", sku, err)
		}
		if item.Quantity != want {
			t.Errorf("%s: stock should remain %d, got %d", sku, want, item.Quantity)
		}
	}
}

func TestReserveUnknownSKU(t *testing.T) {
	db := dbtest.Setup(t)
	ctx := context.Background()

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return ReserveInventory(ctx, tx, []Reservation{{SKU: "GHOST-404", Quantity: 1}})
	})

	var short *database.InsufficientInventoryError
	if !errors.As(err, &short) {
		t.Fatalf("Expected insufficient inventory error, got: %v", err)
	}
}

func TestReleaseInventory(t *testing.T) {
	db := dbtest.Setup(t)
	ctx := context.Background()

	if _, err := CreateInventoryItem(ctx, db, "RING-001", "Solitaire ring", decimal.NewFromInt(2000), 1); err != nil {
		t.Fatalf("Create inventory: %v", err)
	}

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := ReleaseInventory(ctx, tx, []Reservation{{SKU: "RING-001", Quantity: 2}})
		return err
	})
	if err != nil {
		t.Fatalf("Release: %v", err)
	}

	item, err := GetInventoryItem(ctx, db, "RING-001")
	if err != nil {
		t.Fatalf("Get inventory: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", item.Quantity)
	}

}

func TestReleaseInventorySkipsMissingRows(t *testing.T) {
	db := dbtest.Setup(t)
	ctx := context.Background()

	if _, err := CreateInventoryItem(ctx, db, "RING-001", "Solitaire ring", decimal.NewFromInt(2000), 1); err != nil {
		t.Fatalf("Create inventory: %v", err)
	}

	var missing []string
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var err error
		missing, err = ReleaseInventory(ctx, tx, []Reservation{
			{SKU: "GHOST-404", Quantity: 1},
			{SKU: "RING-001", Quantity: 1},
		})
		return err
	})
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if len(missing) != 1 || missing[0] != "GHOST-404" {
		t.Errorf("Expected missing [GHOST-404], got %v", missing)
	}

	item, err := GetInventoryItem(ctx, db, "RING-001")
	if err != nil {
		t.Fatalf("Get inventory: %v", err)
	}
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", item.Quantity)
	}
}

func TestReservationsForSkipsCustomOrders(t *testing.T) {
	got := ReservationsFor([]models.NewItem{
		{SKU: "RING-001", Quantity: 2},
		{SKU: "CUSTOM-1", Quantity: 1, CustomOrder: true},
	})

	if len(got) != 1 || got[0].SKU != "RING-001" || got[0].Quantity != 2 {
		t.Errorf("Unexpected reservations: %+v", got)
	}
}

func TestGetInventoryItemNotFound(t *testing.T) {
	db := dbtest.Setup(t)

	_, err := GetInventoryItem(context.Background(), db, "GHOST-404")
	if !errors.Is(err, database.ErrInventoryNotFound) {
		t.Errorf("Expected ErrInventoryNotFound, got: %v", err)
	}
}
