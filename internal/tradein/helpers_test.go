package tradein

import (
	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

func ringItem(accepted int64) models.TradeInItem {
	return models.TradeInItem{
		Type:           "ring",
		MetalType:      "gold",
		Purity:         "14k",
		Weight:         decimal.RequireFromString("4.2"),
		WeightUnit:     "g",
		Condition:      "good",
		AppraisalValue: decimal.NewFromInt(accepted + 100),
		AcceptedValue:  decimal.NewFromInt(accepted),
		Description:    "worn band",
		Photos:         []string{"trade-ins/photos/band.jpg"},
	}
}

func newItem(sku string, price int64, qty int) models.NewItem {
	return models.NewItem{
		Name:     "Solitaire ring",
		SKU:      sku,
		Price:    decimal.NewFromInt(price),
		Quantity: qty,
		Status:   "reserved",
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		CustomerID: 1,
		StaffID:    1,
		Date:       "2026-10-19",
		Items:      []models.TradeInItem{ringItem(500)},
		NewItems:   []models.NewItem{newItem("RING-001", 2000, 1)},
	}
}
