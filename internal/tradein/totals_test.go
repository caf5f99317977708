package tradein

import (
	"testing"

	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	summary := CalculateTotals(
		[]models.TradeInItem{ringItem(500)},
		[]models.NewItem{newItem("RING-001", 2000, 1)},
	)

	assert.True(t, summary.TradeInCredit.Equal(decimal.NewFromInt(500)), summary.TradeInCredit.String())
	assert.True(t, summary.NewItemsCost.Equal(decimal.NewFromInt(2000)), summary.NewItemsCost.String())
	assert.True(t, summary.Tax.Equal(decimal.NewFromInt(160)), summary.Tax.String())
	assert.True(t, summary.NetDifference.Equal(decimal.NewFromInt(1660)), summary.NetDifference.String())
}

func TestCalculateTotalsMultipleLines(t *testing.T) {
	a := newItem("RING-001", 0, 3)
	a.Price = decimal.RequireFromString("19.99")
	b := newItem("CHAIN-002", 250, 2)

	summary := CalculateTotals(
		[]models.TradeInItem{ringItem(300), ringItem(1200)},
		[]models.NewItem{a, b},
	)

	cost := decimal.RequireFromString("559.97")
	assert.True(t, summary.TradeInCredit.Equal(decimal.NewFromInt(1500)))
	assert.True(t, summary.NewItemsCost.Equal(cost))
	assert.True(t, summary.Tax.Equal(cost.Mul(decimal.RequireFromString("0.08"))))
	assert.True(t, summary.NetDifference.Equal(cost.Add(summary.Tax).Sub(summary.TradeInCredit)))
}

func TestCalculateTotalsCreditOnly(t *testing.T) {
	summary := CalculateTotals([]models.TradeInItem{ringItem(750)}, nil)

	assert.True(t, summary.NewItemsCost.IsZero())
	assert.True(t, summary.Tax.IsZero())
	assert.True(t, summary.NetDifference.Equal(decimal.NewFromInt(-750)))
}

func TestCheckCreditCeiling(t *testing.T) {
	assert.NoError(t, checkCreditCeiling(models.FinancialSummary{TradeInCredit: decimal.NewFromInt(100000)}))

	err := checkCreditCeiling(models.FinancialSummary{TradeInCredit: decimal.RequireFromString("100000.01")})
	var violation *BusinessRuleViolation
	assert.ErrorAs(t, err, &violation)
	assert.Equal(t, RuleCreditCeiling, violation.Rule)
}
