package tradein

import (
	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

var (
	// TaxRate applies to the cost of new items only.
	TaxRate = decimal.RequireFromString("0.08")

	// CreditCeiling caps the total credit granted for one trade-in.
	CreditCeiling = decimal.NewFromInt(100000)
)

// CalculateTotals derives the financial summary from the trade-in lines.
func CalculateTotals(items []models.TradeInItem, newItems []models.NewItem) models.FinancialSummary {
	credit := decimal.Zero
	for _, item := range items {
		credit = credit.Add(item.AcceptedValue)
	}

	cost := decimal.Zero
	for _, item := range newItems {
		cost = cost.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := cost.Mul(TaxRate)

	return models.FinancialSummary{
		TradeInCredit: credit,
		NewItemsCost:  cost,
		Tax:           tax,
		NetDifference: cost.Add(tax).Sub(credit),
	}
}

func checkCreditCeiling(summary models.FinancialSummary) error {
	if summary.TradeInCredit.GreaterThan(CreditCeiling) {
		return &BusinessRuleViolation{
			Rule:    RuleCreditCeiling,
			Message: "trade-in credit " + summary.TradeInCredit.String() + " exceeds ceiling " + CreditCeiling.String(),
		}
	}
	return nil
}
