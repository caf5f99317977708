package tradein

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/safar/tradein-store/internal/models"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Upper bounds (exclusive) of the columns the values are stored in.
var (
	maxMoney      = decimal.New(1, 12) // NUMERIC(14,2)
	maxWeight     = decimal.New(1, 9)  // NUMERIC(12,3)
	maxCarat      = decimal.New(1, 5)  // NUMERIC(8,3)
	maxStockPrice = decimal.New(1, 10) // inventory.price NUMERIC(12,2)
	maxQuantity   = math.MaxInt32
)

const (
	moneyPlaces   = 2
	measurePlaces = 3
)

// CreateRequest is the caller-supplied trade-in payload.
type CreateRequest struct {
	CustomerID int64                    `json:"customer_id"`
	StaffID    int64                    `json:"staff_id"`
	Date       string                   `json:"date"`
	Status     string                   `json:"status"`
	Notes      string                   `json:"notes"`
	Items      []models.TradeInItem     `json:"items"`
	NewItems   []models.NewItem         `json:"new_items"`
	Financial  *models.FinancialSummary `json:"financial,omitempty"`
}

// UpdateRequest patches a trade-in. Nil fields are left unchanged.
type UpdateRequest struct {
	StaffID  *int64                `json:"staff_id,omitempty"`
	Date     *string               `json:"date,omitempty"`
	Notes    *string               `json:"notes,omitempty"`
	Items    *[]models.TradeInItem `json:"items,omitempty"`
	NewItems *[]models.NewItem     `json:"new_items,omitempty"`
}

func (r UpdateRequest) empty() bool {
	return r.StaffID == nil && r.Date == nil && r.Notes == nil && r.Items == nil && r.NewItems == nil
}

func (r UpdateRequest) changesLines() bool {
	return r.Items != nil || r.NewItems != nil
}

// Validate checks req and returns a pending trade-in with computed totals.
// Reference number and status history are left for the caller.
func Validate(req CreateRequest, today time.Time) (*models.TradeIn, error) {
	if req.CustomerID <= 0 {
		return nil, invalid("customer_id", "is required")
	}
	if req.StaffID <= 0 {
		return nil, invalid("staff_id", "is required")
	}

	date, err := parseDate("date", req.Date, today)
	if err != nil {
		return nil, err
	}

	if req.Status != "" && req.Status != string(models.StatusPending) {
		return nil, invalid("status", "new trade-ins must be %s", models.StatusPending)
	}

	if len(req.Items) == 0 {
		return nil, invalid("items", "at least one trade-in item is required")
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := validateNewItems(req.NewItems); err != nil {
		return nil, err
	}

	summary := CalculateTotals(req.Items, req.NewItems)
	if req.Financial != nil {
		if err := checkCreditCeiling(*req.Financial); err != nil {
			return nil, err
		}
		if err := matchFinancial(*req.Financial, summary); err != nil {
			return nil, err
		}
	}
	if err := checkCreditCeiling(summary); err != nil {
		return nil, err
	}
	if err := checkStorable(summary); err != nil {
		return nil, err
	}

	return &models.TradeIn{
		CustomerID: req.CustomerID,
		StaffID:    req.StaffID,
		Date:       date,
		Status:     models.StatusPending,
		Notes:      strings.TrimSpace(req.Notes),
		Items:      req.Items,
		NewItems:   req.NewItems,
		Financial:  summary,
	}, nil
}

func validateUpdate(req UpdateRequest) error {
	if req.empty() {
		return invalid("", "no fields to update")
	}
	if req.StaffID != nil && *req.StaffID <= 0 {
		return invalid("staff_id", "must be positive")
	}
	if req.Date != nil {
		if *req.Date == "" {
			return invalid("date", "must not be empty")
		}
		if _, err := parseDate("date", *req.Date, time.Time{}); err != nil {
			return err
		}
	}
	if req.Items != nil {
		if len(*req.Items) == 0 {
			return invalid("items", "at least one trade-in item is required")
		}
		if err := validateItems(*req.Items); err != nil {
			return err
		}
	}
	if req.NewItems != nil {
		if err := validateNewItems(*req.NewItems); err != nil {
			return err
		}
	}
	return nil
}

func parseDate(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := fallback.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalid(field, "must be YYYY-MM-DD or RFC 3339")
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func validateItems(items []models.TradeInItem) error {
	for i, item := range items {
		field := func(name string) string { return fmt.Sprintf("items[%d].%s", i, name) }

		if !slices.Contains(models.ItemTypes, item.Type) {
			return invalid(field("type"), "must be one of %s", strings.Join(models.ItemTypes, ", "))
		}
		if !slices.Contains(models.MetalTypes, item.MetalType) {
			return invalid(field("metal_type"), "must be one of %s", strings.Join(models.MetalTypes, ", "))
		}
		if err := validateMeasure(field("weight"), item.Weight, maxWeight); err != nil {
			return err
		}
		if !slices.Contains(models.WeightUnits, item.WeightUnit) {
			return invalid(field("weight_unit"), "must be one of %s", strings.Join(models.WeightUnits, ", "))
		}
		if !slices.Contains(models.ItemConditions, item.Condition) {
			return invalid(field("condition"), "must be one of %s", strings.Join(models.ItemConditions, ", "))
		}
		if err := validateMoney(field("appraisal_value"), item.AppraisalValue, false); err != nil {
			return err
		}
		if err := validateMoney(field("accepted_value"), item.AcceptedValue, false); err != nil {
			return err
		}
		for j, photo := range item.Photos {
			if strings.TrimSpace(photo) == "" {
				return invalid(field(fmt.Sprintf("photos[%d]", j)), "must not be empty")
			}
		}
		if g := item.Gemstone; g != nil {
			if strings.TrimSpace(g.Type) == "" {
				return invalid(field("gemstone.type"), "is required")
			}
			if err := validateMeasure(field("gemstone.carat"), g.Carat, maxCarat); err != nil {
				return err
			}
			if strings.TrimSpace(g.Quality) == "" {
				return invalid(field("gemstone.quality"), "is required")
			}
		}
	}
	return nil
}

func validateNewItems(items []models.NewItem) error {
	for i, item := range items {
		field := func(name string) string { return fmt.Sprintf("new_items[%d].%s", i, name) }

		if strings.TrimSpace(item.Name) == "" {
			return invalid(field("name"), "is required")
		}
		if strings.TrimSpace(item.SKU) == "" {
			return invalid(field("sku"), "is required")
		}
		if err := validateMoney(field("price"), item.Price, true); err != nil {
			return err
		}
		if item.Quantity <= 0 {
			return invalid(field("quantity"), "must be greater than zero")
		}
		if item.Quantity > maxQuantity {
			return invalid(field("quantity"), "must be at most %d", maxQuantity)
		}
		if !slices.Contains(models.NewItemStatuses, item.Status) {
			return invalid(field("status"), "must be one of %s", strings.Join(models.NewItemStatuses, ", "))
		}
	}
	return nil
}

func validateMoney(field string, v decimal.Decimal, positive bool) error {
	return validateAmount(field, v, positive, maxMoney)
}

func validateAmount(field string, v decimal.Decimal, positive bool, limit decimal.Decimal) error {
	if positive && !v.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if v.IsNegative() {
		return invalid(field, "must not be negative")
	}
	if !v.Equal(v.Round(moneyPlaces)) {
		return invalid(field, "must have at most two decimal places")
	}
	if v.GreaterThanOrEqual(limit) {
		return invalid(field, "must be less than %s", limit)
	}
	return nil
}

// validateMeasure checks a positive physical measurement with at most three
// decimal places.
func validateMeasure(field string, v decimal.Decimal, limit decimal.Decimal) error {
	if !v.IsPositive() {
		return invalid(field, "must be greater than zero")
	}
	if !v.Equal(v.Round(measurePlaces)) {
		return invalid(field, "must have at most three decimal places")
	}
	if v.GreaterThanOrEqual(limit) {
		return invalid(field, "must be less than %s", limit)
	}
	return nil
}

// checkStorable rejects totals too large for the trade-in columns, which
// bounded line values can still reach through price × quantity.
func checkStorable(summary models.FinancialSummary) error {
	if summary.NewItemsCost.GreaterThanOrEqual(maxMoney) {
		return invalid("new_items", "total cost must be less than %s", maxMoney)
	}
	if summary.NetDifference.Abs().GreaterThanOrEqual(maxMoney) {
		return invalid("new_items", "net difference must be less than %s", maxMoney)
	}
	return nil
}

func matchFinancial(got, want models.FinancialSummary) error {
	switch {
	case !got.TradeInCredit.Equal(want.TradeInCredit):
		return invalid("financial.trade_in_credit", "expected %s", want.TradeInCredit)
	case !got.NewItemsCost.Equal(want.NewItemsCost):
		return invalid("financial.new_items_cost", "expected %s", want.NewItemsCost)
	case !got.Tax.Equal(want.Tax):
		return invalid("financial.tax", "expected %s", want.Tax)
	case !got.NetDifference.Equal(want.NetDifference):
		return invalid("financial.net_difference", "expected %s", want.NetDifference)
	}
	return nil
}
