package notify

import (
	"time"

	"github.com/safar/tradein-store/internal/models"
)

type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status_changed"
)

const (
	TemplateCreated       = "trade-in-created"
	TemplateStatusChanged = "trade-in-status-changed"
)

// Event is a trade-in change the customer should hear about.
type Event struct {
	Kind            EventKind
	TradeInID       int64
	ReferenceNumber string
	CustomerID      int64
	Status          models.Status
	PreviousStatus  models.Status
	Reason          string
	Date            time.Time
	Financial       models.FinancialSummary
}

// NewEvent snapshots t for a notification.
func NewEvent(kind EventKind, t *models.TradeIn, previous models.Status, reason string) Event {
	return Event{
		Kind:            kind,
		TradeInID:       t.ID,
		ReferenceNumber: t.ReferenceNumber,
		CustomerID:      t.CustomerID,
		Status:          t.Status,
		PreviousStatus:  previous,
		Reason:          reason,
		Date:            t.Date,
		Financial:       t.Financial,
	}
}

func (e Event) Template() string {
	if e.Kind == EventStatusChanged {
		return TemplateStatusChanged
	}
	return TemplateCreated
}

func (e Event) Subject() string {
	if e.Kind == EventStatusChanged {
		return "Your trade-in " + e.ReferenceNumber + " is now " + string(e.Status)
	}
	return "We received your trade-in " + e.ReferenceNumber
}

// Data is the template payload sent to the email provider.
func (e Event) Data() map[string]any {
	data := map[string]any{
		"reference_number": e.ReferenceNumber,
		"status":           string(e.Status),
		"date":             e.Date.Format("2006-01-02"),
		"trade_in_credit":  e.Financial.TradeInCredit.StringFixed(2),
		"new_items_cost":   e.Financial.NewItemsCost.StringFixed(2),
		"tax":              e.Financial.Tax.StringFixed(2),
		"net_difference":   e.Financial.NetDifference.StringFixed(2),
	}
	if e.Kind == EventStatusChanged {
		data["previous_status"] = string(e.PreviousStatus)
		if e.Reason != "" {
			data["reason"] = e.Reason
		}
	}
	return data
}
