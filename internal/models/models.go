package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type TradeIn struct {
	ID              int64                `json:"id"`
	ReferenceNumber string               `json:"reference_number"`
	CustomerID      int64                `json:"customer_id"`
	StaffID         int64                `json:"staff_id"`
	Date            time.Time            `json:"date"`
	Status          Status               `json:"status"`
	Notes           string               `json:"notes"`
	Items           []TradeInItem        `json:"items"`
	NewItems        []NewItem            `json:"new_items"`
	Financial       FinancialSummary     `json:"financial"`
	StatusHistory   []StatusHistoryEntry `json:"status_history"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	Version         int                  `json:"version"`
}

// TradeInItem is a piece the customer surrenders.
type TradeInItem struct {
	ID             int64           `json:"id,omitempty"`
	Type           string          `json:"type"`
	MetalType      string          `json:"metal_type"`
	Purity         string          `json:"purity"`
	Weight         decimal.Decimal `json:"weight"`
	WeightUnit     string          `json:"weight_unit"`
	Condition      string          `json:"condition"`
	AppraisalValue decimal.Decimal `json:"appraisal_value"`
	AcceptedValue  decimal.Decimal `json:"accepted_value"`
	Description    string          `json:"description"`
	Photos         []string        `json:"photos"`
	Gemstone       *Gemstone       `json:"gemstone,omitempty"`
}

type Gemstone struct {
	Type          string          `json:"type"`
	Carat         decimal.Decimal `json:"carat"`
	Quality       string          `json:"quality"`
	CertificateID string          `json:"certificate_id,omitempty"`
}

// NewItem is a piece the customer acquires in exchange.
type NewItem struct {
	ID          int64             `json:"id,omitempty"`
	Name        string            `json:"name"`
	SKU         string            `json:"sku"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity"`
	Status      string            `json:"status"`
	CustomOrder bool              `json:"custom_order"`
	Specs       map[string]string `json:"specs,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
}

// Reserved reports whether the item draws down inventory stock.
func (n NewItem) Reserved() bool {
	return !n.CustomOrder
}

type FinancialSummary struct {
	TradeInCredit decimal.Decimal `json:"trade_in_credit"`
	NewItemsCost  decimal.Decimal `json:"new_items_cost"`
	Tax           decimal.Decimal `json:"tax"`
	NetDifference decimal.Decimal `json:"net_difference"`
}

type StatusHistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	StaffID   int64     `json:"staff_id"`
	Reason    string    `json:"reason,omitempty"`
}

type InventoryItem struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type Staff struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID           int64     `json:"id"`
	TradeInID    int64     `json:"trade_in_id"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	StoragePath  string    `json:"storage_path"`
	UploadedBy   int64     `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type Communication struct {
	ID        int64     `json:"id"`
	TradeInID int64     `json:"trade_in_id"`
	Channel   string    `json:"channel"`
	Event     string    `json:"event"`
	Template  string    `json:"template"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditEntry struct {
	ID        int64           `json:"id"`
	TradeInID int64           `json:"trade_in_id"`
	StaffID   int64           `json:"staff_id"`
	Action    string          `json:"action"`
	Changes   json.RawMessage `json:"changes"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	AuditActionUpdate       = "update"
	AuditActionCancel       = "cancel"
	AuditActionStatusChange = "status_change"
)

const (
	CommunicationSent   = "sent"
	CommunicationFailed = "failed"
)
