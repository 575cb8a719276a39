package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaidOut Status = "paid_out"
)

// Entry is the settlement fact recorded for one order. Commission, withheld
// tax and the vendor's net amount always add up to the order value.
type Entry struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	VendorID         string          `gorm:"type:text;not null;index:idx_ledger_vendor_occurred,priority:1" json:"vendor_id"`
	OrderID          string          `gorm:"type:text;not null;uniqueIndex:ux_ledger_order" json:"order_id"`
	InvoiceID        snowflake.ID    `gorm:"not null" json:"invoice_id"`
	InvoiceNumber    string          `gorm:"type:text;not null" json:"invoice_number"`
	FiscalYear       string          `gorm:"type:text;not null" json:"fiscal_year"`
	OrderValue       int64           `gorm:"not null" json:"order_value"`
	CommissionPct    decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"commission_pct"`
	CommissionAmount int64           `gorm:"not null" json:"commission_amount"`
	WithheldPct      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"withheld_pct"`
	WithheldAmount   int64           `gorm:"not null" json:"withheld_amount"`
	NetAmount        int64           `gorm:"not null" json:"net_amount"`
	Currency         string          `gorm:"type:text;not null" json:"currency"`
	Status           Status          `gorm:"type:text;not null;index" json:"status"`
	PayoutReference  *string         `gorm:"type:text" json:"payout_reference,omitempty"`
	OccurredAt       time.Time       `gorm:"not null;index:idx_ledger_vendor_occurred,priority:2" json:"occurred_at"`
	PaidOutAt        *time.Time      `json:"paid_out_at,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "commission_ledger_entries" }

// Balanced reports whether the split parts add up to the order value.
func (e Entry) Balanced() bool {
	if e.CommissionAmount < 0 || e.WithheldAmount < 0 || e.NetAmount < 0 {
		return false
	}
	return e.CommissionAmount+e.WithheldAmount+e.NetAmount == e.OrderValue
}

// SameFacts compares the financial content of two entries, ignoring ids,
// timestamps and payout progress.
func (e Entry) SameFacts(other Entry) bool {
	return e.VendorID == other.VendorID &&
		e.OrderID == other.OrderID &&
		e.InvoiceNumber == other.InvoiceNumber &&
		e.OrderValue == other.OrderValue &&
		e.CommissionPct.Equal(other.CommissionPct) &&
		e.CommissionAmount == other.CommissionAmount &&
		e.WithheldPct.Equal(other.WithheldPct) &&
		e.WithheldAmount == other.WithheldAmount &&
		e.NetAmount == other.NetAmount &&
		e.Currency == other.Currency
}

type ListFilter struct {
	VendorID string
	Status   Status
	From     time.Time
	To       time.Time
	Limit    int
}
