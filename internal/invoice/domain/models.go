// Package domain contains persistence models for GST invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states.
type Status string

const (
	StatusGenerated    Status = "generated"
	StatusSent         Status = "sent"
	StatusAcknowledged Status = "acknowledged"
)

// Category is the outward-supply bucket an invoice is reported under.
type Category string

const (
	CategoryB2B  Category = "B2B"
	CategoryB2CL Category = "B2CL"
	CategoryB2CS Category = "B2CS"
)

var transitions = map[Status]Status{
	StatusGenerated: StatusSent,
	StatusSent:      StatusAcknowledged,
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Invoice is immutable after creation except for its status fields.
type Invoice struct {
	ID                 snowflake.ID      `gorm:"primaryKey"`
	InvoiceNumber      string            `gorm:"type:text;not null;uniqueIndex"`
	OrderID            string            `gorm:"type:text;not null;uniqueIndex"`
	VendorID           string            `gorm:"type:text;not null;index:idx_invoices_vendor_issued,priority:1"`
	VendorTaxID        string            `gorm:"type:text;not null"`
	VendorName         string            `gorm:"type:text;not null;default:''"`
	CustomerID         string            `gorm:"type:text;not null"`
	CustomerTaxID      *string           `gorm:"type:text"`
	CustomerEmail      string            `gorm:"type:text;not null;default:''"`
	SellerJurisdiction string            `gorm:"type:text;not null"`
	PlaceOfSupply      string            `gorm:"type:text;not null"`
	Category           Category          `gorm:"type:text;not null"`
	TaxType            taxdomain.TaxType `gorm:"type:text;not null"`
	FiscalYear         string            `gorm:"type:text;not null"`
	Sequence           int64             `gorm:"not null"`
	TaxableValue       int64             `gorm:"not null"`
	CGSTAmount         int64             `gorm:"column:cgst_amount;not null;default:0"`
	SGSTAmount         int64             `gorm:"column:sgst_amount;not null;default:0"`
	IGSTAmount         int64             `gorm:"column:igst_amount;not null;default:0"`
	TaxTotal           int64             `gorm:"not null"`
	GrossTotal         int64             `gorm:"not null"`
	Currency           string            `gorm:"type:text;not null"`
	Status             Status            `gorm:"type:text;not null;default:'generated'"`
	IssuedAt           time.Time         `gorm:"not null;index:idx_invoices_vendor_issued,priority:2"`
	SentAt             *time.Time        `gorm:""`
	AcknowledgedAt     *time.Time        `gorm:""`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Lines []InvoiceLine `gorm:"foreignKey:InvoiceID"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLine is one taxed order item.
type InvoiceLine struct {
	ID                 snowflake.ID    `gorm:"primaryKey"`
	InvoiceID          snowflake.ID    `gorm:"not null;index"`
	LineNo             int             `gorm:"not null"`
	ProductID          string          `gorm:"type:text;not null"`
	ClassificationCode string          `gorm:"type:text;not null"`
	Quantity           int64           `gorm:"not null"`
	UnitPrice          int64           `gorm:"not null"`
	TaxableValue       int64           `gorm:"not null"`
	Rate               decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Exempt             bool            `gorm:"not null;default:false"`
	CGSTAmount         int64           `gorm:"column:cgst_amount;not null;default:0"`
	SGSTAmount         int64           `gorm:"column:sgst_amount;not null;default:0"`
	IGSTAmount         int64           `gorm:"column:igst_amount;not null;default:0"`
	TaxTotal           int64           `gorm:"not null"`
	Total              int64           `gorm:"not null"`
	CreatedAt          time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
