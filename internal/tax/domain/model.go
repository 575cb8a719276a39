package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxType selects how tax is levied for a supply.
type TaxType string

const (
	TaxTypeSameJurisdiction  TaxType = "same_jurisdiction"
	TaxTypeCrossJurisdiction TaxType = "cross_jurisdiction"
)

// Component is a levy that appears on the invoice.
type Component string

const (
	ComponentCGST Component = "CGST"
	ComponentSGST Component = "SGST"
	ComponentIGST Component = "IGST"
)

// RateEntry is reference data keyed by HSN/SAC classification code.
// Rate is a percentage with two decimal places, e.g. 12.00.
type RateEntry struct {
	Code        string          `gorm:"primaryKey;type:text"`
	Rate        decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	Category    string          `gorm:"type:text;not null;default:''"`
	Description string          `gorm:"type:text;not null;default:''"`
	Exempt      bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (RateEntry) TableName() string { return "hsn_rates" }

// Split is one tax component of a calculation.
type Split struct {
	Component Component
	Rate      decimal.Decimal
	Amount    int64
}

// Input is a single line to be taxed.
type Input struct {
	ProductID          string
	ClassificationCode string
	BaseAmount         int64
	BuyerJurisdiction  string
	SellerJurisdiction string
}

// Calculation is the tax breakdown for one order line.
type Calculation struct {
	ProductID          string
	ClassificationCode string
	BaseAmount         int64
	BuyerJurisdiction  string
	SellerJurisdiction string
	Rate               decimal.Decimal
	Exempt             bool
	TaxType            TaxType
	Splits             []Split
	TotalTax           int64
	Total              int64
}

// Amount returns the amount levied for c, or 0 when the component does not apply.
func (c Calculation) Amount(component Component) int64 {
	for _, s := range c.Splits {
		if s.Component == component {
			return s.Amount
		}
	}
	return 0
}
