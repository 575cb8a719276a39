package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed order handed over for invoicing and settlement.
type Order struct {
	OrderID            string      `json:"order_id" validate:"required,max=64"`
	VendorID           string      `json:"vendor_id" validate:"required,max=32,excludesall=/:"`
	CustomerID         string      `json:"customer_id" validate:"required"`
	CustomerName       string      `json:"customer_name"`
	CustomerEmail      string      `json:"customer_email" validate:"omitempty,email"`
	CustomerTaxID      *string     `json:"customer_tax_id" validate:"omitempty,gstin"`
	BuyerJurisdiction  string      `json:"buyer_jurisdiction" validate:"required,statecode"`
	SellerJurisdiction string      `json:"seller_jurisdiction" validate:"required,statecode"`
	Items              []OrderItem `json:"items" validate:"required,min=1,dive"`
	CompletedAt        time.Time   `json:"completed_at"`
}

// Normalized returns a copy with identifier padding removed. Lookups and
// stored rows both use the normalized order id.
func (o Order) Normalized() Order {
	o.OrderID = strings.TrimSpace(o.OrderID)
	o.VendorID = strings.TrimSpace(o.VendorID)
	return o
}

type OrderItem struct {
	ProductID          string `json:"product_id" validate:"required"`
	ClassificationCode string `json:"classification_code" validate:"required,hsn"`
	Quantity           int64  `json:"quantity" validate:"gte=1"`
	UnitPrice          int64  `json:"unit_price" validate:"gte=1"`
}

// VendorProfile is the registration data of the selling vendor.
// CommissionPct overrides the configured default when set.
type VendorProfile struct {
	VendorID      string           `json:"vendor_id" validate:"required"`
	TaxID         string           `json:"tax_id"`
	HasTaxID      bool             `json:"has_tax_id"`
	Jurisdiction  string           `json:"jurisdiction" validate:"required,statecode"`
	BusinessName  string           `json:"business_name" validate:"required"`
	Email         string           `json:"email" validate:"omitempty,email"`
	CommissionPct *decimal.Decimal `json:"commission_pct"`
}
