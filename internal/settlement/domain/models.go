package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type SplitInput struct {
	PaymentID          string
	OrderValue         int64
	CommissionPct      decimal.Decimal
	WithheldPct        decimal.Decimal
	WithheldApplicable bool
}

// PayoutSplit partitions an order value. The platform keeps the commission
// and holds the withheld tax for remittance; the vendor receives the rest.
type PayoutSplit struct {
	PaymentID        string `json:"payment_id"`
	OrderValue       int64  `json:"order_value"`
	PlatformAmount   int64  `json:"platform_amount"`
	VendorAmount     int64  `json:"vendor_amount"`
	CommissionAmount int64  `json:"commission_amount"`
	WithheldAmount   int64  `json:"withheld_amount"`
}

func (s PayoutSplit) Balanced() bool {
	return s.CommissionAmount+s.WithheldAmount+s.VendorAmount == s.OrderValue &&
		s.PlatformAmount+s.VendorAmount == s.OrderValue
}

type TDSInput struct {
	VendorID    string
	OrderID     string
	GrossPayout int64
	HasTaxID    bool
	PaidAt      time.Time
}

// TDSOutcome is the withholding decision for one payout. Rate is the rate
// actually applied, zero while the vendor is under the threshold.
type TDSOutcome struct {
	Applicable       bool
	Rate             decimal.Decimal
	Withheld         int64
	Net              int64
	CumulativeBefore int64
	CumulativeAfter  int64
}

// TDSRecord is the withholding fact for one payout, tagged with the fiscal
// year and quarter for certificate aggregation.
type TDSRecord struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	VendorID        string          `gorm:"type:text;not null;index:idx_tds_vendor_period,priority:1" json:"vendor_id"`
	OrderID         string          `gorm:"type:text;not null;uniqueIndex:ux_tds_order" json:"order_id"`
	FiscalYear      string          `gorm:"type:text;not null;index:idx_tds_vendor_period,priority:2" json:"fiscal_year"`
	Quarter         int             `gorm:"not null;index:idx_tds_vendor_period,priority:3" json:"quarter"`
	GrossPayout     int64           `gorm:"not null" json:"gross_payout"`
	HasTaxID        bool            `gorm:"not null" json:"has_tax_id"`
	Rate            decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"rate"`
	WithheldAmount  int64           `gorm:"not null" json:"withheld_amount"`
	NetPayout       int64           `gorm:"not null" json:"net_payout"`
	CumulativeAfter int64           `gorm:"not null" json:"cumulative_after"`
	PaidAt          time.Time       `gorm:"not null;index" json:"paid_at"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (TDSRecord) TableName() string { return "tds_records" }

// CumulativePayout tracks a vendor's gross payouts in one fiscal year.
type CumulativePayout struct {
	VendorID   string    `gorm:"primaryKey;type:text"`
	FiscalYear string    `gorm:"primaryKey;type:text"`
	Total      int64     `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (CumulativePayout) TableName() string { return "tds_cumulative_payouts" }

// CertificateSummary totals one vendor's withholding for a fiscal quarter.
type CertificateSummary struct {
	VendorID    string      `json:"vendor_id"`
	FiscalYear  string      `json:"fiscal_year"`
	Quarter     int         `json:"quarter"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	Payouts     int         `json:"payouts"`
	GrossPayout int64       `json:"gross_payout"`
	Withheld    int64       `json:"withheld"`
	NetPayout   int64       `json:"net_payout"`
	Records     []TDSRecord `json:"records"`
}
