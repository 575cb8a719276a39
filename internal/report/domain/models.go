// Package domain describes derived GST return reports.
package domain

import "time"

// Kind names the statutory return a report mirrors.
type Kind string

const (
	KindGSTR1  Kind = "gstr1"
	KindGSTR3B Kind = "gstr3b"
)

// Valid reports whether k is a supported report kind.
func (k Kind) Valid() bool {
	return k == KindGSTR1 || k == KindGSTR3B
}

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// TaxAmounts groups the value of a supply with its tax components.
type TaxAmounts struct {
	TaxableValue int64 `json:"taxable_value"`
	CGST         int64 `json:"cgst"`
	SGST         int64 `json:"sgst"`
	IGST         int64 `json:"igst"`
}

// Add accumulates other into t.
func (t *TaxAmounts) Add(other TaxAmounts) {
	t.TaxableValue += other.TaxableValue
	t.CGST += other.CGST
	t.SGST += other.SGST
	t.IGST += other.IGST
}

// Tax returns the sum of the tax components.
func (t TaxAmounts) Tax() int64 {
	return t.CGST + t.SGST + t.IGST
}

// InvoiceRow is one invoice reported individually (B2B and B2CL).
type InvoiceRow struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	CustomerTaxID string `json:"customer_tax_id,omitempty"`
	PlaceOfSupply string `json:"place_of_supply"`
	TaxAmounts
	GrossTotal int64 `json:"gross_total"`
}

// B2CSRow aggregates small consumer supplies by place of supply and rate.
type B2CSRow struct {
	PlaceOfSupply string `json:"place_of_supply"`
	Rate          string `json:"rate"`
	TaxType       string `json:"tax_type"`
	TaxAmounts
}

// HSNRow summarizes outward supplies per classification code.
type HSNRow struct {
	Code     string `json:"hsn_code"`
	Quantity int64  `json:"quantity"`
	TaxAmounts
	TotalValue int64 `json:"total_value"`
}

// Totals sums every invoice in the period.
type Totals struct {
	Invoices int `json:"invoices"`
	TaxAmounts
	GrossTotal int64 `json:"gross_total"`
}

// GSTR1 is the outward supplies statement.
type GSTR1 struct {
	B2B  []InvoiceRow `json:"b2b"`
	B2CL []InvoiceRow `json:"b2cl"`
	B2CS []B2CSRow    `json:"b2cs"`
	HSN  []HSNRow     `json:"hsn"`
	// ExemptSupplies is the value of exempt lines, excluded from B2CS.
	ExemptSupplies int64  `json:"exempt_supplies"`
	Totals         Totals `json:"totals"`
}

// GSTR3B is the summary return.
type GSTR3B struct {
	OutwardTaxable TaxAmounts `json:"outward_taxable"`
	ExemptSupplies int64      `json:"exempt_supplies"`
	TaxPayable     int64      `json:"tax_payable"`
	TDSWithheld    int64      `json:"tds_withheld"`
}

// Report is a derived, regenerable view over a vendor's period. It carries
// no generation timestamp so identical inputs encode to identical bytes.
type Report struct {
	Kind        Kind      `json:"kind"`
	VendorID    string    `json:"vendor_id"`
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	DataVersion string    `json:"data_version"`
	GSTR1       *GSTR1    `json:"gstr1,omitempty"`
	GSTR3B      *GSTR3B   `json:"gstr3b,omitempty"`
}

// Export describes a report file written to the export sink.
type Export struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Format      Format `json:"format"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
