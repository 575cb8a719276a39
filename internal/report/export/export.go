// Package export encodes reports as JSON, CSV or XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
	"github.com/xuri/excelize/v2"
)

// Encode renders report in the requested format.
func Encode(report *reportdomain.Report, format reportdomain.Format) ([]byte, error) {
	switch format {
	case reportdomain.FormatJSON:
		return JSON(report)
	case reportdomain.FormatCSV:
		return CSV(report)
	case reportdomain.FormatXLSX:
		return XLSX(report)
	default:
		return nil, reportdomain.ErrInvalidFormat.WithField("format")
	}
}

// JSON is the canonical encoding: fixed field order, pre-sorted rows and a
// trailing newline.
func JSON(report *reportdomain.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// CSV writes one block per section, each led by its name and header row.
// Amounts are in minor units.
func CSV(report *reportdomain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, t := range tables(report) {
		if i > 0 {
			if err := w.Write([]string{""}); err != nil {
				return nil, err
			}
		}
		if err := w.Write([]string{t.name}); err != nil {
			return nil, err
		}
		if err := w.Write(t.header); err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			record := make([]string, len(row))
			for j, cell := range row {
				record[j] = csvCell(cell)
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX writes one sheet per section with amounts in rupees.
func XLSX(report *reportdomain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	for i, t := range tables(report) {
		sheet := t.name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		for col, h := range t.header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return nil, err
			}
		}
		if len(t.header) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(t.header), 1)
			_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
		}

		for r, row := range t.rows {
			for col, value := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if amount, ok := value.(minor); ok {
					if err := f.SetCellValue(sheet, cell, float64(amount)/100); err != nil {
						return nil, err
					}
					_ = f.SetCellStyle(sheet, cell, cell, amountStyle)
					continue
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return nil, err
				}
			}
		}
		for col := range t.header {
			name, _ := excelize.ColumnNumberToName(col + 1)
			_ = f.SetColWidth(sheet, name, name, 16)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// minor marks an amount in minor currency units.
type minor int64

type table struct {
	name   string
	header []string
	rows   [][]any
}

var amountHeader = []string{"taxable_value", "cgst", "sgst", "igst"}

func amounts(a reportdomain.TaxAmounts) []any {
	return []any{minor(a.TaxableValue), minor(a.CGST), minor(a.SGST), minor(a.IGST)}
}

func tables(report *reportdomain.Report) []table {
	summary := table{
		name:   "summary",
		header: []string{"field", "value"},
		rows: [][]any{
			{"kind", string(report.Kind)},
			{"vendor_id", report.VendorID},
			{"period", report.Period},
			{"data_version", report.DataVersion},
		},
	}
	out := []table{summary}

	if r := report.GSTR1; r != nil {
		invoiceHeader := append([]string{"invoice_number", "invoice_date", "customer_tax_id", "place_of_supply"}, amountHeader...)
		invoiceHeader = append(invoiceHeader, "gross_total")
		invoiceRows := func(rows []reportdomain.InvoiceRow) [][]any {
			out := make([][]any, 0, len(rows))
			for _, row := range rows {
				cells := []any{row.InvoiceNumber, row.InvoiceDate, row.CustomerTaxID, row.PlaceOfSupply}
				cells = append(cells, amounts(row.TaxAmounts)...)
				out = append(out, append(cells, minor(row.GrossTotal)))
			}
			return out
		}

		b2cs := table{name: "b2cs", header: append([]string{"place_of_supply", "rate", "tax_type"}, amountHeader...)}
		for _, row := range r.B2CS {
			b2cs.rows = append(b2cs.rows, append([]any{row.PlaceOfSupply, row.Rate, row.TaxType}, amounts(row.TaxAmounts)...))
		}
		hsnHeader := append([]string{"hsn_code", "quantity"}, amountHeader...)
		hsn := table{name: "hsn", header: append(hsnHeader, "total_value")}
		for _, row := range r.HSN {
			cells := append([]any{row.Code, row.Quantity}, amounts(row.TaxAmounts)...)
			hsn.rows = append(hsn.rows, append(cells, minor(row.TotalValue)))
		}

		out = append(out,
			table{name: "b2b", header: invoiceHeader, rows: invoiceRows(r.B2B)},
			table{name: "b2cl", header: invoiceHeader, rows: invoiceRows(r.B2CL)},
			b2cs,
			hsn,
			table{
				name:   "totals",
				header: []string{"field", "value"},
				rows: [][]any{
					{"invoices", r.Totals.Invoices},
					{"taxable_value", minor(r.Totals.TaxableValue)},
					{"cgst", minor(r.Totals.CGST)},
					{"sgst", minor(r.Totals.SGST)},
					{"igst", minor(r.Totals.IGST)},
					{"gross_total", minor(r.Totals.GrossTotal)},
					{"exempt_supplies", minor(r.ExemptSupplies)},
				},
			},
		)
	}

	if r := report.GSTR3B; r != nil {
		out = append(out, table{
			name:   "gstr3b",
			header: []string{"field", "value"},
			rows: [][]any{
				{"outward_taxable_value", minor(r.OutwardTaxable.TaxableValue)},
				{"outward_cgst", minor(r.OutwardTaxable.CGST)},
				{"outward_sgst", minor(r.OutwardTaxable.SGST)},
				{"outward_igst", minor(r.OutwardTaxable.IGST)},
				{"exempt_supplies", minor(r.ExemptSupplies)},
				{"tax_payable", minor(r.TaxPayable)},
				{"tds_withheld", minor(r.TDSWithheld)},
			},
		})
	}
	return out
}

func csvCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case minor:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
