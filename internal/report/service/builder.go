package service

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	reportdomain "github.com/smallbiznis/gstengine/internal/report/domain"
)

// BuildGSTR1 buckets invoices into B2B, B2CL and B2CS and summarizes them per
// HSN code. Output order depends only on invoice content.
func BuildGSTR1(invoices []invoicedomain.Invoice, loc *time.Location) *reportdomain.GSTR1 {
	out := &reportdomain.GSTR1{
		B2B:  []reportdomain.InvoiceRow{},
		B2CL: []reportdomain.InvoiceRow{},
		B2CS: []reportdomain.B2CSRow{},
		HSN:  []reportdomain.HSNRow{},
	}
	b2cs := map[string]*reportdomain.B2CSRow{}
	hsn := map[string]*reportdomain.HSNRow{}

	for _, inv := range invoices {
		amounts := invoiceAmounts(inv)
		out.Totals.Invoices++
		out.Totals.Add(amounts)
		out.Totals.GrossTotal += inv.GrossTotal

		switch inv.Category {
		case invoicedomain.CategoryB2B, invoicedomain.CategoryB2CL:
			row := reportdomain.InvoiceRow{
				InvoiceNumber: inv.InvoiceNumber,
				InvoiceDate:   inv.IssuedAt.In(loc).Format("2006-01-02"),
				PlaceOfSupply: inv.PlaceOfSupply,
				TaxAmounts:    amounts,
				GrossTotal:    inv.GrossTotal,
			}
			if inv.CustomerTaxID != nil {
				row.CustomerTaxID = *inv.CustomerTaxID
			}
			if inv.Category == invoicedomain.CategoryB2B {
				out.B2B = append(out.B2B, row)
			} else {
				out.B2CL = append(out.B2CL, row)
			}
		}

		for _, line := range inv.Lines {
			lineAmounts := lineAmounts(line)
			code := hsn[line.ClassificationCode]
			if code == nil {
				code = &reportdomain.HSNRow{Code: line.ClassificationCode}
				hsn[line.ClassificationCode] = code
			}
			code.Quantity += line.Quantity
			code.Add(lineAmounts)
			code.TotalValue += line.Total

			if line.Exempt {
				out.ExemptSupplies += line.TaxableValue
				continue
			}
			if inv.Category != invoicedomain.CategoryB2CS {
				continue
			}
			rate := line.Rate.StringFixed(2)
			key := inv.PlaceOfSupply + "|" + rate + "|" + string(inv.TaxType)
			agg := b2cs[key]
			if agg == nil {
				agg = &reportdomain.B2CSRow{PlaceOfSupply: inv.PlaceOfSupply, Rate: rate, TaxType: string(inv.TaxType)}
				b2cs[key] = agg
			}
			agg.Add(lineAmounts)
		}
	}

	sort.Slice(out.B2B, func(i, j int) bool { return out.B2B[i].InvoiceNumber < out.B2B[j].InvoiceNumber })
	sort.Slice(out.B2CL, func(i, j int) bool { return out.B2CL[i].InvoiceNumber < out.B2CL[j].InvoiceNumber })
	for _, row := range b2cs {
		out.B2CS = append(out.B2CS, *row)
	}
	sort.Slice(out.B2CS, func(i, j int) bool {
		a, b := out.B2CS[i], out.B2CS[j]
		if a.PlaceOfSupply != b.PlaceOfSupply {
			return a.PlaceOfSupply < b.PlaceOfSupply
		}
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		return a.TaxType < b.TaxType
	})
	for _, row := range hsn {
		out.HSN = append(out.HSN, *row)
	}
	sort.Slice(out.HSN, func(i, j int) bool { return out.HSN[i].Code < out.HSN[j].Code })
	return out
}

// BuildGSTR3B summarizes taxable and exempt outward supplies together with
// the tax the operator withheld from the vendor's payouts.
func BuildGSTR3B(invoices []invoicedomain.Invoice, tdsWithheld int64) *reportdomain.GSTR3B {
	out := &reportdomain.GSTR3B{TDSWithheld: tdsWithheld}
	for _, inv := range invoices {
		for _, line := range inv.Lines {
			if line.Exempt {
				out.ExemptSupplies += line.TaxableValue
				continue
			}
			out.OutwardTaxable.Add(lineAmounts(line))
		}
	}
	out.TaxPayable = out.OutwardTaxable.Tax()
	return out
}

// DataVersion fingerprints the inputs of a report. Any change to an
// invoice's identity, status or amounts, or to the withheld total, yields a
// different version.
func DataVersion(invoices []invoicedomain.Invoice, extra ...int64) string {
	sorted := make([]invoicedomain.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := xxhash.New()
	for _, inv := range sorted {
		_, _ = fmt.Fprintf(h, "%d|%s|%s|%d|%d|%d|%d|%d|%d\n",
			inv.ID, inv.InvoiceNumber, inv.Status, inv.TaxableValue,
			inv.CGSTAmount, inv.SGSTAmount, inv.IGSTAmount, inv.GrossTotal, len(inv.Lines))
	}
	for _, v := range extra {
		_, _ = h.WriteString("x|" + strconv.FormatInt(v, 10) + "\n")
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func invoiceAmounts(inv invoicedomain.Invoice) reportdomain.TaxAmounts {
	return reportdomain.TaxAmounts{
		TaxableValue: inv.TaxableValue,
		CGST:         inv.CGSTAmount,
		SGST:         inv.SGSTAmount,
		IGST:         inv.IGSTAmount,
	}
}

func lineAmounts(line invoicedomain.InvoiceLine) reportdomain.TaxAmounts {
	return reportdomain.TaxAmounts{
		TaxableValue: line.TaxableValue,
		CGST:         line.CGSTAmount,
		SGST:         line.SGSTAmount,
		IGST:         line.IGSTAmount,
	}
}
