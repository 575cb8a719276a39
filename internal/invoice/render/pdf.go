package render

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/gstengine/internal/fiscal"
	"github.com/smallbiznis/gstengine/internal/gstin"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/pkg/money"
)

type PDFRenderer struct{}

func NewPDF() invoicedomain.Renderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) Render(ctx context.Context, invoice *invoicedomain.Invoice) (io.Reader, error) {
	if invoice == nil {
		return nil, fmt.Errorf("invoice is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssuedAt.In(fiscal.IST).Format("02 Jan 2006"), props.Text{Top: 4}),
			text.New("Fiscal year: "+invoice.FiscalYear, props.Text{Top: 8}),
			text.New("Category: "+string(invoice.Category), props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Place of supply: "+placeName(invoice.PlaceOfSupply), props.Text{Top: 0, Align: align.Right}),
			text.New("Order: "+invoice.OrderID, props.Text{Top: 4, Align: align.Right}),
		),
	)

	customerTaxID := "Unregistered"
	if invoice.CustomerTaxID != nil {
		customerTaxID = *invoice.CustomerTaxID
	}
	m.AddRow(24,
		col.New(6).Add(
			text.New("Supplier", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.VendorName, props.Text{Top: 5}),
			text.New("GSTIN: "+invoice.VendorTaxID, props.Text{Top: 9}),
			text.New("State: "+placeName(invoice.SellerJurisdiction), props.Text{Top: 13}),
		),
		col.New(6).Add(
			text.New("Recipient", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.CustomerID, props.Text{Top: 5}),
			text.New("GSTIN: "+customerTaxID, props.Text{Top: 9}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 8}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}
	m.AddRow(8,
		text.NewCol(3, "Product", header),
		text.NewCol(1, "HSN", header),
		text.NewCol(1, "Qty", headerRight),
		text.NewCol(2, "Taxable", headerRight),
		text.NewCol(1, "Rate", headerRight),
		text.NewCol(2, taxHeader(invoice), headerRight),
		text.NewCol(2, "Total", headerRight),
	)

	cell := props.Text{Size: 8}
	cellRight := props.Text{Size: 8, Align: align.Right}
	for _, line := range invoice.Lines {
		rate := line.Rate.StringFixed(2) + "%"
		if line.Exempt {
			rate = "Exempt"
		}
		m.AddRow(7,
			text.NewCol(3, line.ProductID, cell),
			text.NewCol(1, line.ClassificationCode, cell),
			text.NewCol(1, fmt.Sprintf("%d", line.Quantity), cellRight),
			text.NewCol(2, money.Format(line.TaxableValue), cellRight),
			text.NewCol(1, rate, cellRight),
			text.NewCol(2, lineTax(invoice, line), cellRight),
			text.NewCol(2, money.Format(line.Total), cellRight),
		)
	}

	totals := []struct {
		label  string
		amount int64
		show   bool
	}{
		{"Taxable value", invoice.TaxableValue, true},
		{"CGST", invoice.CGSTAmount, invoice.CGSTAmount > 0},
		{"SGST", invoice.SGSTAmount, invoice.SGSTAmount > 0},
		{"IGST", invoice.IGSTAmount, invoice.IGSTAmount > 0},
	}
	for _, row := range totals {
		if !row.show {
			continue
		}
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9}),
			text.NewCol(2, money.Format(row.amount), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Invoice total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, invoice.Currency+" "+money.Format(invoice.GrossTotal), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func taxHeader(invoice *invoicedomain.Invoice) string {
	if invoice.IGSTAmount > 0 || invoice.SellerJurisdiction != invoice.PlaceOfSupply {
		return "IGST"
	}
	return "CGST + SGST"
}

func lineTax(invoice *invoicedomain.Invoice, line invoicedomain.InvoiceLine) string {
	if taxHeader(invoice) == "IGST" {
		return money.Format(line.IGSTAmount)
	}
	return money.Format(line.CGSTAmount) + " + " + money.Format(line.SGSTAmount)
}

func placeName(code string) string {
	if name, ok := gstin.JurisdictionName(code); ok {
		return code + " - " + name
	}
	return code
}
