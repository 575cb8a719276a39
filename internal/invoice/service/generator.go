package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstengine/internal/clock"
	"github.com/smallbiznis/gstengine/internal/config"
	"github.com/smallbiznis/gstengine/internal/gstin"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"github.com/smallbiznis/gstengine/internal/invoice/format"
	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"github.com/smallbiznis/gstengine/pkg/apperror"
	"github.com/smallbiznis/gstengine/pkg/money"
	"github.com/smallbiznis/gstengine/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type GeneratorParams struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Calculator taxdomain.Calculator
	Allocator  sequencedomain.Allocator
	Rules      *config.TaxRulesHolder
	Validator  *validation.Validator
	Clock      clock.Clock
}

type Generator struct {
	log        *zap.Logger
	genID      *snowflake.Node
	calculator taxdomain.Calculator
	allocator  sequencedomain.Allocator
	rules      *config.TaxRulesHolder
	validator  *validation.Validator
	clock      clock.Clock
}

func NewGenerator(p GeneratorParams) *Generator {
	return &Generator{
		log:        p.Log.Named("invoice.generator"),
		genID:      p.GenID,
		calculator: p.Calculator,
		allocator:  p.Allocator,
		rules:      p.Rules,
		validator:  p.Validator,
		clock:      p.Clock,
	}
}

// Build validates the order, taxes every line and allocates the invoice
// number. The number is allocated last, once nothing else can fail, and is
// consumed even if the caller later fails to persist the invoice.
func (g *Generator) Build(ctx context.Context, order invoicedomain.Order, vendor invoicedomain.VendorProfile) (*invoicedomain.Invoice, error) {
	order = order.Normalized()
	if err := g.validator.Struct(order); err != nil {
		return nil, err
	}
	if err := g.validator.Struct(vendor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.VendorID) != strings.TrimSpace(vendor.VendorID) {
		return nil, invoicedomain.ErrVendorMismatch.WithField("vendor_id")
	}
	taxID, err := CheckCompliance(vendor, order.SellerJurisdiction)
	if err != nil {
		return nil, err
	}

	rules := g.rules.Get()
	lines := make([]invoicedomain.InvoiceLine, 0, len(order.Items))
	var taxable, cgst, sgst, igst, taxTotal, gross int64
	var taxType taxdomain.TaxType

	for i, item := range order.Items {
		base, err := money.Mul(item.Quantity, item.UnitPrice)
		if err != nil {
			return nil, taxdomain.ErrAmountOverflow.WithField(fmt.Sprintf("items[%d].unit_price", i)).Wrap(err)
		}
		calc, err := g.calculator.Calculate(ctx, taxdomain.Input{
			ProductID:          item.ProductID,
			ClassificationCode: item.ClassificationCode,
			BaseAmount:         base,
			BuyerJurisdiction:  order.BuyerJurisdiction,
			SellerJurisdiction: order.SellerJurisdiction,
		})
		if err != nil {
			return nil, scopeToItem(err, i)
		}
		taxType = calc.TaxType

		line := invoicedomain.InvoiceLine{
			LineNo:             i + 1,
			ProductID:          item.ProductID,
			ClassificationCode: calc.ClassificationCode,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			TaxableValue:       base,
			Rate:               calc.Rate,
			Exempt:             calc.Exempt,
			CGSTAmount:         calc.Amount(taxdomain.ComponentCGST),
			SGSTAmount:         calc.Amount(taxdomain.ComponentSGST),
			IGSTAmount:         calc.Amount(taxdomain.ComponentIGST),
			TaxTotal:           calc.TotalTax,
			Total:              calc.Total,
		}
		lines = append(lines, line)

		if taxable, err = money.Add(taxable, line.TaxableValue); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
		if cgst, err = money.Add(cgst, line.CGSTAmount); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
		if sgst, err = money.Add(sgst, line.SGSTAmount); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
		if igst, err = money.Add(igst, line.IGSTAmount); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
		if taxTotal, err = money.Add(taxTotal, line.TaxTotal); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
		if gross, err = money.Add(gross, line.Total); err != nil {
			return nil, taxdomain.ErrAmountOverflow.Wrap(err)
		}
	}

	issuedAt := order.CompletedAt
	if issuedAt.IsZero() {
		issuedAt = g.clock.Now()
	}
	issuedAt = issuedAt.UTC()

	alloc, err := g.allocator.AllocateAt(ctx, vendor.VendorID, issuedAt)
	if err != nil {
		return nil, err
	}
	number, err := format.FormatInvoiceNumber(rules.InvoiceNumberTemplate, format.Fields{
		VendorID:   alloc.VendorID,
		FiscalYear: alloc.FiscalYear,
		IssuedAt:   issuedAt.In(rules.Calendar().Location()),
		Sequence:   alloc.Sequence,
	})
	if err != nil {
		g.log.Error("invoice number burned by template failure",
			zap.String("vendor_id", alloc.VendorID),
			zap.String("fiscal_year", alloc.FiscalYear),
			zap.Int64("sequence", alloc.Sequence),
			zap.Error(err),
		)
		return nil, invoicedomain.ErrInvalidTemplate.Wrap(err)
	}

	id := g.genID.Generate()
	for i := range lines {
		lines[i].ID = g.genID.Generate()
		lines[i].InvoiceID = id
		lines[i].CreatedAt = issuedAt
	}

	metadata := datatypes.JSONMap{}
	if name := strings.TrimSpace(order.CustomerName); name != "" {
		metadata["customer_name"] = name
	}

	currency := rules.Currency
	if currency == "" {
		currency = "INR"
	}

	return &invoicedomain.Invoice{
		ID:                 id,
		InvoiceNumber:      number,
		OrderID:            strings.TrimSpace(order.OrderID),
		VendorID:           alloc.VendorID,
		VendorTaxID:        taxID.Value,
		VendorName:         strings.TrimSpace(vendor.BusinessName),
		CustomerID:         strings.TrimSpace(order.CustomerID),
		CustomerTaxID:      normalizeTaxID(order.CustomerTaxID),
		CustomerEmail:      strings.TrimSpace(order.CustomerEmail),
		SellerJurisdiction: order.SellerJurisdiction,
		PlaceOfSupply:      order.BuyerJurisdiction,
		Category:           Classify(order.CustomerTaxID, gross, rules.B2CLargeThreshold),
		TaxType:            taxType,
		FiscalYear:         alloc.FiscalYear,
		Sequence:           alloc.Sequence,
		TaxableValue:       taxable,
		CGSTAmount:         cgst,
		SGSTAmount:         sgst,
		IGSTAmount:         igst,
		TaxTotal:           taxTotal,
		GrossTotal:         gross,
		Currency:           currency,
		Status:             invoicedomain.StatusGenerated,
		IssuedAt:           issuedAt,
		Metadata:           metadata,
		CreatedAt:          issuedAt,
		UpdatedAt:          issuedAt,
		Lines:              lines,
	}, nil
}

// CheckCompliance requires a checksum-valid tax id registered in the state
// the vendor supplies from.
func CheckCompliance(vendor invoicedomain.VendorProfile, sellerJurisdiction string) (gstin.TaxID, error) {
	raw := strings.TrimSpace(vendor.TaxID)
	if !vendor.HasTaxID || raw == "" {
		return gstin.TaxID{}, invoicedomain.ErrVendorNotCompliant.WithField("tax_id")
	}
	id, err := gstin.Parse(raw)
	if err != nil {
		return gstin.TaxID{}, invoicedomain.ErrVendorNotCompliant.WithField("tax_id").Wrap(err)
	}
	if id.StateCode != vendor.Jurisdiction {
		return gstin.TaxID{}, invoicedomain.ErrVendorNotCompliant.
			WithField("jurisdiction").
			WithMessage("tax id is registered in state %s, not %s", id.StateCode, vendor.Jurisdiction)
	}
	if sellerJurisdiction != vendor.Jurisdiction {
		return gstin.TaxID{}, invoicedomain.ErrVendorNotCompliant.
			WithField("seller_jurisdiction").
			WithMessage("vendor is registered in state %s, order ships from %s", vendor.Jurisdiction, sellerJurisdiction)
	}
	return id, nil
}

// Classify buckets an invoice: B2B when the customer has a tax id, otherwise
// B2CL at or above threshold and B2CS below it.
func Classify(customerTaxID *string, gross, threshold int64) invoicedomain.Category {
	if normalizeTaxID(customerTaxID) != nil {
		return invoicedomain.CategoryB2B
	}
	if gross >= threshold {
		return invoicedomain.CategoryB2CL
	}
	return invoicedomain.CategoryB2CS
}

func normalizeTaxID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func scopeToItem(err error, index int) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return err
	}
	field := appErr.Field()
	if field == "" {
		field = "classification_code"
	}
	return appErr.WithField(fmt.Sprintf("items[%d].%s", index, field))
}

var _ invoicedomain.Generator = (*Generator)(nil)
