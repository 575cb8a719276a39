package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstengine/internal/gstin"
	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"github.com/smallbiznis/gstengine/pkg/money"
	"go.uber.org/fx"
)

var two = decimal.NewFromInt(2)

type CalculatorParams struct {
	fx.In

	Resolver taxdomain.Resolver
}

type Calculator struct {
	resolver taxdomain.Resolver
}

func NewCalculator(p CalculatorParams) *Calculator {
	return &Calculator{resolver: p.Resolver}
}

func (c *Calculator) Calculate(ctx context.Context, in taxdomain.Input) (taxdomain.Calculation, error) {
	if in.BaseAmount <= 0 {
		return taxdomain.Calculation{}, taxdomain.ErrInvalidAmount.WithField("base_amount")
	}
	entry, err := c.resolver.Rate(ctx, in.ClassificationCode)
	if err != nil {
		return taxdomain.Calculation{}, err
	}
	return Compute(entry, in)
}

// Compute applies entry to a single line. Same-jurisdiction tax is split into
// equal CGST and SGST halves, each floored independently, so the combined
// levy can fall one minor unit short of the undivided rate.
func Compute(entry taxdomain.RateEntry, in taxdomain.Input) (taxdomain.Calculation, error) {
	if in.BaseAmount <= 0 {
		return taxdomain.Calculation{}, taxdomain.ErrInvalidAmount.WithField("base_amount")
	}
	if !gstin.IsJurisdiction(in.BuyerJurisdiction) {
		return taxdomain.Calculation{}, taxdomain.ErrInvalidJurisdiction.WithField("buyer_jurisdiction")
	}
	if !gstin.IsJurisdiction(in.SellerJurisdiction) {
		return taxdomain.Calculation{}, taxdomain.ErrInvalidJurisdiction.WithField("seller_jurisdiction")
	}

	bp, err := money.BasisPoints(entry.Rate)
	if err != nil {
		return taxdomain.Calculation{}, taxdomain.ErrInvalidRate.WithField("rate").Wrap(err)
	}
	if entry.Exempt {
		bp = 0
	}

	calc := taxdomain.Calculation{
		ProductID:          in.ProductID,
		ClassificationCode: entry.Code,
		BaseAmount:         in.BaseAmount,
		BuyerJurisdiction:  in.BuyerJurisdiction,
		SellerJurisdiction: in.SellerJurisdiction,
		Rate:               entry.Rate,
		Exempt:             entry.Exempt,
		TaxType:            TaxTypeFor(in.BuyerJurisdiction, in.SellerJurisdiction),
	}

	switch calc.TaxType {
	case taxdomain.TaxTypeSameJurisdiction:
		half, err := money.FloorShare(in.BaseAmount, bp, 2)
		if err != nil {
			return taxdomain.Calculation{}, overflow(err)
		}
		halfRate := entry.Rate.Div(two)
		calc.Splits = []taxdomain.Split{
			{Component: taxdomain.ComponentCGST, Rate: halfRate, Amount: half},
			{Component: taxdomain.ComponentSGST, Rate: halfRate, Amount: half},
		}
	default:
		amount, err := money.FloorShare(in.BaseAmount, bp, 1)
		if err != nil {
			return taxdomain.Calculation{}, overflow(err)
		}
		calc.Splits = []taxdomain.Split{
			{Component: taxdomain.ComponentIGST, Rate: entry.Rate, Amount: amount},
		}
	}

	for _, s := range calc.Splits {
		calc.TotalTax, err = money.Add(calc.TotalTax, s.Amount)
		if err != nil {
			return taxdomain.Calculation{}, overflow(err)
		}
	}
	calc.Total, err = money.Add(in.BaseAmount, calc.TotalTax)
	if err != nil {
		return taxdomain.Calculation{}, overflow(err)
	}
	return calc, nil
}

func TaxTypeFor(buyer, seller string) taxdomain.TaxType {
	if buyer == seller {
		return taxdomain.TaxTypeSameJurisdiction
	}
	return taxdomain.TaxTypeCrossJurisdiction
}

func overflow(err error) error {
	if errors.Is(err, money.ErrOverflow) {
		return taxdomain.ErrAmountOverflow.Wrap(err)
	}
	return err
}

var _ taxdomain.Calculator = (*Calculator)(nil)
