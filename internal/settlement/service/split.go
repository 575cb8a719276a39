package service

import (
	"github.com/shopspring/decimal"
	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/pkg/money"
)

type SplitCalculator struct{}

func NewSplitCalculator() *SplitCalculator {
	return &SplitCalculator{}
}

func (SplitCalculator) Split(in settlementdomain.SplitInput) (settlementdomain.PayoutSplit, error) {
	return Split(in)
}

// Split floors the commission and the withheld tax independently and gives
// the vendor the remainder, so the parts always add up to the order value.
func Split(in settlementdomain.SplitInput) (settlementdomain.PayoutSplit, error) {
	if in.OrderValue <= 0 {
		return settlementdomain.PayoutSplit{}, settlementdomain.ErrInvalidAmount.
			WithField("order_value").
			WithMessage("order value must be positive, got %d", in.OrderValue)
	}
	commissionBP, err := basisPoints(in.CommissionPct, "commission_pct")
	if err != nil {
		return settlementdomain.PayoutSplit{}, err
	}
	withheldBP, err := basisPoints(in.WithheldPct, "withheld_pct")
	if err != nil {
		return settlementdomain.PayoutSplit{}, err
	}

	commission, err := money.FloorShare(in.OrderValue, commissionBP, 1)
	if err != nil {
		return settlementdomain.PayoutSplit{}, settlementdomain.ErrInvalidAmount.WithField("order_value").Wrap(err)
	}
	var withheld int64
	if in.WithheldApplicable {
		withheld, err = money.FloorShare(in.OrderValue, withheldBP, 1)
		if err != nil {
			return settlementdomain.PayoutSplit{}, settlementdomain.ErrInvalidAmount.WithField("order_value").Wrap(err)
		}
	}

	vendor := in.OrderValue - commission - withheld
	if vendor < 0 {
		return settlementdomain.PayoutSplit{}, settlementdomain.ErrInvalidPercentage.
			WithField("withheld_pct").
			WithMessage("commission %s%% and withholding %s%% exceed the order value", in.CommissionPct, in.WithheldPct)
	}

	return settlementdomain.PayoutSplit{
		PaymentID:        in.PaymentID,
		OrderValue:       in.OrderValue,
		PlatformAmount:   commission + withheld,
		VendorAmount:     vendor,
		CommissionAmount: commission,
		WithheldAmount:   withheld,
	}, nil
}

func basisPoints(pct decimal.Decimal, field string) (int64, error) {
	bp, err := money.BasisPoints(pct)
	if err != nil {
		return 0, settlementdomain.ErrInvalidPercentage.
			WithField(field).
			WithMessage("%s must be within 0-100 with at most two decimals, got %s", field, pct).
			Wrap(err)
	}
	return bp, nil
}

var _ settlementdomain.SplitCalculator = (*SplitCalculator)(nil)
