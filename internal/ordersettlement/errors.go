package ordersettlement

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrSplitMismatch = apperror.New(apperror.DomainArithmetic, 1451, "settlement_split_mismatch",
		"payout split disagrees with the computed withholding")
	ErrNothingToPay = apperror.New(apperror.DomainValidation, 1452, "settlement_nothing_to_pay",
		"vendor net amount is zero")
)
