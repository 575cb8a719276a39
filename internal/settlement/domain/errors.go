package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrInvalidPercentage = apperror.New(apperror.DomainValidation, 1601, "invalid_percentage",
		"percentage must be between 0 and 100 with at most two decimals")
	ErrInvalidAmount = apperror.New(apperror.DomainArithmetic, 1602, "invalid_amount",
		"amount must be positive")
	ErrInvalidVendor = apperror.New(apperror.DomainValidation, 1603, "invalid_vendor",
		"vendor id is required")
	ErrInvalidQuarter = apperror.New(apperror.DomainValidation, 1604, "invalid_quarter",
		"quarter must be between 1 and 4")
	ErrTDSRecordExists = apperror.New(apperror.DomainStorage, 1605, "tds_record_exists",
		"withholding for this order was recorded concurrently")
)
