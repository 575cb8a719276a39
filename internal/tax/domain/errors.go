package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrUnknownClassification     = apperror.New(apperror.DomainNotFound, 1101, "unknown_classification", "classification code is not in the rate table")
	ErrInvalidAmount             = apperror.New(apperror.DomainArithmetic, 1102, "invalid_amount", "amount must be positive")
	ErrInvalidRate               = apperror.New(apperror.DomainValidation, 1103, "invalid_rate", "rate must be between 0 and 100 with at most two decimals")
	ErrInvalidClassificationCode = apperror.New(apperror.DomainValidation, 1104, "invalid_classification_code", "classification code must be 4, 6 or 8 digits")
	ErrInvalidJurisdiction       = apperror.New(apperror.DomainValidation, 1105, "invalid_jurisdiction", "jurisdiction is not a known state code")
	ErrAmountOverflow            = apperror.New(apperror.DomainArithmetic, 1106, "amount_overflow", "amount exceeds the supported range")
)
