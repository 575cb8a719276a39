package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrUnbalancedEntry = apperror.New(apperror.DomainArithmetic, 1501, "ledger_unbalanced_entry",
		"commission, withheld tax and net amount must add up to the order value")
	ErrInvalidEntry = apperror.New(apperror.DomainValidation, 1502, "ledger_invalid_entry",
		"ledger entry is incomplete")
	ErrEntryConflict = apperror.New(apperror.DomainValidation, 1503, "ledger_entry_conflict",
		"order is already recorded with different amounts")
	ErrEntryNotFound = apperror.New(apperror.DomainNotFound, 1504, "ledger_entry_not_found",
		"ledger entry not found")
	ErrAlreadyPaidOut = apperror.New(apperror.DomainValidation, 1505, "ledger_already_paid_out",
		"ledger entry is already paid out")
)
