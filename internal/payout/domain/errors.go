package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrPayoutInFlight = apperror.New(apperror.DomainDispatch, 1701, "payout_in_flight",
		"a payout with this idempotency key is being dispatched")
	ErrUnknownProvider = apperror.New(apperror.DomainValidation, 1702, "payout_unknown_provider",
		"payout provider is not registered")
	ErrInvalidInstruction = apperror.New(apperror.DomainValidation, 1703, "payout_invalid_instruction",
		"payout instruction is invalid")
	ErrDispatchFailed = apperror.New(apperror.DomainDispatch, 1704, "payout_dispatch_failed",
		"payout provider rejected the transfer")
	ErrProviderNotConfigured = apperror.New(apperror.DomainValidation, 1705, "payout_provider_not_configured",
		"payout provider is missing credentials")
	ErrTransferNotFound = apperror.New(apperror.DomainNotFound, 1706, "payout_transfer_not_found",
		"no transfer recorded for this idempotency key")
)
