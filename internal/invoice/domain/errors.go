package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrVendorNotCompliant      = apperror.New(apperror.DomainCompliance, 1401, "vendor_not_compliant", "vendor has no valid tax id on file")
	ErrVendorMismatch          = apperror.New(apperror.DomainValidation, 1402, "vendor_mismatch", "order vendor does not match the vendor profile")
	ErrInvoiceNotFound         = apperror.New(apperror.DomainNotFound, 1403, "invoice_not_found", "invoice not found")
	ErrInvalidStatusTransition = apperror.New(apperror.DomainValidation, 1404, "invalid_status_transition", "invoice status transition is not allowed")
	ErrInvalidTemplate         = apperror.New(apperror.DomainValidation, 1405, "invalid_invoice_template", "invoice number template cannot be rendered")
	ErrMissingRecipient        = apperror.New(apperror.DomainValidation, 1406, "missing_recipient", "invoice has no recipient email")
)
