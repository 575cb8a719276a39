package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrReportNotFound = apperror.New(apperror.DomainNotFound, 1851, "report_not_found",
		"report not found")
	ErrInvalidKind = apperror.New(apperror.DomainValidation, 1852, "report_invalid_kind",
		"report kind must be gstr1 or gstr3b")
	ErrInvalidFormat = apperror.New(apperror.DomainValidation, 1853, "report_invalid_format",
		"export format must be json, csv or xlsx")
	ErrInvalidVendor = apperror.New(apperror.DomainValidation, 1854, "report_invalid_vendor",
		"vendor id is required")
	ErrExportFailed = apperror.New(apperror.DomainStorage, 1855, "report_export_failed",
		"report export failed")
)
