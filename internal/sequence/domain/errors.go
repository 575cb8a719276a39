package domain

import "github.com/smallbiznis/gstengine/pkg/apperror"

var (
	ErrSequenceConflict   = apperror.New(apperror.DomainSequenceConflict, 1301, "sequence_conflict", "sequence counter returned an already issued number")
	ErrInvalidVendor      = apperror.New(apperror.DomainValidation, 1302, "invalid_vendor", "vendor id is required")
	ErrStorageUnavailable = apperror.New(apperror.DomainStorage, 1304, "sequence_storage_unavailable", "sequence counter could not be incremented")
)
