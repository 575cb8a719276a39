package domain

import (
	"context"

	"github.com/smallbiznis/gstengine/pkg/apperror"
)

type Service interface {
	AuditLog(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}

var (
	ErrInvalidAction    = apperror.New(apperror.DomainValidation, 1801, "invalid_action", "audit action is required")
	ErrInvalidTimeRange = apperror.New(apperror.DomainValidation, 1802, "invalid_time_range", "start must not be after end")
)
