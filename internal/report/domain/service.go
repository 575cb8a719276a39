package domain

import (
	"context"

	"github.com/smallbiznis/gstengine/internal/fiscal"
)

// Sink stores exported report files.
type Sink interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// Get fails with ErrReportNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
}

type Service interface {
	Generate(ctx context.Context, vendorID string, period fiscal.Period, kind Kind) (*Report, error)
	Export(ctx context.Context, report *Report, format Format) (*Export, error)
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}
