package domain

import (
	"context"

	"gorm.io/gorm"
)

type Service interface {
	// Record appends entry, or returns the stored entry when the order was
	// recorded before with the same amounts.
	Record(ctx context.Context, entry Entry) (*Entry, error)
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) (*Entry, bool, error)
	Recorded(ctx context.Context, entry *Entry)
	GetByOrderID(ctx context.Context, orderID string) (*Entry, error)
	ListByVendor(ctx context.Context, filter ListFilter) ([]Entry, error)
	MarkPaidOut(ctx context.Context, orderID, reference string) (*Entry, error)
}
