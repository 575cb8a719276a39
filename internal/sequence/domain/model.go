package domain

import (
	"context"
	"time"
)

// Counter is the persisted last-issued invoice sequence for a vendor in a
// fiscal year.
type Counter struct {
	VendorID   string    `gorm:"primaryKey;type:text"`
	FiscalYear string    `gorm:"primaryKey;type:text"`
	LastValue  int64     `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Counter) TableName() string { return "invoice_sequences" }

// Allocation is one issued sequence number.
type Allocation struct {
	VendorID   string
	FiscalYear string
	Sequence   int64
}

// CounterStore atomically increments and returns the counter for a key.
// Implementations must never return the same value twice for one key.
type CounterStore interface {
	Next(ctx context.Context, vendorID, fiscalYear string) (int64, error)
}

type Allocator interface {
	Allocate(ctx context.Context, vendorID, fiscalYear string) (int64, error)
	AllocateAt(ctx context.Context, vendorID string, at time.Time) (Allocation, error)
}
