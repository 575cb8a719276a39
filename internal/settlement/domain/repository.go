package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type TDSRepository interface {
	// AddCumulative adds amount to the vendor's fiscal-year total and
	// returns the new total.
	AddCumulative(ctx context.Context, db *gorm.DB, vendorID, fiscalYear string, amount int64, at time.Time) (int64, error)
	Cumulative(ctx context.Context, db *gorm.DB, vendorID, fiscalYear string) (int64, error)
	InsertRecord(ctx context.Context, db *gorm.DB, record *TDSRecord) error
	FindRecordByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*TDSRecord, error)
	ListRecords(ctx context.Context, db *gorm.DB, vendorID, fiscalYear string, quarter int) ([]TDSRecord, error)
	SumWithheldBetween(ctx context.Context, db *gorm.DB, vendorID string, from, to time.Time) (int64, error)
}
