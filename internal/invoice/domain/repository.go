package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository methods take the handle to run on so callers can compose them
// inside their own transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Invoice, error)
	ListByVendorBetween(ctx context.Context, db *gorm.DB, vendorID string, from, to time.Time) ([]Invoice, error)
	DistinctVendorsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]string, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, at time.Time) (bool, error)
}
