package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert adds entry unless its order is already recorded; the bool
	// reports whether a row was written.
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) (bool, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Entry, error)
	MarkPaidOut(ctx context.Context, db *gorm.DB, orderID, reference string, at time.Time) (bool, error)
}
