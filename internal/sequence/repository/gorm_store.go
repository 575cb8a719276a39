package repository

import (
	"context"
	"time"

	sequencedomain "github.com/smallbiznis/gstengine/internal/sequence/domain"
	"gorm.io/gorm"
)

type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore returns a counter backed by the invoice_sequences table. The
// increment is a single upsert so concurrent callers serialise on the row.
func NewGormStore(db *gorm.DB) sequencedomain.CounterStore {
	return &gormStore{db: db, now: time.Now}
}

func (s *gormStore) Next(ctx context.Context, vendorID, fiscalYear string) (int64, error) {
	var next int64
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "mysql" {
			return nextMySQL(tx, vendorID, fiscalYear, now, &next)
		}
		return tx.Raw(
			`INSERT INTO invoice_sequences (vendor_id, fiscal_year, last_value, updated_at)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT (vendor_id, fiscal_year)
			 DO UPDATE SET last_value = invoice_sequences.last_value + 1, updated_at = excluded.updated_at
			 RETURNING last_value`,
			vendorID, fiscalYear, now,
		).Scan(&next).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func nextMySQL(tx *gorm.DB, vendorID, fiscalYear string, now time.Time, next *int64) error {
	if err := tx.Exec(
		`INSERT INTO invoice_sequences (vendor_id, fiscal_year, last_value, updated_at)
		 VALUES (?, ?, LAST_INSERT_ID(1), ?)
		 ON DUPLICATE KEY UPDATE last_value = LAST_INSERT_ID(last_value + 1), updated_at = VALUES(updated_at)`,
		vendorID, fiscalYear, now,
	).Error; err != nil {
		return err
	}
	return tx.Raw(`SELECT LAST_INSERT_ID()`).Scan(next).Error
}

// Current returns the last issued value, or 0 when nothing was issued yet.
func Current(ctx context.Context, db *gorm.DB, vendorID, fiscalYear string) (int64, error) {
	var counter sequencedomain.Counter
	err := db.WithContext(ctx).
		Where("vendor_id = ? AND fiscal_year = ?", vendorID, fiscalYear).
		Limit(1).
		Find(&counter).Error
	if err != nil {
		return 0, err
	}
	return counter.LastValue, nil
}
