package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/gstengine/internal/invoice/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func Provide() invoicedomain.Repository {
	return &repository{}
}

// Insert stores invoice and its lines. It reports false without error when an
// invoice for the same order already exists.
func (r *repository) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) (bool, error) {
	result := db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(invoice)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	if len(invoice.Lines) > 0 {
		if err := db.WithContext(ctx).Create(&invoice.Lines).Error; err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	return r.findOne(ctx, db, "id = ?", id)
}

func (r *repository) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*invoicedomain.Invoice, error) {
	return r.findOne(ctx, db, "order_id = ?", orderID)
}

func (r *repository) findOne(ctx context.Context, db *gorm.DB, query string, arg any) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") }).
		Where(query, arg).
		Take(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListByVendorBetween returns invoices issued in [from, to) ordered by issue
// time and sequence.
func (r *repository) ListByVendorBetween(ctx context.Context, db *gorm.DB, vendorID string, from, to time.Time) ([]invoicedomain.Invoice, error) {
	var items []invoicedomain.Invoice
	err := db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("line_no ASC") }).
		Where("vendor_id = ? AND issued_at >= ? AND issued_at < ?", vendorID, from.UTC(), to.UTC()).
		Order("issued_at ASC, sequence ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) DistinctVendorsBetween(ctx context.Context, db *gorm.DB, from, to time.Time) ([]string, error) {
	var vendors []string
	err := db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("issued_at >= ? AND issued_at < ?", from.UTC(), to.UTC()).
		Distinct("vendor_id").
		Order("vendor_id ASC").
		Pluck("vendor_id", &vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

// UpdateStatus moves an invoice from one status to the next. It reports false
// when the invoice was not in the from status.
func (r *repository) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to invoicedomain.Status, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case invoicedomain.StatusSent:
		updates["sent_at"] = at
	case invoicedomain.StatusAcknowledged:
		updates["acknowledged_at"] = at
	}
	result := db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
