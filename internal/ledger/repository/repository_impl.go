package repository

import (
	"context"
	"errors"
	"time"

	ledgerdomain "github.com/smallbiznis/gstengine/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxListLimit = 500

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

// Insert stores entry unless the order already has one. The conflict clause
// is rendered per dialect, so mysql gets ON DUPLICATE KEY UPDATE.
func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *ledgerdomain.Entry) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*ledgerdomain.Entry, error) {
	var entry ledgerdomain.Entry
	err := db.WithContext(ctx).Where("order_id = ?", orderID).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter ledgerdomain.ListFilter) ([]ledgerdomain.Entry, error) {
	query := db.WithContext(ctx).Model(&ledgerdomain.Entry{})
	if filter.VendorID != "" {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if !filter.From.IsZero() {
		query = query.Where("occurred_at >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("occurred_at < ?", filter.To.UTC())
	}
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	var entries []ledgerdomain.Entry
	if err := query.Order("occurred_at asc, order_id asc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) MarkPaidOut(ctx context.Context, db *gorm.DB, orderID, reference string, at time.Time) (bool, error) {
	result := db.WithContext(ctx).
		Model(&ledgerdomain.Entry{}).
		Where("order_id = ? AND status = ?", orderID, string(ledgerdomain.StatusPending)).
		Updates(map[string]any{
			"status":           string(ledgerdomain.StatusPaidOut),
			"payout_reference": reference,
			"paid_out_at":      at.UTC(),
			"updated_at":       at.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
