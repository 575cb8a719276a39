package repository

import (
	"context"
	"errors"
	"time"

	settlementdomain "github.com/smallbiznis/gstengine/internal/settlement/domain"
	"github.com/smallbiznis/gstengine/pkg/db"
	"gorm.io/gorm"
)

type tdsRepo struct{}

func Provide() settlementdomain.TDSRepository {
	return &tdsRepo{}
}

func (r *tdsRepo) AddCumulative(ctx context.Context, conn *gorm.DB, vendorID, fiscalYear string, amount int64, at time.Time) (int64, error) {
	var total int64
	tx := conn.WithContext(ctx)
	if tx.Dialector.Name() == "mysql" {
		if err := tx.Exec(
			`INSERT INTO tds_cumulative_payouts (vendor_id, fiscal_year, total, updated_at)
			 VALUES (?, ?, LAST_INSERT_ID(?), ?)
			 ON DUPLICATE KEY UPDATE total = LAST_INSERT_ID(total + VALUES(total)), updated_at = VALUES(updated_at)`,
			vendorID, fiscalYear, amount, at.UTC(),
		).Error; err != nil {
			return 0, err
		}
		err := tx.Raw(`SELECT LAST_INSERT_ID()`).Scan(&total).Error
		return total, err
	}
	err := tx.Raw(
		`INSERT INTO tds_cumulative_payouts (vendor_id, fiscal_year, total, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (vendor_id, fiscal_year)
		 DO UPDATE SET total = tds_cumulative_payouts.total + excluded.total, updated_at = excluded.updated_at
		 RETURNING total`,
		vendorID, fiscalYear, amount, at.UTC(),
	).Scan(&total).Error
	return total, err
}

func (r *tdsRepo) Cumulative(ctx context.Context, conn *gorm.DB, vendorID, fiscalYear string) (int64, error) {
	var row settlementdomain.CumulativePayout
	err := conn.WithContext(ctx).
		Where("vendor_id = ? AND fiscal_year = ?", vendorID, fiscalYear).
		Limit(1).
		Find(&row).Error
	return row.Total, err
}

func (r *tdsRepo) InsertRecord(ctx context.Context, conn *gorm.DB, record *settlementdomain.TDSRecord) error {
	err := conn.WithContext(ctx).Create(record).Error
	if db.IsDuplicateKeyErr(err) {
		return settlementdomain.ErrTDSRecordExists.WithField("order_id").Wrap(err)
	}
	return err
}

func (r *tdsRepo) FindRecordByOrderID(ctx context.Context, conn *gorm.DB, orderID string) (*settlementdomain.TDSRecord, error) {
	var record settlementdomain.TDSRecord
	err := conn.WithContext(ctx).Where("order_id = ?", orderID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tdsRepo) ListRecords(ctx context.Context, conn *gorm.DB, vendorID, fiscalYear string, quarter int) ([]settlementdomain.TDSRecord, error) {
	var records []settlementdomain.TDSRecord
	err := conn.WithContext(ctx).
		Where("vendor_id = ? AND fiscal_year = ? AND quarter = ?", vendorID, fiscalYear, quarter).
		Order("paid_at asc, order_id asc").
		Find(&records).Error
	return records, err
}

func (r *tdsRepo) SumWithheldBetween(ctx context.Context, conn *gorm.DB, vendorID string, from, to time.Time) (int64, error) {
	var total int64
	err := conn.WithContext(ctx).
		Model(&settlementdomain.TDSRecord{}).
		Where("vendor_id = ? AND paid_at >= ? AND paid_at < ?", vendorID, from.UTC(), to.UTC()).
		Select("COALESCE(SUM(withheld_amount), 0)").
		Scan(&total).Error
	return total, err
}
