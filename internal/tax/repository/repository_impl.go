package repository

import (
	"context"
	"errors"

	taxdomain "github.com/smallbiznis/gstengine/internal/tax/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, code string) (*taxdomain.RateEntry, error) {
	var entry taxdomain.RateEntry
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context) ([]taxdomain.RateEntry, error) {
	var items []taxdomain.RateEntry
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Upsert(ctx context.Context, entry *taxdomain.RateEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "category", "description", "exempt", "updated_at"}),
		}).
		Create(entry).Error
}
