package repository

import (
	"context"
	"database/sql"

	"hangout-service/internal/models"

	"gorm.io/gorm"
)

type OptionRepository struct {
	db *gorm.DB
}

func NewOptionRepository(db *gorm.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

// Create adds a new option to a plan
func (r *OptionRepository) Create(ctx context.Context, option *models.Option) error {
	return r.db.WithContext(ctx).Create(option).Error
}

// GetInPlan retrieves an option only if it belongs to the given plan
func (r *OptionRepository) GetInPlan(ctx context.Context, planID, optionID uint) (*models.Option, error) {
	var option models.Option
	err := r.db.WithContext(ctx).
		Where("id = ? AND plan_id = ?", optionID, planID).
		First(&option).Error
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// ListByPlan retrieves all live options for a plan ordered by ordinal
func (r *OptionRepository) ListByPlan(ctx context.Context, planID uint) ([]models.Option, error) {
	var options []models.Option
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("ordinal ASC, id ASC").
		Find(&options).Error
	return options, err
}

// Count returns the number of live options of a plan
func (r *OptionRepository) Count(ctx context.Context, planID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Option{}).Where("plan_id = ?", planID).Count(&count).Error
	return count, err
}

// NextOrdinal returns the ordinal for the next option. Removed options keep their slot.
func (r *OptionRepository) NextOrdinal(ctx context.Context, planID uint) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Option{}).
		Where("plan_id = ?", planID).
		Select("MAX(ordinal)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

// Delete soft-deletes an option
func (r *OptionRepository) Delete(ctx context.Context, option *models.Option) error {
	return r.db.WithContext(ctx).Delete(option).Error
}
