package repository

import (
	"context"

	"hangout-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RSVPRepository struct {
	db *gorm.DB
}

func NewRSVPRepository(db *gorm.DB) *RSVPRepository {
	return &RSVPRepository{db: db}
}

func (r *RSVPRepository) Get(ctx context.Context, planID, userID uint) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		First(&rsvp).Error
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

// Upsert inserts the RSVP or overwrites the status of the existing (plan, user) row
func (r *RSVPRepository) Upsert(ctx context.Context, rsvp *models.RSVP) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "responded_at", "updated_at"}),
	}).Create(rsvp).Error
}

// CreatePending adds a pending RSVP unless the user already has one
func (r *RSVPRepository) CreatePending(ctx context.Context, planID, userID uint) error {
	rsvp := &models.RSVP{PlanID: planID, UserID: userID, Status: models.RSVPPending}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(rsvp).Error
}

// ListByPlan returns the plan's RSVPs ordered by user ID
func (r *RSVPRepository) ListByPlan(ctx context.Context, planID uint) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("user_id ASC").
		Find(&rsvps).Error
	return rsvps, err
}

// CountByStatus returns how many RSVPs the plan has with the given status
func (r *RSVPRepository) CountByStatus(ctx context.Context, planID uint, status models.RSVPStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RSVP{}).
		Where("plan_id = ? AND status = ?", planID, status).
		Count(&count).Error
	return count, err
}
