package repository

import (
	"context"

	"hangout-service/internal/models"

	"gorm.io/gorm"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Get(ctx context.Context, planID, userID uint) (*models.Participant, error) {
	var p models.Participant
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ParticipantRepository) Save(ctx context.Context, p *models.Participant) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// ListByPlan returns the plan's participants ordered by user ID
func (r *ParticipantRepository) ListByPlan(ctx context.Context, planID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("user_id ASC").
		Find(&participants).Error
	return participants, err
}
