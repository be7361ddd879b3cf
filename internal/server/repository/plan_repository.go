package repository

import (
	"context"
	"time"

	"hangout-service/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

// GetByID retrieves a plan without locking it
func (r *PlanRepository) GetByID(ctx context.Context, id uint) (*models.Plan, error) {
	var plan models.Plan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// LockByID loads a plan with SELECT ... FOR UPDATE. Only meaningful inside a transaction.
func (r *PlanRepository) LockByID(ctx context.Context, id uint) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save writes every column of the plan
func (r *PlanRepository) Save(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

// ListByUser returns plans the user created or participates in, newest first
func (r *PlanRepository) ListByUser(ctx context.Context, userID uint) ([]models.Plan, error) {
	var plans []models.Plan
	sub := r.db.Model(&models.Participant{}).Select("plan_id").Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("creator_id = ? OR id IN (?)", userID, sub).
		Order("created_at DESC, id DESC").
		Find(&plans).Error
	return plans, err
}

// ListExpiredVoting returns IDs of voting plans whose poll expired at or before now
func (r *PlanRepository) ListExpiredVoting(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Plan{}).
		Where("phase = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.PhaseVoting, now).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// ListRSVPPastDeadline returns IDs of RSVP plans whose deadline passed at or before now
func (r *PlanRepository) ListRSVPPastDeadline(ctx context.Context, now time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Plan{}).
		Where("phase = ? AND rsvp_deadline IS NOT NULL AND rsvp_deadline <= ?", models.PhaseRSVP, now).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}
