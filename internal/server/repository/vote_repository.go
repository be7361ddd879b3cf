package repository

import (
	"context"

	"hangout-service/internal/models"

	"gorm.io/gorm"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Find returns the user's vote for one option, or gorm.ErrRecordNotFound
func (r *VoteRepository) Find(ctx context.Context, planID, optionID, userID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND option_id = ? AND user_id = ?", planID, optionID, userID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Create records a user's vote for an option
func (r *VoteRepository) Create(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// Delete removes a vote permanently
func (r *VoteRepository) Delete(ctx context.Context, vote *models.Vote) error {
	return r.db.WithContext(ctx).Delete(vote).Error
}

// ListByUser returns every vote the user holds on a plan
func (r *VoteRepository) ListByUser(ctx context.Context, planID, userID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("id").
		Find(&votes).Error
	return votes, err
}

// DeleteByOption removes every vote cast on an option and returns how many went away
func (r *VoteRepository) DeleteByOption(ctx context.Context, planID, optionID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("plan_id = ? AND option_id = ?", planID, optionID).
		Delete(&models.Vote{})
	return res.RowsAffected, res.Error
}

// ListByPlan returns all votes of a plan in insertion order
func (r *VoteRepository) ListByPlan(ctx context.Context, planID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).Where("plan_id = ?", planID).Order("id").Find(&votes).Error
	return votes, err
}
