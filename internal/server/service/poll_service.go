package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"

	"gorm.io/gorm"
)

// PollService owns options, votes and consensus evaluation
type PollService struct {
	store    *repository.Store
	hangouts *HangoutService
	pub      *Publisher
}

func NewPollService(store *repository.Store, hangouts *HangoutService, pub *Publisher) *PollService {
	return &PollService{store: store, hangouts: hangouts, pub: pub}
}

// CastVote toggles the actor's vote on an option. Casting on an option the
// actor already voted for removes that vote. Under single-choice polls a new
// vote clears the actor's other votes first. Consensus is re-evaluated in the
// same transaction and the plan is finalized as soon as it is reached.
func (s *PollService) CastVote(ctx context.Context, planID, optionID uint, actor Actor, voteType models.VoteType, weight float64) (*models.VoteResult, error) {
	result := &models.VoteResult{}
	events := &eventBuffer{}

	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		if plan.Phase != models.PhaseVoting {
			return fmt.Errorf("%w: plan is in phase %s", ErrPollNotActive, plan.Phase)
		}

		if _, err := r.Options.GetInPlan(ctx, planID, optionID); err != nil {
			return notFound(err, ErrOptionNotFound)
		}

		if voteType == "" {
			voteType = plan.Consensus.VoteType
		}
		if !voteType.IsValid() || !voteType.SupportsConsensus() || voteType != plan.Consensus.VoteType {
			return fmt.Errorf("%w: %q on a %s poll", ErrInvalidVoteType, voteType, plan.Consensus.VoteType)
		}
		// NaN fails every comparison, so only an in-range weight passes
		if !(weight > 0 && weight <= models.MaxVoteWeight) {
			return ErrWeightOutOfRange
		}

		if _, err := ensureParticipant(ctx, r, plan, actor, models.JoinedByVote, events); err != nil {
			return err
		}

		existing, err := r.Votes.Find(ctx, planID, optionID, actor.UserID)
		switch {
		case err == nil:
			if err := r.Votes.Delete(ctx, existing); err != nil {
				return err
			}
			result.Removed = true
			events.add(models.EventVoteRemoved, planID, actor.UserID, voteMessage(existing, true))
		case errors.Is(err, gorm.ErrRecordNotFound):
			if voteType == models.VoteTypeSingle {
				previous, err := r.Votes.ListByUser(ctx, planID, actor.UserID)
				if err != nil {
					return err
				}
				for i := range previous {
					if err := r.Votes.Delete(ctx, &previous[i]); err != nil {
						return err
					}
					result.ClearedOptionIDs = append(result.ClearedOptionIDs, previous[i].OptionID)
					events.add(models.EventVoteRemoved, planID, actor.UserID, voteMessage(&previous[i], true))
				}
			}
			vote := &models.Vote{
				PlanID:   planID,
				OptionID: optionID,
				UserID:   actor.UserID,
				VoteType: voteType,
				Weight:   weight,
			}
			if err := r.Votes.Create(ctx, vote); err != nil {
				return err
			}
			result.Vote = vote
			events.add(models.EventVoteCast, planID, actor.UserID, voteMessage(vote, false))
		default:
			return err
		}

		outcome, err := evaluatePlan(ctx, r, plan)
		if err != nil {
			return err
		}
		if outcome.Reached() {
			if err := s.hangouts.finalizeInTx(ctx, r, plan, *outcome.WinningOptionID, actor.UserID, &outcome, events); err != nil {
				return err
			}
		}
		result.Outcome = outcome
		result.Phase = plan.Phase
		result.FinalizedOptionID = plan.FinalizedOptionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pub.publish(ctx, events)
	return result, nil
}

func voteMessage(v *models.Vote, removed bool) map[string]interface{} {
	return models.NewVoteMessage(v, removed).Payload()
}

// Tally aggregates the current votes of a plan per option
func (s *PollService) Tally(ctx context.Context, planID uint) (models.Tally, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return nil, err
	}
	options, err := repos.Options.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	participants, err := repos.Participants.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	votes, err := repos.Votes.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return BuildTally(options, votes, len(participants)), nil
}

// EvaluateConsensus reports the point-in-time outcome without changing anything
func (s *PollService) EvaluateConsensus(ctx context.Context, planID uint) (models.ConsensusOutcome, error) {
	repos := s.store.Repos()
	plan, err := getPlan(ctx, repos, planID)
	if err != nil {
		return models.ConsensusOutcome{}, err
	}
	return evaluatePlan(ctx, repos, plan)
}

// AddOption proposes a new option. Options are open while planning and, with
// late options allowed, while voting.
func (s *PollService) AddOption(ctx context.Context, planID, actorID uint, req models.AddOptionRequest) (*models.Option, error) {
	if err := validateOption(req); err != nil {
		return nil, err
	}

	var option *models.Option
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		switch {
		case plan.Phase == models.PhasePlanning:
		case plan.Phase == models.PhaseVoting && plan.Consensus.AllowLateOptions:
		default:
			return fmt.Errorf("%w: plan is in phase %s", ErrOptionsLocked, plan.Phase)
		}

		p, err := r.Participants.Get(ctx, planID, actorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: only participants can propose options", ErrNotPermitted)
			}
			return err
		}
		if !p.CanPropose() {
			return fmt.Errorf("%w: participant cannot edit this plan", ErrNotPermitted)
		}

		ordinal, err := r.Options.NextOrdinal(ctx, planID)
		if err != nil {
			return err
		}
		option = newOption(planID, actorID, ordinal, req)
		if err := r.Options.Create(ctx, option); err != nil {
			return err
		}
		events.add(models.EventOptionAdded, planID, actorID, map[string]interface{}{
			"option_id": option.ID,
			"title":     option.Title,
			"ordinal":   option.Ordinal,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events)
	return option, nil
}

// RemoveOption withdraws an option and every vote on it. During voting the
// remaining votes are re-evaluated, which can finalize the plan.
func (s *PollService) RemoveOption(ctx context.Context, planID, actorID, optionID uint) error {
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, r, plan, actorID); err != nil {
			return err
		}
		if plan.Phase != models.PhasePlanning && plan.Phase != models.PhaseVoting {
			return fmt.Errorf("%w: plan is in phase %s", ErrOptionsLocked, plan.Phase)
		}

		option, err := r.Options.GetInPlan(ctx, planID, optionID)
		if err != nil {
			return notFound(err, ErrOptionNotFound)
		}
		removed, err := r.Votes.DeleteByOption(ctx, planID, optionID)
		if err != nil {
			return err
		}
		if err := r.Options.Delete(ctx, option); err != nil {
			return err
		}
		events.add(models.EventOptionRemoved, planID, actorID, map[string]interface{}{
			"option_id":     optionID,
			"votes_removed": removed,
		})

		if plan.Phase != models.PhaseVoting {
			return nil
		}
		outcome, err := evaluatePlan(ctx, r, plan)
		if err != nil {
			return err
		}
		if outcome.Reached() {
			return s.hangouts.finalizeInTx(ctx, r, plan, *outcome.WinningOptionID, actorID, &outcome, events)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.pub.publish(ctx, events)
	return nil
}

// ListOptions returns the plan's live options in ordinal order
func (s *PollService) ListOptions(ctx context.Context, planID uint) ([]models.Option, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return nil, err
	}
	return repos.Options.ListByPlan(ctx, planID)
}

func validateOption(req models.AddOptionRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: option title is required", ErrInvalidPlan)
	}
	if req.StartTime != nil && req.EndTime != nil && req.EndTime.Before(*req.StartTime) {
		return fmt.Errorf("%w: option ends before it starts", ErrInvalidPlan)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: option price cannot be negative", ErrInvalidPlan)
	}
	return nil
}

func newOption(planID, proposedBy uint, ordinal int, req models.AddOptionRequest) *models.Option {
	return &models.Option{
		PlanID:      planID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Price:       req.Price,
		Ordinal:     ordinal,
		ProposedBy:  proposedBy,
	}
}
