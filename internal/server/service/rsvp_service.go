package service

import (
	"context"
	"fmt"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"
)

// RSVPService tracks attendance once a plan has a finalized option
type RSVPService struct {
	store *repository.Store
	pub   *Publisher
}

func NewRSVPService(store *repository.Store, pub *Publisher) *RSVPService {
	return &RSVPService{store: store, pub: pub}
}

// Respond records the actor's answer and confirms the plan once every
// mandatory participant has answered and at least one said yes
func (s *RSVPService) Respond(ctx context.Context, planID uint, actor Actor, status models.RSVPStatus) (*models.RSVP, error) {
	if !status.IsResponse() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRSVPStatus, status)
	}

	var rsvp *models.RSVP
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		if plan.Phase != models.PhaseRSVP && plan.Phase != models.PhaseConfirmed {
			return fmt.Errorf("%w: plan is in phase %s", ErrRSVPNotOpen, plan.Phase)
		}
		if _, err := ensureParticipant(ctx, r, plan, actor, models.JoinedByRSVP, events); err != nil {
			return err
		}

		now := timeNow()
		if err := r.RSVPs.Upsert(ctx, &models.RSVP{
			PlanID:      planID,
			UserID:      actor.UserID,
			Status:      status,
			RespondedAt: &now,
		}); err != nil {
			return err
		}
		if rsvp, err = r.RSVPs.Get(ctx, planID, actor.UserID); err != nil {
			return err
		}
		events.add(models.EventRSVPUpdated, planID, actor.UserID, map[string]interface{}{
			"status": status,
		})

		if plan.Phase != models.PhaseRSVP {
			return nil
		}
		_, err = confirmIfComplete(ctx, r, plan, actor.UserID, events)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events)
	return rsvp, nil
}

// IsComplete reports whether every mandatory participant has answered
func (s *RSVPService) IsComplete(ctx context.Context, planID uint) (bool, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return false, err
	}
	return isComplete(ctx, repos, planID)
}

// AttendeeCount returns the number of yes answers
func (s *RSVPService) AttendeeCount(ctx context.Context, planID uint) (int, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return 0, err
	}
	count, err := repos.RSVPs.CountByStatus(ctx, planID, models.RSVPYes)
	return int(count), err
}

func (s *RSVPService) ListRSVPs(ctx context.Context, planID uint) ([]models.RSVP, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return nil, err
	}
	return repos.RSVPs.ListByPlan(ctx, planID)
}

func (s *RSVPService) Summary(ctx context.Context, planID uint) (*models.RSVPSummary, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return nil, err
	}
	return rsvpSummary(ctx, repos, planID)
}

func rsvpSummary(ctx context.Context, r *repository.Repositories, planID uint) (*models.RSVPSummary, error) {
	rsvps, err := r.RSVPs.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	summary := &models.RSVPSummary{}
	for _, rsvp := range rsvps {
		switch rsvp.Status {
		case models.RSVPYes:
			summary.Yes++
		case models.RSVPNo:
			summary.No++
		case models.RSVPMaybe:
			summary.Maybe++
		default:
			summary.Pending++
		}
	}
	summary.Attendees = summary.Yes
	summary.Complete, err = isComplete(ctx, r, planID)
	return summary, err
}

func isComplete(ctx context.Context, r *repository.Repositories, planID uint) (bool, error) {
	participants, err := r.Participants.ListByPlan(ctx, planID)
	if err != nil {
		return false, err
	}
	rsvps, err := r.RSVPs.ListByPlan(ctx, planID)
	if err != nil {
		return false, err
	}
	answered := make(map[uint]bool, len(rsvps))
	for _, rsvp := range rsvps {
		answered[rsvp.UserID] = rsvp.Status.IsResponse()
	}
	for _, p := range participants {
		if p.IsMandatory && !answered[p.UserID] {
			return false, nil
		}
	}
	return true, nil
}

// confirmIfComplete moves an RSVP plan to confirmed when it is complete and has
// at least one attendee. It reports whether the plan was confirmed.
func confirmIfComplete(ctx context.Context, r *repository.Repositories, plan *models.Plan, actorID uint, events *eventBuffer) (bool, error) {
	complete, err := isComplete(ctx, r, plan.ID)
	if err != nil || !complete {
		return false, err
	}
	yes, err := r.RSVPs.CountByStatus(ctx, plan.ID, models.RSVPYes)
	if err != nil {
		return false, err
	}
	events.add(models.EventRSVPComplete, plan.ID, actorID, map[string]interface{}{
		"attendees": yes,
	})
	if yes == 0 {
		return false, nil
	}

	if err := transition(plan, models.PhaseConfirmed, timeNow()); err != nil {
		return false, err
	}
	if err := r.Plans.Save(ctx, plan); err != nil {
		return false, err
	}
	events.add(models.EventPlanConfirmed, plan.ID, actorID, map[string]interface{}{
		"option_id": plan.FinalizedOptionID,
		"attendees": yes,
	})
	events.archivePlan(plan.ID)
	return true, nil
}
