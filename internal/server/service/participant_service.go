package service

import (
	"context"
	"errors"
	"fmt"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"

	"gorm.io/gorm"
)

// Actor is the caller of an operation. CanAccess is decided by the external
// authorization collaborator and only matters when the actor is not yet a
// participant of the plan.
type Actor struct {
	UserID    uint
	CanAccess bool
}

type ParticipantService struct {
	store *repository.Store
	pub   *Publisher
}

func NewParticipantService(store *repository.Store, pub *Publisher) *ParticipantService {
	return &ParticipantService{store: store, pub: pub}
}

// EnsureParticipant returns the actor's participant row, creating it when the actor may access the plan
func (s *ParticipantService) EnsureParticipant(ctx context.Context, planID uint, actor Actor) (*models.Participant, error) {
	var participant *models.Participant
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		participant, err = ensureParticipant(ctx, r, plan, actor, models.JoinedDirectly, events)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events)
	return participant, nil
}

// EligibleVoters returns the user IDs of every participant, sorted
func (s *ParticipantService) EligibleVoters(ctx context.Context, planID uint) ([]uint, error) {
	participants, err := s.ListParticipants(ctx, planID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.UserID)
	}
	return ids, nil
}

// IsMandatory reports whether the user must respond before the plan can move on.
// Non-participants are never mandatory.
func (s *ParticipantService) IsMandatory(ctx context.Context, planID, userID uint) (bool, error) {
	p, err := s.store.Repos().Participants.Get(ctx, planID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsMandatory, nil
}

func (s *ParticipantService) GetParticipant(ctx context.Context, planID, userID uint) (*models.Participant, error) {
	p, err := s.store.Repos().Participants.Get(ctx, planID, userID)
	if err != nil {
		return nil, notFound(err, ErrParticipantNotFound)
	}
	return p, nil
}

func (s *ParticipantService) ListParticipants(ctx context.Context, planID uint) ([]models.Participant, error) {
	repos := s.store.Repos()
	if _, err := getPlan(ctx, repos, planID); err != nil {
		return nil, err
	}
	return repos.Participants.ListByPlan(ctx, planID)
}

// Invite adds or updates a participant on behalf of a host
func (s *ParticipantService) Invite(ctx context.Context, planID, actorID uint, req models.InviteRequest) (*models.Participant, error) {
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidPlan)
	}

	var participant *models.Participant
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		if err := requireManager(ctx, r, plan, actorID); err != nil {
			return err
		}
		if plan.Phase == models.PhaseCancelled {
			return fmt.Errorf("%w: plan is cancelled", ErrInvalidPhaseTransition)
		}

		existing, err := r.Participants.Get(ctx, planID, req.UserID)
		switch {
		case err == nil:
			if existing.Role != models.RoleCreator {
				existing.IsMandatory = req.IsMandatory
				existing.IsCoHost = req.IsCoHost
				existing.CanEdit = req.CanEdit
				existing.Role = roleFor(req.IsCoHost)
				if err := r.Participants.Save(ctx, existing); err != nil {
					return err
				}
			}
			participant = existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		participant = &models.Participant{
			PlanID:      planID,
			UserID:      req.UserID,
			Role:        roleFor(req.IsCoHost),
			IsMandatory: req.IsMandatory,
			IsCoHost:    req.IsCoHost,
			CanEdit:     req.CanEdit,
			JoinedVia:   models.JoinedByInvite,
		}
		return addParticipant(ctx, r, plan, participant, actorID, events)
	})
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events)
	return participant, nil
}

// UpdateParticipant changes a participant's flags. Only the creator may do this
// and the creator's own row cannot be demoted.
func (s *ParticipantService) UpdateParticipant(ctx context.Context, planID, actorID, userID uint, req models.UpdateParticipantRequest) (*models.Participant, error) {
	var participant *models.Participant
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan, err := lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		if plan.CreatorID != actorID {
			return fmt.Errorf("%w: only the creator can change participants", ErrNotPermitted)
		}

		p, err := r.Participants.Get(ctx, planID, userID)
		if err != nil {
			return notFound(err, ErrParticipantNotFound)
		}

		if p.Role == models.RoleCreator {
			demoted := (req.IsMandatory != nil && !*req.IsMandatory) ||
				(req.IsCoHost != nil && !*req.IsCoHost) ||
				(req.CanEdit != nil && !*req.CanEdit)
			if demoted {
				return fmt.Errorf("%w: the creator cannot be demoted", ErrNotPermitted)
			}
			participant = p
			return nil
		}

		if req.IsMandatory != nil {
			p.IsMandatory = *req.IsMandatory
		}
		if req.IsCoHost != nil {
			p.IsCoHost = *req.IsCoHost
			p.Role = roleFor(p.IsCoHost)
		}
		if req.CanEdit != nil {
			p.CanEdit = *req.CanEdit
		}
		participant = p
		return r.Participants.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

func roleFor(coHost bool) models.ParticipantRole {
	if coHost {
		return models.RoleCoHost
	}
	return models.RoleMember
}

// ensureParticipant is the in-transaction get-or-create used by every self-joining action
func ensureParticipant(ctx context.Context, r *repository.Repositories, plan *models.Plan, actor Actor, via models.JoinSource, events *eventBuffer) (*models.Participant, error) {
	p, err := r.Participants.Get(ctx, plan.ID, actor.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if !actor.CanAccess {
		return nil, fmt.Errorf("%w: no access to plan %d", ErrNotPermitted, plan.ID)
	}

	p = &models.Participant{
		PlanID:    plan.ID,
		UserID:    actor.UserID,
		Role:      models.RoleMember,
		JoinedVia: via,
	}
	if err := addParticipant(ctx, r, plan, p, actor.UserID, events); err != nil {
		return nil, err
	}
	return p, nil
}

// addParticipant inserts a new row and opens a pending RSVP when the plan is already finalized
func addParticipant(ctx context.Context, r *repository.Repositories, plan *models.Plan, p *models.Participant, actorID uint, events *eventBuffer) error {
	if err := r.Participants.Create(ctx, p); err != nil {
		return err
	}
	if plan.Phase == models.PhaseRSVP || plan.Phase == models.PhaseConfirmed {
		if err := r.RSVPs.CreatePending(ctx, plan.ID, p.UserID); err != nil {
			return err
		}
	}
	events.add(models.EventParticipantJoin, plan.ID, actorID, map[string]interface{}{
		"user_id":      p.UserID,
		"role":         p.Role,
		"is_mandatory": p.IsMandatory,
		"joined_via":   p.JoinedVia,
	})
	return nil
}

// requireManager fails unless the user is the creator or a co-host
func requireManager(ctx context.Context, r *repository.Repositories, plan *models.Plan, userID uint) error {
	if plan.CreatorID == userID {
		return nil
	}
	p, err := r.Participants.Get(ctx, plan.ID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: not a host of plan %d", ErrNotPermitted, plan.ID)
	}
	if err != nil {
		return err
	}
	if !p.CanManage() {
		return fmt.Errorf("%w: not a host of plan %d", ErrNotPermitted, plan.ID)
	}
	return nil
}
