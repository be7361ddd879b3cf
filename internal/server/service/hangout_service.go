package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"
)

// Cancellation reasons recorded by the sweeper
const (
	ReasonPollExpired = "poll expired without consensus"
	ReasonNoAttendees = "no attendees"
)

// HangoutService owns the plan lifecycle. It is the only writer of a plan's
// phase and finalized option.
type HangoutService struct {
	store *repository.Store
	pub   *Publisher
}

func NewHangoutService(store *repository.Store, pub *Publisher) *HangoutService {
	return &HangoutService{store: store, pub: pub}
}

// CreatePlan stores a new plan with its creator and initial options. A plan
// created with exactly one option skips the poll and lands in RSVP.
func (s *HangoutService) CreatePlan(ctx context.Context, creatorID uint, req models.CreatePlanRequest) (*models.PlanDetail, error) {
	plan, err := buildPlan(creatorID, req)
	if err != nil {
		return nil, err
	}
	for _, o := range req.Options {
		if err := validateOption(o); err != nil {
			return nil, err
		}
	}
	if req.StartVoting && len(req.Options) == 0 {
		return nil, fmt.Errorf("%w: voting needs at least one option", ErrNotEnoughOptions)
	}

	events := &eventBuffer{}
	err = s.store.Transaction(ctx, func(r *repository.Repositories) error {
		if err := r.Plans.Create(ctx, plan); err != nil {
			return err
		}
		creator := &models.Participant{
			PlanID:      plan.ID,
			UserID:      creatorID,
			Role:        models.RoleCreator,
			IsMandatory: true,
			IsCoHost:    true,
			CanEdit:     true,
			JoinedVia:   models.JoinedAsCreator,
		}
		if err := r.Participants.Create(ctx, creator); err != nil {
			return err
		}

		options := make([]*models.Option, 0, len(req.Options))
		for i, o := range req.Options {
			option := newOption(plan.ID, creatorID, i, o)
			if err := r.Options.Create(ctx, option); err != nil {
				return err
			}
			options = append(options, option)
		}

		switch {
		case len(options) == 1:
			return s.quickFinalize(ctx, r, plan, options[0].ID, creatorID, events)
		case req.StartVoting:
			return s.openVoting(ctx, r, plan, creatorID, events)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Plan created", "planID", plan.ID, "creatorID", creatorID, "phase", plan.Phase)
	s.pub.publish(ctx, events)
	return s.GetPlanDetail(ctx, plan.ID)
}

func buildPlan(creatorID uint, req models.CreatePlanRequest) (*models.Plan, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPlan)
	}
	if creatorID == 0 {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidPlan)
	}
	privacy := req.Privacy
	if privacy == "" {
		privacy = models.PrivacyPublic
	}
	if !privacy.IsValid() {
		return nil, fmt.Errorf("%w: unknown privacy %q", ErrInvalidPlan, privacy)
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		return nil, fmt.Errorf("%w: plan ends before it starts", ErrInvalidPlan)
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(timeNow()) {
		return nil, fmt.Errorf("%w: poll expiry must be in the future", ErrInvalidPlan)
	}

	cfg := req.Consensus.Apply(models.DefaultConsensusConfig())
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &models.Plan{
		Title:        title,
		Description:  req.Description,
		Location:     req.Location,
		StartsAt:     utcPtr(req.StartsAt),
		EndsAt:       utcPtr(req.EndsAt),
		Phase:        models.PhasePlanning,
		CreatorID:    creatorID,
		Privacy:      privacy,
		Consensus:    cfg,
		ExpiresAt:    utcPtr(req.ExpiresAt),
		RSVPDeadline: utcPtr(req.RSVPDeadline),
	}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *HangoutService) GetPlan(ctx context.Context, planID uint) (*models.Plan, error) {
	return getPlan(ctx, s.store.Repos(), planID)
}

// GetPlanDetail returns the plan with its options, participants, current
// outcome and, once finalized, the RSVP summary
func (s *HangoutService) GetPlanDetail(ctx context.Context, planID uint) (*models.PlanDetail, error) {
	repos := s.store.Repos()
	plan, err := getPlan(ctx, repos, planID)
	if err != nil {
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
	outcome, err := evaluatePlan(ctx, repos, plan)
	if err != nil {
		return nil, err
	}

	detail := &models.PlanDetail{
		Plan:         *plan,
		Options:      options,
		Participants: participants,
		Consensus:    outcome,
	}
	if plan.FinalizedOptionID != nil {
		summary, err := rsvpSummary(ctx, repos, planID)
		if err != nil {
			return nil, err
		}
		detail.RSVP = summary
	}
	return detail, nil
}

// ListPlans returns the plans a user created or takes part in
func (s *HangoutService) ListPlans(ctx context.Context, userID uint) ([]models.Plan, error) {
	return s.store.Repos().Plans.ListByUser(ctx, userID)
}

// OpenVoting moves a planning plan into voting. A plan with a single option is
// finalized on the spot instead.
func (s *HangoutService) OpenVoting(ctx context.Context, planID, actorID uint) (*models.Plan, error) {
	return s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
		if err := requireManager(ctx, r, plan, actorID); err != nil {
			return err
		}
		if plan.Phase != models.PhasePlanning {
			return fmt.Errorf("%w: cannot open voting from %s", ErrInvalidPhaseTransition, plan.Phase)
		}
		count, err := r.Options.Count(ctx, plan.ID)
		if err != nil {
			return err
		}
		switch count {
		case 0:
			return fmt.Errorf("%w: plan has no options", ErrNotEnoughOptions)
		case 1:
			optionID, err := soleOption(ctx, r, plan.ID)
			if err != nil {
				return err
			}
			return s.quickFinalize(ctx, r, plan, optionID, actorID, events)
		}
		return s.openVoting(ctx, r, plan, actorID, events)
	})
}

// Finalize closes the poll on the winning option. Calling it on an already
// finalized plan returns that plan unchanged.
func (s *HangoutService) Finalize(ctx context.Context, planID, actorID uint) (*models.Plan, error) {
	return s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
		if err := requireManager(ctx, r, plan, actorID); err != nil {
			return err
		}
		if plan.FinalizedOptionID != nil {
			if plan.Phase == models.PhaseConsensus {
				if err := transition(plan, models.PhaseRSVP, timeNow()); err != nil {
					return err
				}
				return r.Plans.Save(ctx, plan)
			}
			return nil
		}
		if plan.Phase != models.PhaseVoting {
			return fmt.Errorf("%w: cannot finalize from %s", ErrInvalidPhaseTransition, plan.Phase)
		}
		outcome, err := evaluatePlan(ctx, r, plan)
		if err != nil {
			return err
		}
		if !outcome.Reached() {
			return fmt.Errorf("%w: %s", ErrNotConsensus, outcome.Reason)
		}
		return s.finalizeInTx(ctx, r, plan, *outcome.WinningOptionID, actorID, &outcome, events)
	})
}

// ForceClose lets the creator end a poll that has been narrowed down to one option
func (s *HangoutService) ForceClose(ctx context.Context, planID, actorID uint) (*models.Plan, error) {
	return s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
		if plan.CreatorID != actorID {
			return fmt.Errorf("%w: only the creator can close the poll", ErrNotPermitted)
		}
		if plan.Phase != models.PhaseVoting {
			return fmt.Errorf("%w: cannot close poll from %s", ErrInvalidPhaseTransition, plan.Phase)
		}
		count, err := r.Options.Count(ctx, plan.ID)
		if err != nil {
			return err
		}
		if count != 1 {
			return fmt.Errorf("%w: %d options remain, need exactly one", ErrNotEnoughOptions, count)
		}
		optionID, err := soleOption(ctx, r, plan.ID)
		if err != nil {
			return err
		}
		return s.finalizeInTx(ctx, r, plan, optionID, actorID, nil, events)
	})
}

// Cancel ends the plan. Cancelling a cancelled plan is a no-op.
func (s *HangoutService) Cancel(ctx context.Context, planID, actorID uint, reason string) (*models.Plan, error) {
	return s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
		if plan.CreatorID != actorID {
			return fmt.Errorf("%w: only the creator can cancel", ErrNotPermitted)
		}
		if plan.Phase == models.PhaseCancelled {
			return nil
		}
		return cancelInTx(ctx, r, plan, actorID, reason, events)
	})
}

// Snapshot returns the plan together with all of its child rows
func (s *HangoutService) Snapshot(ctx context.Context, planID uint) (*models.PlanSnapshot, error) {
	return loadSnapshot(ctx, s.store.Repos(), planID)
}

// ImportSnapshot recreates a plan from a snapshot under fresh IDs
func (s *HangoutService) ImportSnapshot(ctx context.Context, snapshot *models.PlanSnapshot) (*models.Plan, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}

	var plan models.Plan
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		plan = snapshot.Plan
		plan.ID = 0
		plan.FinalizedOptionID = nil
		if err := r.Plans.Create(ctx, &plan); err != nil {
			return err
		}

		optionIDs := make(map[uint]uint, len(snapshot.Options))
		for _, o := range snapshot.Options {
			oldID := o.ID
			o.ID = 0
			o.PlanID = plan.ID
			if err := r.Options.Create(ctx, &o); err != nil {
				return err
			}
			optionIDs[oldID] = o.ID
		}
		for _, p := range snapshot.Participants {
			p.ID = 0
			p.PlanID = plan.ID
			if err := r.Participants.Create(ctx, &p); err != nil {
				return err
			}
		}
		for _, v := range snapshot.Votes {
			newID, ok := optionIDs[v.OptionID]
			if !ok {
				return fmt.Errorf("%w: vote references unknown option %d", ErrInvalidPlan, v.OptionID)
			}
			v.ID = 0
			v.PlanID = plan.ID
			v.OptionID = newID
			if err := r.Votes.Create(ctx, &v); err != nil {
				return err
			}
		}
		for _, rsvp := range snapshot.RSVPs {
			rsvp.ID = 0
			rsvp.PlanID = plan.ID
			if err := r.RSVPs.Upsert(ctx, &rsvp); err != nil {
				return err
			}
		}

		if snapshot.Plan.FinalizedOptionID != nil {
			newID, ok := optionIDs[*snapshot.Plan.FinalizedOptionID]
			if !ok {
				return fmt.Errorf("%w: finalized option %d is not part of the snapshot", ErrInvalidPlan, *snapshot.Plan.FinalizedOptionID)
			}
			plan.FinalizedOptionID = &newID
			return r.Plans.Save(ctx, &plan)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Plan imported", "planID", plan.ID, "phase", plan.Phase)
	return &plan, nil
}

func validateSnapshot(snapshot *models.PlanSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: empty snapshot", ErrInvalidPlan)
	}
	plan := snapshot.Plan
	if strings.TrimSpace(plan.Title) == "" || plan.CreatorID == 0 {
		return fmt.Errorf("%w: snapshot plan needs a title and a creator", ErrInvalidPlan)
	}
	if !plan.Phase.IsValid() {
		return fmt.Errorf("%w: unknown phase %q", ErrInvalidPlan, plan.Phase)
	}
	if !plan.Privacy.IsValid() {
		return fmt.Errorf("%w: unknown privacy %q", ErrInvalidPlan, plan.Privacy)
	}
	if err := validateConfig(plan.Consensus); err != nil {
		return err
	}
	if plan.Phase.IsFinalized() && plan.FinalizedOptionID == nil {
		return fmt.Errorf("%w: %s plan without a finalized option", ErrInvalidPlan, plan.Phase)
	}
	return nil
}

// SweepResult counts what one sweep changed
type SweepResult struct {
	Finalized int `json:"finalized"`
	Cancelled int `json:"cancelled"`
	Confirmed int `json:"confirmed"`
}

// Sweep applies time-based policy as of now: expired polls are finalized when
// consensus holds and cancelled otherwise, and RSVP plans past their deadline
// are confirmed or cancelled. Failures on one plan do not stop the others.
func (s *HangoutService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult
	repos := s.store.Repos()

	expired, err := repos.Plans.ListExpiredVoting(ctx, now)
	if err != nil {
		return result, err
	}
	for _, planID := range expired {
		var applied models.Phase
		_, err := s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
			if plan.Phase != models.PhaseVoting || plan.ExpiresAt == nil || plan.ExpiresAt.After(now) {
				return nil
			}
			outcome, err := evaluatePlan(ctx, r, plan)
			if err != nil {
				return err
			}
			if outcome.Reached() {
				applied = models.PhaseRSVP
				return s.finalizeInTx(ctx, r, plan, *outcome.WinningOptionID, 0, &outcome, events)
			}
			applied = models.PhaseCancelled
			return cancelInTx(ctx, r, plan, 0, ReasonPollExpired, events)
		})
		switch {
		case err != nil:
			slog.Error("Failed to sweep expired poll", "planID", planID, "error", err)
		case applied == models.PhaseRSVP:
			result.Finalized++
		case applied == models.PhaseCancelled:
			result.Cancelled++
		}
	}

	pastDeadline, err := repos.Plans.ListRSVPPastDeadline(ctx, now)
	if err != nil {
		return result, err
	}
	for _, planID := range pastDeadline {
		var applied models.Phase
		_, err := s.mutate(ctx, planID, func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error {
			if plan.Phase != models.PhaseRSVP || plan.RSVPDeadline == nil || plan.RSVPDeadline.After(now) {
				return nil
			}
			yes, err := r.RSVPs.CountByStatus(ctx, plan.ID, models.RSVPYes)
			if err != nil {
				return err
			}
			if yes == 0 {
				applied = models.PhaseCancelled
				return cancelInTx(ctx, r, plan, 0, ReasonNoAttendees, events)
			}
			confirmed, err := confirmIfComplete(ctx, r, plan, 0, events)
			if confirmed {
				applied = models.PhaseConfirmed
			}
			return err
		})
		switch {
		case err != nil:
			slog.Error("Failed to sweep rsvp deadline", "planID", planID, "error", err)
		case applied == models.PhaseConfirmed:
			result.Confirmed++
		case applied == models.PhaseCancelled:
			result.Cancelled++
		}
	}

	if result != (SweepResult{}) {
		slog.Info("Sweep finished", "finalized", result.Finalized, "cancelled", result.Cancelled, "confirmed", result.Confirmed)
	}
	return result, nil
}

// mutate runs fn on the locked plan inside one transaction and publishes the
// buffered events after commit
func (s *HangoutService) mutate(ctx context.Context, planID uint, fn func(r *repository.Repositories, plan *models.Plan, events *eventBuffer) error) (*models.Plan, error) {
	var plan *models.Plan
	events := &eventBuffer{}
	err := s.store.Transaction(ctx, func(r *repository.Repositories) error {
		var err error
		plan, err = lockPlan(ctx, r, planID)
		if err != nil {
			return err
		}
		return fn(r, plan, events)
	})
	if err != nil {
		return nil, err
	}
	s.pub.publish(ctx, events)
	return plan, nil
}

func (s *HangoutService) openVoting(ctx context.Context, r *repository.Repositories, plan *models.Plan, actorID uint, events *eventBuffer) error {
	if err := transition(plan, models.PhaseVoting, timeNow()); err != nil {
		return err
	}
	if err := r.Plans.Save(ctx, plan); err != nil {
		return err
	}
	events.add(models.EventVotingOpened, plan.ID, actorID, map[string]interface{}{
		"vote_type":  plan.Consensus.VoteType,
		"expires_at": plan.ExpiresAt,
	})
	return nil
}

// quickFinalize takes a single-option plan straight from planning to RSVP
func (s *HangoutService) quickFinalize(ctx context.Context, r *repository.Repositories, plan *models.Plan, optionID, actorID uint, events *eventBuffer) error {
	plan.FinalizedOptionID = &optionID
	if err := transition(plan, models.PhaseRSVP, timeNow()); err != nil {
		return err
	}
	if err := r.Plans.Save(ctx, plan); err != nil {
		return err
	}
	events.add(models.EventPlanFinalized, plan.ID, actorID, map[string]interface{}{
		"option_id": optionID,
		"quick":     true,
	})
	return nil
}

// finalizeInTx records the winning option and walks the plan through
// consensus into RSVP in the caller's transaction. A plan that already has a
// finalized option is left untouched.
func (s *HangoutService) finalizeInTx(ctx context.Context, r *repository.Repositories, plan *models.Plan, optionID, actorID uint, outcome *models.ConsensusOutcome, events *eventBuffer) error {
	if plan.FinalizedOptionID != nil {
		return nil
	}
	now := timeNow()
	if err := transition(plan, models.PhaseConsensus, now); err != nil {
		return err
	}
	plan.FinalizedOptionID = &optionID
	if err := transition(plan, models.PhaseRSVP, now); err != nil {
		return err
	}
	if err := r.Plans.Save(ctx, plan); err != nil {
		return err
	}

	if outcome != nil {
		events.add(models.EventConsensusReached, plan.ID, actorID, map[string]interface{}{
			"option_id": optionID,
			"reason":    outcome.Reason,
			"turnout":   outcome.Turnout,
			"eligible":  outcome.EligibleVoters,
		})
	}
	events.add(models.EventPlanFinalized, plan.ID, actorID, map[string]interface{}{
		"option_id": optionID,
		"forced":    outcome == nil,
	})
	slog.Info("Plan finalized", "planID", plan.ID, "optionID", optionID)
	return nil
}

func cancelInTx(ctx context.Context, r *repository.Repositories, plan *models.Plan, actorID uint, reason string, events *eventBuffer) error {
	if err := transition(plan, models.PhaseCancelled, timeNow()); err != nil {
		return err
	}
	plan.CancelReason = reason
	if err := r.Plans.Save(ctx, plan); err != nil {
		return err
	}
	events.add(models.EventPlanCancelled, plan.ID, actorID, map[string]interface{}{
		"reason": reason,
	})
	events.archivePlan(plan.ID)
	slog.Info("Plan cancelled", "planID", plan.ID, "reason", reason)
	return nil
}

// soleOption returns the ID of the only live option of a plan
func soleOption(ctx context.Context, r *repository.Repositories, planID uint) (uint, error) {
	options, err := r.Options.ListByPlan(ctx, planID)
	if err != nil {
		return 0, err
	}
	if len(options) != 1 {
		return 0, fmt.Errorf("%w: %d options remain, need exactly one", ErrNotEnoughOptions, len(options))
	}
	return options[0].ID, nil
}

func getPlan(ctx context.Context, r *repository.Repositories, planID uint) (*models.Plan, error) {
	plan, err := r.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return plan, nil
}

func lockPlan(ctx context.Context, r *repository.Repositories, planID uint) (*models.Plan, error) {
	plan, err := r.Plans.LockByID(ctx, planID)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	return plan, nil
}

func loadSnapshot(ctx context.Context, r *repository.Repositories, planID uint) (*models.PlanSnapshot, error) {
	plan, err := getPlan(ctx, r, planID)
	if err != nil {
		return nil, err
	}
	snapshot := &models.PlanSnapshot{Plan: *plan}
	if snapshot.Options, err = r.Options.ListByPlan(ctx, planID); err != nil {
		return nil, err
	}
	if snapshot.Votes, err = r.Votes.ListByPlan(ctx, planID); err != nil {
		return nil, err
	}
	if snapshot.Participants, err = r.Participants.ListByPlan(ctx, planID); err != nil {
		return nil, err
	}
	if snapshot.RSVPs, err = r.RSVPs.ListByPlan(ctx, planID); err != nil {
		return nil, err
	}
	return snapshot, nil
}
