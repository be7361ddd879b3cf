package service

import (
	"fmt"
	"time"

	"hangout-service/internal/models"
)

// transitions lists the legal phase moves
var transitions = map[models.Phase][]models.Phase{
	models.PhasePlanning:  {models.PhaseVoting, models.PhaseRSVP, models.PhaseCancelled},
	models.PhaseVoting:    {models.PhaseConsensus, models.PhaseCancelled},
	models.PhaseConsensus: {models.PhaseRSVP, models.PhaseCancelled},
	models.PhaseRSVP:      {models.PhaseConfirmed, models.PhaseCancelled},
	models.PhaseConfirmed: {models.PhaseCancelled},
	models.PhaseCancelled: nil,
}

// CanTransition reports whether a plan may move from one phase to another
func CanTransition(from, to models.Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition moves the plan to a new phase and stamps the matching timestamp.
// The caller persists the plan.
func transition(plan *models.Plan, to models.Phase, now time.Time) error {
	if !CanTransition(plan.Phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, plan.Phase, to)
	}
	plan.Phase = to
	switch to {
	case models.PhaseConsensus:
		plan.PollClosedAt = &now
	case models.PhaseRSVP:
		if plan.PollClosedAt == nil {
			plan.PollClosedAt = &now
		}
	case models.PhaseConfirmed:
		plan.ConfirmedAt = &now
	case models.PhaseCancelled:
		plan.CancelledAt = &now
	}
	return nil
}

func timeNow() time.Time {
	return time.Now().UTC()
}
