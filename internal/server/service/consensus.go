package service

import (
	"context"
	"fmt"
	"sort"

	"hangout-service/internal/models"
	"hangout-service/internal/server/repository"
)

// BuildTally aggregates votes per live option. Votes on unknown options are ignored.
func BuildTally(options []models.Option, votes []models.Vote, eligible int) models.Tally {
	tally := make(models.Tally, len(options))
	for _, o := range options {
		tally[o.ID] = &models.OptionTally{OptionID: o.ID, Ordinal: o.Ordinal, VoterIDs: []uint{}}
	}
	for _, v := range votes {
		t, ok := tally[v.OptionID]
		if !ok {
			continue
		}
		t.Count++
		t.WeightSum += v.Weight
		t.VoterIDs = append(t.VoterIDs, v.UserID)
	}
	denom := eligible
	if denom < 1 {
		denom = 1
	}
	for _, t := range tally {
		sort.Slice(t.VoterIDs, func(i, j int) bool { return t.VoterIDs[i] < t.VoterIDs[j] })
		t.Percentage = float64(t.Count) / float64(denom) * 100
	}
	return tally
}

// sortedTallies orders tallies by ordinal then option ID
func sortedTallies(tally models.Tally) []models.OptionTally {
	out := make([]models.OptionTally, 0, len(tally))
	for _, t := range tally {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].OptionID < out[j].OptionID
	})
	return out
}

// Evaluate decides a poll over a fixed set of rows. It has no side effects and
// returns the same outcome for the same input.
func Evaluate(cfg models.ConsensusConfig, options []models.Option, participants []models.Participant, votes []models.Vote) models.ConsensusOutcome {
	eligible := len(participants)
	tally := BuildTally(options, votes, eligible)

	voted := make(map[uint]struct{})
	for _, t := range tally {
		for _, id := range t.VoterIDs {
			voted[id] = struct{}{}
		}
	}

	out := models.ConsensusOutcome{
		Status:         models.ConsensusNotReached,
		EligibleVoters: eligible,
		Turnout:        len(voted),
		Options:        sortedTallies(tally),
	}

	if len(options) == 0 {
		out.Reason = models.ReasonNoOptions
		return out
	}

	if !cfg.AllowAbstention {
		for _, p := range participants {
			if !p.IsMandatory {
				continue
			}
			if _, ok := voted[p.UserID]; !ok {
				out.Reason = models.ReasonMandatoryPending
				return out
			}
		}
	}

	if len(voted) == 0 {
		out.Reason = models.ReasonNoVotes
		return out
	}

	// out.Options is already in ordinal order, so the stable sort keeps ordinal
	// then ID as the final tie-breakers.
	ranked := append([]models.OptionTally(nil), out.Options...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	top := ranked[0].Count
	var leaders []models.OptionTally
	for _, t := range ranked {
		if t.Count == top {
			leaders = append(leaders, t)
		}
	}

	leader := leaders[0]
	reason := models.ReasonThresholdMet
	if len(leaders) > 1 {
		for _, t := range leaders {
			out.Leaders = append(out.Leaders, t.OptionID)
		}
		if !cfg.AllowTies {
			out.Reason = models.ReasonTie
			return out
		}
		sort.SliceStable(leaders, func(i, j int) bool {
			return leaders[i].WeightSum > leaders[j].WeightSum
		})
		leader = leaders[0]
		reason = models.ReasonTieResolved
	}

	denom := eligible
	if denom < 1 {
		denom = 1
	}
	if float64(leader.Count)*100 < cfg.ThresholdPercentage*float64(denom) {
		out.Reason = models.ReasonBelowThreshold
		return out
	}

	// Only the leader's voters back the decision. Participants who voted for
	// another option never count; silent ones do when abstention is allowed.
	backing := leader.Count
	if cfg.AllowAbstention {
		backing += eligible - out.Turnout
	}
	if backing < cfg.MinimumParticipants {
		out.Reason = models.ReasonBelowMinimum
		return out
	}

	winner := leader.OptionID
	out.Status = models.ConsensusReached
	out.WinningOptionID = &winner
	out.Reason = reason
	return out
}

// evaluatePlan loads the plan's rows through r and evaluates them. A plan that
// already carries a finalized option reports that option as reached.
func evaluatePlan(ctx context.Context, r *repository.Repositories, plan *models.Plan) (models.ConsensusOutcome, error) {
	options, err := r.Options.ListByPlan(ctx, plan.ID)
	if err != nil {
		return models.ConsensusOutcome{}, err
	}
	participants, err := r.Participants.ListByPlan(ctx, plan.ID)
	if err != nil {
		return models.ConsensusOutcome{}, err
	}
	votes, err := r.Votes.ListByPlan(ctx, plan.ID)
	if err != nil {
		return models.ConsensusOutcome{}, err
	}

	out := Evaluate(plan.Consensus, options, participants, votes)
	if plan.FinalizedOptionID != nil {
		winner := *plan.FinalizedOptionID
		out.Status = models.ConsensusReached
		out.WinningOptionID = &winner
		out.Reason = models.ReasonAlreadyFinalized
		out.Leaders = nil
	}
	return out, nil
}

// validateConfig checks a consensus config before it is frozen on a plan
func validateConfig(cfg models.ConsensusConfig) error {
	// written as a positive range check so NaN fails it
	if !(cfg.ThresholdPercentage > 0 && cfg.ThresholdPercentage <= 100) {
		return fmt.Errorf("%w: threshold must be in (0, 100]", ErrInvalidConfig)
	}
	if cfg.MinimumParticipants < 1 {
		return fmt.Errorf("%w: minimum participants must be at least 1", ErrInvalidConfig)
	}
	if !cfg.VoteType.IsValid() {
		return fmt.Errorf("%w: unknown vote type %q", ErrInvalidConfig, cfg.VoteType)
	}
	if !cfg.VoteType.SupportsConsensus() {
		return fmt.Errorf("%w: vote type %q is not supported", ErrInvalidVoteType, cfg.VoteType)
	}
	return nil
}
