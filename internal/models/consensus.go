package models

// ConsensusStatus is the result of evaluating a poll
type ConsensusStatus string

const (
	ConsensusReached    ConsensusStatus = "reached"
	ConsensusNotReached ConsensusStatus = "not_reached"
)

// Reasons attached to an outcome
const (
	ReasonThresholdMet     = "threshold_met"
	ReasonTieResolved      = "tie_resolved"
	ReasonNoVotes          = "no_votes"
	ReasonMandatoryPending = "mandatory_pending"
	ReasonTie              = "tie"
	ReasonBelowThreshold   = "below_threshold"
	ReasonBelowMinimum     = "below_minimum_participants"
	ReasonNoOptions        = "no_options"
	ReasonAlreadyFinalized = "already_finalized"
)

// OptionTally is the aggregated support of one option
type OptionTally struct {
	OptionID   uint    `json:"option_id"`
	Ordinal    int     `json:"ordinal"`
	Count      int     `json:"count"`
	WeightSum  float64 `json:"weight_sum"`
	VoterIDs   []uint  `json:"voter_ids"`
	Percentage float64 `json:"percentage"`
}

// Tally maps option IDs to their aggregated support
type Tally map[uint]*OptionTally

// ConsensusOutcome is a point-in-time decision over a fixed set of votes
type ConsensusOutcome struct {
	Status          ConsensusStatus `json:"status"`
	WinningOptionID *uint           `json:"winning_option_id,omitempty"`
	Reason          string          `json:"reason"`
	EligibleVoters  int             `json:"eligible_voters"`
	Turnout         int             `json:"turnout"`
	Leaders         []uint          `json:"leaders,omitempty"`
	Options         []OptionTally   `json:"options"`
}

func (o ConsensusOutcome) Reached() bool {
	return o.Status == ConsensusReached
}
