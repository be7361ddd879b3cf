package models

import (
	"time"

	"gorm.io/gorm"
)

// Phase is the lifecycle state of a plan
type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseVoting    Phase = "voting"
	PhaseConsensus Phase = "consensus"
	PhaseRSVP      Phase = "rsvp"
	PhaseConfirmed Phase = "confirmed"
	PhaseCancelled Phase = "cancelled"
)

func (p Phase) String() string {
	return string(p)
}

// IsValid checks if the Phase is a known value
func (p Phase) IsValid() bool {
	switch p {
	case PhasePlanning, PhaseVoting, PhaseConsensus, PhaseRSVP, PhaseConfirmed, PhaseCancelled:
		return true
	default:
		return false
	}
}

// IsFinalized reports whether a plan in this phase carries a finalized option.
func (p Phase) IsFinalized() bool {
	return p == PhaseConsensus || p == PhaseRSVP || p == PhaseConfirmed
}

// Privacy controls who may self-join a plan
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

func (p Privacy) IsValid() bool {
	return p == PrivacyPublic || p == PrivacyFriends || p == PrivacyPrivate
}

// Plan is a hangout being decided on by a group
type Plan struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Title       string         `gorm:"column:title;size:255;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Location    string         `gorm:"column:location;size:255" json:"location"`
	StartsAt    *time.Time     `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt      *time.Time     `gorm:"column:ends_at" json:"ends_at,omitempty"`
	Phase       Phase          `gorm:"column:phase;size:16;not null;index" json:"phase"`
	CreatorID   uint           `gorm:"column:creator_id;not null;index" json:"creator_id"`
	Privacy     Privacy        `gorm:"column:privacy;size:16;not null" json:"privacy"`

	FinalizedOptionID *uint           `gorm:"column:finalized_option_id" json:"finalized_option_id,omitempty"`
	Consensus         ConsensusConfig `gorm:"embedded" json:"consensus"`

	ExpiresAt    *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	RSVPDeadline *time.Time `gorm:"column:rsvp_deadline;index" json:"rsvp_deadline,omitempty"`
	PollClosedAt *time.Time `gorm:"column:poll_closed_at" json:"poll_closed_at,omitempty"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason string     `gorm:"column:cancel_reason;size:255" json:"cancel_reason,omitempty"`
}

// TableName specifies the table name for Plan
func (Plan) TableName() string {
	return "plans"
}

// ConsensusConfig holds the rules used to decide a poll. It is frozen once voting opens.
type ConsensusConfig struct {
	ThresholdPercentage float64  `gorm:"column:consensus_threshold;not null" json:"threshold_percentage"`
	MinimumParticipants int      `gorm:"column:minimum_participants;not null" json:"minimum_participants"`
	AllowAbstention     bool     `gorm:"column:allow_abstention;not null" json:"allow_abstention"`
	AllowTies           bool     `gorm:"column:allow_ties;not null" json:"allow_ties"`
	AllowLateOptions    bool     `gorm:"column:allow_late_options;not null" json:"allow_late_options"`
	VoteType            VoteType `gorm:"column:vote_type;size:16;not null" json:"vote_type"`
}

const (
	DefaultThresholdPercentage = 70
	DefaultMinimumParticipants = 2
)

// DefaultConsensusConfig returns the config applied to plans that don't specify one
func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		ThresholdPercentage: DefaultThresholdPercentage,
		MinimumParticipants: DefaultMinimumParticipants,
		VoteType:            VoteTypeSingle,
	}
}

/** -------------------- DTOs -------------------- */

type CreatePlanRequest struct {
	Title        string                  `json:"title" binding:"required"`
	Description  string                  `json:"description"`
	Location     string                  `json:"location"`
	StartsAt     *time.Time              `json:"starts_at"`
	EndsAt       *time.Time              `json:"ends_at"`
	Privacy      Privacy                 `json:"privacy"`
	Consensus    *ConsensusConfigRequest `json:"consensus"`
	Options      []AddOptionRequest      `json:"options"`
	ExpiresAt    *time.Time              `json:"expires_at"`
	RSVPDeadline *time.Time              `json:"rsvp_deadline"`
	StartVoting  bool                    `json:"start_voting"`
}

// ConsensusConfigRequest overrides individual fields of the default config
type ConsensusConfigRequest struct {
	ThresholdPercentage *float64  `json:"threshold_percentage"`
	MinimumParticipants *int      `json:"minimum_participants"`
	AllowAbstention     *bool     `json:"allow_abstention"`
	AllowTies           *bool     `json:"allow_ties"`
	AllowLateOptions    *bool     `json:"allow_late_options"`
	VoteType            *VoteType `json:"vote_type"`
}

// Apply merges the request onto cfg
func (r *ConsensusConfigRequest) Apply(cfg ConsensusConfig) ConsensusConfig {
	if r == nil {
		return cfg
	}
	if r.ThresholdPercentage != nil {
		cfg.ThresholdPercentage = *r.ThresholdPercentage
	}
	if r.MinimumParticipants != nil {
		cfg.MinimumParticipants = *r.MinimumParticipants
	}
	if r.AllowAbstention != nil {
		cfg.AllowAbstention = *r.AllowAbstention
	}
	if r.AllowTies != nil {
		cfg.AllowTies = *r.AllowTies
	}
	if r.AllowLateOptions != nil {
		cfg.AllowLateOptions = *r.AllowLateOptions
	}
	if r.VoteType != nil {
		cfg.VoteType = *r.VoteType
	}
	return cfg
}

type CancelPlanRequest struct {
	Reason string `json:"reason"`
}

// PlanDetail is the read model returned for a single plan
type PlanDetail struct {
	Plan         Plan             `json:"plan"`
	Options      []Option         `json:"options"`
	Participants []Participant    `json:"participants"`
	Consensus    ConsensusOutcome `json:"consensus"`
	RSVP         *RSVPSummary     `json:"rsvp,omitempty"`
}
