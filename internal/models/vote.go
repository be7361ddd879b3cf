package models

import (
	"time"
)

// VoteType is the closed set of ballot kinds a poll can run
type VoteType string

const (
	VoteTypeSingle    VoteType = "single"
	VoteTypeMultiple  VoteType = "multiple"
	VoteTypeRanked    VoteType = "ranked"
	VoteTypeScored    VoteType = "scored"
	VoteTypeQuadratic VoteType = "quadratic"
	VoteTypeDelegated VoteType = "delegated"
)

func (vt VoteType) String() string {
	return string(vt)
}

// IsValid checks if the VoteType is a known variant
func (vt VoteType) IsValid() bool {
	switch vt {
	case VoteTypeSingle, VoteTypeMultiple, VoteTypeRanked,
		VoteTypeScored, VoteTypeQuadratic, VoteTypeDelegated:
		return true
	default:
		return false
	}
}

// SupportsConsensus reports whether the consensus engine can decide polls of this type.
func (vt VoteType) SupportsConsensus() bool {
	return vt == VoteTypeSingle || vt == VoteTypeMultiple
}

const (
	DefaultVoteWeight = 1.0
	MaxVoteWeight     = 10.0
)

// Vote represents a user's support for one option. Votes are hard-deleted on toggle.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlanID    uint      `gorm:"column:plan_id;not null;uniqueIndex:idx_votes_plan_option_user;index" json:"plan_id"`
	OptionID  uint      `gorm:"column:option_id;not null;uniqueIndex:idx_votes_plan_option_user;index" json:"option_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_votes_plan_option_user" json:"user_id"`
	VoteType  VoteType  `gorm:"column:vote_type;size:16;not null" json:"vote_type"`
	Weight    float64   `gorm:"column:weight;not null" json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// VoteRequest defines the input for casting a vote
type VoteRequest struct {
	VoteType VoteType `json:"vote_type"`
	Weight   *float64 `json:"weight"`
}

// VoteResult describes what a cast did and where the plan ended up
type VoteResult struct {
	Vote              *Vote            `json:"vote,omitempty"`
	Removed           bool             `json:"removed"`
	ClearedOptionIDs  []uint           `json:"cleared_option_ids,omitempty"`
	Outcome           ConsensusOutcome `json:"outcome"`
	Phase             Phase            `json:"phase"`
	FinalizedOptionID *uint            `json:"finalized_option_id,omitempty"`
}

// VoteMessage is the payload of vote events
type VoteMessage struct {
	UserID   uint     `json:"user_id"`
	PlanID   uint     `json:"plan_id"`
	OptionID uint     `json:"option_id"`
	VoteType VoteType `json:"vote_type"`
	Weight   float64  `json:"weight"`
	Removed  bool     `json:"removed"`
}

// NewVoteMessage describes a vote that was just cast or removed
func NewVoteMessage(v *Vote, removed bool) VoteMessage {
	return VoteMessage{
		UserID:   v.UserID,
		PlanID:   v.PlanID,
		OptionID: v.OptionID,
		VoteType: v.VoteType,
		Weight:   v.Weight,
		Removed:  removed,
	}
}

// Payload flattens the message into a plan event payload
func (m VoteMessage) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   m.UserID,
		"plan_id":   m.PlanID,
		"option_id": m.OptionID,
		"vote_type": m.VoteType,
		"weight":    m.Weight,
		"removed":   m.Removed,
	}
}
