package models

import (
	"strconv"
	"time"
)

// EventType names a notification emitted after a committed change
type EventType string

const (
	EventVoteCast         EventType = "vote.cast"
	EventVoteRemoved      EventType = "vote.removed"
	EventConsensusReached EventType = "consensus.reached"
	EventPlanFinalized    EventType = "plan.finalized"
	EventVotingOpened     EventType = "plan.voting_opened"
	EventOptionAdded      EventType = "option.added"
	EventOptionRemoved    EventType = "option.removed"
	EventParticipantJoin  EventType = "participant.joined"
	EventRSVPUpdated      EventType = "rsvp.updated"
	EventRSVPComplete     EventType = "rsvp.complete"
	EventPlanConfirmed    EventType = "plan.confirmed"
	EventPlanCancelled    EventType = "plan.cancelled"
)

func (et EventType) String() string {
	return string(et)
}

// PlanEvent is the tuple handed to notification dispatchers
type PlanEvent struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	PlanID     uint                   `json:"plan_id"`
	UserID     uint                   `json:"user_id"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// PlanChannel is the pub/sub channel carrying a plan's events
func PlanChannel(planID uint) string {
	return "plan:" + strconv.FormatUint(uint64(planID), 10) + ":events"
}

// PlanChannelPattern matches every plan channel
const PlanChannelPattern = "plan:*:events"
