package models

import (
	"time"
)

// RSVPStatus is an attendance answer
type RSVPStatus string

const (
	RSVPPending RSVPStatus = "pending"
	RSVPYes     RSVPStatus = "yes"
	RSVPNo      RSVPStatus = "no"
	RSVPMaybe   RSVPStatus = "maybe"
)

func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPPending, RSVPYes, RSVPNo, RSVPMaybe:
		return true
	default:
		return false
	}
}

// IsResponse reports whether the status is an actual answer rather than the placeholder
func (s RSVPStatus) IsResponse() bool {
	return s == RSVPYes || s == RSVPNo || s == RSVPMaybe
}

// RSVP is a participant's attendance answer for the finalized option
type RSVP struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PlanID      uint       `gorm:"column:plan_id;not null;uniqueIndex:idx_rsvps_plan_user" json:"plan_id"`
	UserID      uint       `gorm:"column:user_id;not null;uniqueIndex:idx_rsvps_plan_user" json:"user_id"`
	Status      RSVPStatus `gorm:"column:status;size:16;not null;index" json:"status"`
	RespondedAt *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
}

// TableName specifies the table name for RSVP
func (RSVP) TableName() string {
	return "rsvps"
}

type RSVPRequest struct {
	Status RSVPStatus `json:"status" binding:"required"`
}

// RSVPSummary aggregates the answers of a plan
type RSVPSummary struct {
	Yes       int  `json:"yes"`
	No        int  `json:"no"`
	Maybe     int  `json:"maybe"`
	Pending   int  `json:"pending"`
	Complete  bool `json:"complete"`
	Attendees int  `json:"attendees"`
}
