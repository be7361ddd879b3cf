package models

import (
	"time"
)

// ParticipantRole is the standing of a user within a plan
type ParticipantRole string

const (
	RoleCreator ParticipantRole = "creator"
	RoleCoHost  ParticipantRole = "co_host"
	RoleMember  ParticipantRole = "member"
)

func (r ParticipantRole) IsValid() bool {
	return r == RoleCreator || r == RoleCoHost || r == RoleMember
}

// JoinSource records how a participant row came to exist
type JoinSource string

const (
	JoinedAsCreator JoinSource = "creator"
	JoinedByInvite  JoinSource = "invite"
	JoinedByVote    JoinSource = "vote"
	JoinedByRSVP    JoinSource = "rsvp"
	JoinedDirectly  JoinSource = "join"
)

// Participant links a user to a plan. Unique per (plan, user).
type Participant struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PlanID      uint            `gorm:"column:plan_id;not null;uniqueIndex:idx_participants_plan_user" json:"plan_id"`
	UserID      uint            `gorm:"column:user_id;not null;uniqueIndex:idx_participants_plan_user;index" json:"user_id"`
	Role        ParticipantRole `gorm:"column:role;size:16;not null" json:"role"`
	IsMandatory bool            `gorm:"column:is_mandatory;not null" json:"is_mandatory"`
	IsCoHost    bool            `gorm:"column:is_co_host;not null" json:"is_co_host"`
	CanEdit     bool            `gorm:"column:can_edit;not null" json:"can_edit"`
	JoinedVia   JoinSource      `gorm:"column:joined_via;size:16" json:"joined_via"`
}

// TableName specifies the table name for Participant
func (Participant) TableName() string {
	return "participants"
}

// CanManage reports whether the participant may run host-only operations
func (p *Participant) CanManage() bool {
	return p.Role == RoleCreator || p.IsCoHost
}

// CanPropose reports whether the participant may add options
func (p *Participant) CanPropose() bool {
	return p.CanManage() || p.CanEdit
}

/** -------------------- DTOs -------------------- */

type InviteRequest struct {
	UserID      uint `json:"user_id" binding:"required"`
	IsMandatory bool `json:"is_mandatory"`
	IsCoHost    bool `json:"is_co_host"`
	CanEdit     bool `json:"can_edit"`
}

type UpdateParticipantRequest struct {
	IsMandatory *bool `json:"is_mandatory"`
	IsCoHost    *bool `json:"is_co_host"`
	CanEdit     *bool `json:"can_edit"`
}
