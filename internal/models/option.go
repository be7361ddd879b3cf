package models

import (
	"time"

	"gorm.io/gorm"
)

// Option is one concrete proposal (time/place/price) for a plan
type Option struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	PlanID      uint           `gorm:"column:plan_id;not null;index" json:"plan_id"`
	Title       string         `gorm:"column:title;size:255;not null" json:"title"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Location    string         `gorm:"column:location;size:255" json:"location"`
	StartTime   *time.Time     `gorm:"column:start_time" json:"start_time,omitempty"`
	EndTime     *time.Time     `gorm:"column:end_time" json:"end_time,omitempty"`
	Price       float64        `gorm:"column:price" json:"price"`
	Ordinal     int            `gorm:"column:ordinal;not null" json:"ordinal"`
	ProposedBy  uint           `gorm:"column:proposed_by" json:"proposed_by"`
}

// TableName specifies the table name for Option
func (Option) TableName() string {
	return "options"
}

// AddOptionRequest defines the input for proposing an option
type AddOptionRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Price       float64    `json:"price"`
}
