package entity

import (
	"time"

	"gorm.io/datatypes"
)

type SupportTicket struct {
	Base
	UserID      string                      `gorm:"type:varchar(64);not null;index" json:"userId" validate:"required"`
	Subject     string                      `gorm:"not null" json:"subject" validate:"required"`
	Description string                      `gorm:"not null" json:"description" validate:"required"`
	Category    TicketCategory              `gorm:"type:varchar(16)" json:"category,omitempty" validate:"omitempty,oneof=TECHNICAL BILLING ACCOUNT FEATURE_REQUEST OTHER"`
	Priority    TicketPriority              `gorm:"type:varchar(8)" json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      TicketStatus                `gorm:"type:varchar(16)" json:"status,omitempty" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Attachments datatypes.JSONSlice[string] `json:"attachments,omitempty"`
	AdminNotes  string                      `json:"adminNotes,omitempty"`
	ResolvedAt  *time.Time                  `json:"resolvedAt,omitempty"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

// FAQ entries are read-only through the API and provisioned by the admin CLI.
type FAQ struct {
	Base
	Question    string                      `gorm:"not null" json:"question" yaml:"question" validate:"required"`
	Answer      string                      `gorm:"not null" json:"answer" yaml:"answer" validate:"required"`
	Category    string                      `json:"category,omitempty" yaml:"category"`
	Tags        datatypes.JSONSlice[string] `json:"tags,omitempty" yaml:"tags"`
	IsPublished *bool                       `gorm:"default:true" json:"isPublished" yaml:"isPublished"`
	Order       *int                        `gorm:"column:sort_order;default:0" json:"order" yaml:"order"`
}

func (FAQ) TableName() string {
	return "faqs"
}
