package models

import "time"

// Campaign lifecycle statuses. The send pipeline itself lives outside this
// service; the table backs per-organization counts and usage reporting.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSent      = "sent"
)

// Campaign is an email campaign owned by an organization.
type Campaign struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;index" json:"organization_id"`
	CreatedBy      string `gorm:"type:uuid;index" json:"created_by"`

	Name    string `gorm:"not null" json:"name"`
	Subject string `json:"subject"`
	Status  string `gorm:"not null;default:draft;index" json:"status"`

	EmailsSent int        `gorm:"not null;default:0" json:"emails_sent"`
	SentAt     *time.Time `gorm:"index" json:"sent_at"`
}
