package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a state-changing action. Exactly one
// entry is written in the same transaction as the mutation it describes.
type AuditLog struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	OrganizationID string  `gorm:"type:uuid;not null;index" json:"organization_id"`
	UserID         *string `gorm:"type:uuid;index" json:"user_id"`
	User           *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Action       string         `gorm:"not null;index" json:"action"`
	ResourceType string         `gorm:"index" json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	OldValues    datatypes.JSON `json:"old_values"`
	NewValues    datatypes.JSON `json:"new_values"`
	IPAddress    string         `json:"ip_address"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
