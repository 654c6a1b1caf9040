package models

import "time"

// OrganizationSetting persists per-tenant key-value settings with upsert semantics.
type OrganizationSetting struct {
	OrganizationID string    `gorm:"primaryKey;type:uuid" json:"organization_id"`
	Key            string    `gorm:"primaryKey;column:setting_key" json:"key"`
	Value          string    `gorm:"column:setting_value;not null" json:"value"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
