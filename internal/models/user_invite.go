package models

import "time"

// UserInvite represents a time-limited, single-use invitation that converts
// into a User upon acceptance. Only a hash of the token is stored.
type UserInvite struct {
	BaseModel

	OrganizationID string        `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `json:"organization,omitempty"`

	Email     string `gorm:"not null;index" json:"email"`
	Role      string `gorm:"not null;default:user" json:"role"`
	TokenHash string `gorm:"not null;uniqueIndex" json:"-"`
	InvitedBy string `gorm:"type:uuid" json:"invited_by"`

	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
}

// Pending reports whether the invite is still consumable at the given time.
// Expired invites are never purged; they are filtered out by this check.
func (i *UserInvite) Pending(now time.Time) bool {
	return i.AcceptedAt == nil && i.ExpiresAt.After(now)
}
