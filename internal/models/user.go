package models

import "time"

// Roles assignable to users. The permission set for each role lives in the
// permissions package.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// User account statuses. Users are deactivated, never hard-deleted.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User describes a member of an organization.
type User struct {
	BaseModel

	OrganizationID string        `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `json:"organization,omitempty"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`

	Role   string `gorm:"not null;default:user" json:"role"`
	Status string `gorm:"not null;default:active;index" json:"status"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// IsActive reports whether the user may authenticate.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// ValidRole reports whether the supplied role belongs to the closed role enum.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}
