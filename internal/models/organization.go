package models

// Subscription plans available to organizations.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Organization is the tenant boundary; every other entity is scoped to one.
type Organization struct {
	BaseModel

	Name         string `gorm:"not null" json:"name"`
	Plan         string `gorm:"not null;default:free" json:"plan"`
	ContactLimit int    `gorm:"not null;default:1000" json:"contact_limit"`
	EmailLimit   int    `gorm:"not null;default:10000" json:"email_limit"`

	Users     []User     `gorm:"foreignKey:OrganizationID" json:"users,omitempty"`
	Contacts  []Contact  `gorm:"foreignKey:OrganizationID" json:"contacts,omitempty"`
	Campaigns []Campaign `gorm:"foreignKey:OrganizationID" json:"campaigns,omitempty"`
}

// ValidPlan reports whether the supplied plan is a known subscription tier.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanStarter, PlanPro:
		return true
	}
	return false
}
