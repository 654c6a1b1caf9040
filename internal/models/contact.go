package models

// Contact subscription statuses.
const (
	ContactStatusSubscribed   = "subscribed"
	ContactStatusUnsubscribed = "unsubscribed"
)

// Contact is an email recipient belonging to an organization's audience.
type Contact struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;uniqueIndex:idx_contacts_org_email" json:"organization_id"`
	Email          string `gorm:"not null;uniqueIndex:idx_contacts_org_email" json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Status         string `gorm:"not null;default:subscribed;index" json:"status"`
}
