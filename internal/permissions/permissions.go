package permissions

import (
	"fmt"
	"sort"

	"github.com/mailforge/mailforge/internal/models"
)

// Capability identifiers checked by route middleware. The set is closed:
// unknown ids are programming errors surfaced by Checker.Check.
const (
	ManageOrganization = "manage_organization"
	ManageUsers        = "manage_users"
	ViewAnalytics      = "view_analytics"
	ViewAuditLogs      = "view_audit_logs"
	ViewContacts       = "view_contacts"
	ManageContacts     = "manage_contacts"
	ViewCampaigns      = "view_campaigns"
	ManageCampaigns    = "manage_campaigns"
)

var all = map[string]struct{}{
	ManageOrganization: {},
	ManageUsers:        {},
	ViewAnalytics:      {},
	ViewAuditLogs:      {},
	ViewContacts:       {},
	ManageContacts:     {},
	ViewCampaigns:      {},
	ManageCampaigns:    {},
}

// rolePermissions is the closed role→capability lookup table. Permission sets
// are derived from the role alone; there is no per-user grant storage.
var rolePermissions = map[string][]string{
	models.RoleAdmin: {
		ManageOrganization,
		ManageUsers,
		ViewAnalytics,
		ViewAuditLogs,
		ViewContacts,
		ManageContacts,
		ViewCampaigns,
		ManageCampaigns,
	},
	models.RoleManager: {
		ViewAnalytics,
		ViewContacts,
		ManageContacts,
		ViewCampaigns,
		ManageCampaigns,
	},
	models.RoleUser: {
		ViewContacts,
		ViewCampaigns,
	},
}

// Known reports whether the permission id belongs to the closed capability set.
func Known(permissionID string) bool {
	_, ok := all[permissionID]
	return ok
}

// ForRole returns the sorted permission ids granted to the supplied role.
// Unknown roles receive no permissions.
func ForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}

	out := append([]string(nil), perms...)
	sort.Strings(out)
	return out
}

// Checker evaluates role permissions against the capability table.
type Checker struct{}

// NewChecker constructs a permission checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check determines whether the role grants the specified permission. An
// unknown permission id is an error so typos fail loudly rather than deny
// silently.
func (c *Checker) Check(role, permissionID string) (bool, error) {
	if !Known(permissionID) {
		return false, fmt.Errorf("permissions: unknown permission %q", permissionID)
	}

	for _, granted := range rolePermissions[role] {
		if granted == permissionID {
			return true, nil
		}
	}
	return false, nil
}
