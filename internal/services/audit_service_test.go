package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailforge/internal/models"
)

func TestAuditServiceRecordAndList(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newTestAuditService(t, db)

	org := seedOrganization(t, db, "Acme")
	user := seedUser(t, db, org.ID, "actor@example.com", models.RoleAdmin, "Password123!")

	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		OrganizationID: org.ID,
		UserID:         &user.ID,
		Action:         "organization.updated",
		ResourceType:   "organization",
		ResourceID:     org.ID,
		OldValues:      map[string]any{"name": "Old"},
		NewValues:      map[string]any{"name": "Acme"},
		IPAddress:      "10.0.0.1",
	}))

	logs, total, err := svc.List(context.Background(), org.ID, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	require.Equal(t, "organization.updated", logs[0].Action)
	require.NotNil(t, logs[0].User)
	require.Equal(t, user.Email, logs[0].User.Email)
	require.JSONEq(t, `{"name":"Acme"}`, string(logs[0].NewValues))
}

func TestAuditServiceRequiresActionAndOrg(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newTestAuditService(t, db)

	err := svc.Log(context.Background(), AuditEntry{OrganizationID: "org-1"})
	require.Error(t, err)

	err = svc.Log(context.Background(), AuditEntry{Action: "user.login"})
	require.Error(t, err)
}

func TestAuditServiceListScopedToOrganization(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newTestAuditService(t, db)

	orgA := seedOrganization(t, db, "Org A")
	orgB := seedOrganization(t, db, "Org B")

	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		OrganizationID: orgA.ID, Action: "contact.created",
	}))
	require.NoError(t, svc.Log(context.Background(), AuditEntry{
		OrganizationID: orgB.ID, Action: "contact.deleted",
	}))

	logs, total, err := svc.List(context.Background(), orgA.ID, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "contact.created", logs[0].Action)
}

func TestAuditServiceListPaginates(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newTestAuditService(t, db)

	org := seedOrganization(t, db, "Paged")

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		log := models.AuditLog{
			OrganizationID: org.ID,
			Action:         fmt.Sprintf("action.%03d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&log).Error)
	}

	logs, total, err := svc.List(context.Background(), org.ID, AuditListOptions{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 120, total)
	require.Len(t, logs, 50)
	// Newest first.
	require.Equal(t, "action.119", logs[0].Action)

	logs, _, err = svc.List(context.Background(), org.ID, AuditListOptions{Page: 3, Limit: 50})
	require.NoError(t, err)
	require.Len(t, logs, 20)
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := openServiceTestDB(t)
	svc := newTestAuditService(t, db)

	org := seedOrganization(t, db, "Retention")

	old := models.AuditLog{
		OrganizationID: org.ID,
		Action:         "user.login",
		CreatedAt:      time.Now().AddDate(0, 0, -120),
	}
	recent := models.AuditLog{
		OrganizationID: org.ID,
		Action:         "user.login",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	removed, err := svc.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, total, err := svc.List(context.Background(), org.ID, AuditListOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
