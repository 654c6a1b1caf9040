package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/internal/services"
)

func openCleanupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Organization{}, &models.User{}, &models.UserInvite{}, &models.AuditLog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestCleanerRunOncePrunesOldLogs(t *testing.T) {
	db := openCleanupTestDB(t)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	org := models.Organization{Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)

	stale := models.AuditLog{
		OrganizationID: org.ID,
		Action:         "user.login",
		CreatedAt:      time.Now().AddDate(0, 0, -100),
	}
	fresh := models.AuditLog{
		OrganizationID: org.ID,
		Action:         "user.login",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	cleaner := NewCleaner(audit, 90)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCleanerDisabledWithoutRetention(t *testing.T) {
	db := openCleanupTestDB(t)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	org := models.Organization{Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)

	old := models.AuditLog{
		OrganizationID: org.ID,
		Action:         "user.login",
		CreatedAt:      time.Now().AddDate(-1, 0, 0),
	}
	require.NoError(t, db.Create(&old).Error)

	cleaner := NewCleaner(audit, 0)
	require.NoError(t, cleaner.Start())
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCleanerLeavesExpiredInvites(t *testing.T) {
	db := openCleanupTestDB(t)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	org := models.Organization{Name: "Acme"}
	require.NoError(t, db.Create(&org).Error)

	invite := models.UserInvite{
		OrganizationID: org.ID,
		Email:          "expired@example.com",
		Role:           models.RoleUser,
		TokenHash:      "stale-hash",
		ExpiresAt:      time.Now().AddDate(0, -6, 0),
	}
	require.NoError(t, db.Create(&invite).Error)

	cleaner := NewCleaner(audit, 30)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.UserInvite{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
