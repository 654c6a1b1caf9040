package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
	"github.com/mailforge/mailforge/pkg/crypto"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationSetting{},
		&models.User{},
		&models.UserInvite{},
		&models.AuditLog{},
		&models.Contact{},
		&models.Campaign{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func newTestAuditService(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()

	audit, err := NewAuditService(db)
	require.NoError(t, err)
	return audit
}

func seedOrganization(t *testing.T, db *gorm.DB, name string) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Name:         name,
		Plan:         models.PlanFree,
		ContactLimit: 1000,
		EmailLimit:   10000,
	}
	require.NoError(t, db.Create(org).Error)
	return org
}

func seedUser(t *testing.T, db *gorm.DB, orgID, email, role, password string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword(password, 4)
	require.NoError(t, err)

	user := &models.User{
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Status:         models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
