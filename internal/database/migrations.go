package database

import (
	"gorm.io/gorm"

	"github.com/mailforge/mailforge/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&models.OrganizationSetting{},
		&models.User{},
		&models.UserInvite{},
		&models.Contact{},
		&models.Campaign{},
		&models.AuditLog{},
	)
}

// SeedData provisions a default organization so a fresh install is usable.
// Existing rows are left untouched.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Organization{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	org := models.Organization{
		Name:         "Default Organization",
		Plan:         models.PlanFree,
		ContactLimit: 1000,
		EmailLimit:   10000,
	}
	return db.Create(&org).Error
}
