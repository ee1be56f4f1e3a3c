package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"tutorlink/internal/models"
)

// MigrateAndSeed ensures required tables exist and seeds the admin profile when adminID is set.
func MigrateAndSeed(db *gorm.DB, adminID string) error {
	if err := Migrate(db); err != nil {
		return err
	}
	if err := seedDefaults(db, adminID); err != nil {
		return fmt.Errorf("seed defaults failed: %w", err)
	}
	return nil
}

// Migrate only runs the schema migration.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		// Marketplace
		&models.Profile{},
		&models.TutorProfile{},
		&models.TutoringRequest{},
		&models.TutorApplication{},
		// Payments
		&models.Booking{},
		&models.PaymentEvent{},
	}
}

func seedDefaults(db *gorm.DB, adminID string) error {
	if adminID == "" {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return ensureAdminProfile(tx, adminID)
	})
}

func ensureAdminProfile(tx *gorm.DB, adminID string) error {
	var count int64
	if err := tx.Model(&models.Profile{}).Where("id = ?", adminID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return tx.Model(&models.Profile{}).Where("id = ?", adminID).Update("role", models.RoleAdmin).Error
	}

	row := models.Profile{
		ID:   adminID,
		Role: models.RoleAdmin,
	}
	return tx.Create(&row).Error
}
