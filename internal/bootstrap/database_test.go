package bootstrap

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tutorlink/internal/models"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/boot.db"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func TestMigrateAndSeedAdmin(t *testing.T) {
	db := openDB(t)

	if err := MigrateAndSeed(db, "admin-1"); err != nil {
		t.Fatalf("MigrateAndSeed: %v", err)
	}
	// Second run is idempotent.
	if err := MigrateAndSeed(db, "admin-1"); err != nil {
		t.Fatalf("second MigrateAndSeed: %v", err)
	}

	var profiles []models.Profile
	if err := db.Find(&profiles).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Role != models.RoleAdmin {
		t.Fatalf("profiles = %+v, want one admin", profiles)
	}
}

func TestMigrateAndSeedPromotesExistingProfile(t *testing.T) {
	db := openDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := db.Create(&models.Profile{ID: "u1", Role: models.RoleStudent}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := MigrateAndSeed(db, "u1"); err != nil {
		t.Fatalf("MigrateAndSeed: %v", err)
	}

	var p models.Profile
	if err := db.First(&p, "id = ?", "u1").Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if p.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", p.Role)
	}
}
