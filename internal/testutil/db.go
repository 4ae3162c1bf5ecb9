// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"github.com/vivahsetu/vivahsetu-backend/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory SQLite database.
// A single connection keeps every query on the same in-memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migration.Run(db, true); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// SeedProfiles inserts minimal profiles for ids
func SeedProfiles(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		p := &domain.Profile{ID: id, DisplayName: "User " + id, DeviceToken: "device-" + id}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("seed profile %s: %v", id, err)
		}
	}
}
