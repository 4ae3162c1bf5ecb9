package migration

import (
	"github.com/vivahsetu/vivahsetu-backend/internal/domain"
	"gorm.io/gorm"
)

// ChatModels are the tables owned by the chat subsystem
func ChatModels() []interface{} {
	return []interface{}{
		&domain.Message{},
		&domain.Attachment{},
		&domain.MessageDeletion{},
		&domain.UserBlock{},
	}
}

// Run executes AutoMigrate for the chat tables.
// withProfiles also creates the profiles table, which production reads from the profile service's schema.
func Run(db *gorm.DB, withProfiles bool) error {
	models := ChatModels()
	if withProfiles {
		models = append(models, &domain.Profile{})
	}
	return db.AutoMigrate(models...)
}

// SeedProfiles inserts demo profiles when the table is empty (local environments only)
func SeedProfiles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.Profile{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	profiles := []domain.Profile{
		{ID: "u1", DisplayName: "Asha Verma"},
		{ID: "u2", DisplayName: "Rohan Iyer"},
		{ID: "u3", DisplayName: "Meera Nair"},
	}
	return db.Create(&profiles).Error
}
