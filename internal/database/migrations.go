package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/softstore/internal/models"
)

// DefaultTags are created on first start. A seeded tag that was later soft-deleted is
// left deleted, since its row still exists.
var DefaultTags = []models.Tag{
	{Name: "general", Description: "Uncategorised items", Color: "#9e9e9e"},
	{Name: "important", Description: "Needs attention", Color: "#e53935"},
	{Name: "archive", Description: "Kept for reference", Color: "#546e7a"},
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tag{},
	)
}

// SeedData populates the default tags.
func SeedData(db *gorm.DB) error {
	for _, tag := range DefaultTags {
		if err := db.Where(models.Tag{Name: tag.Name}).Attrs(tag).FirstOrCreate(&models.Tag{}).Error; err != nil {
			return err
		}
	}
	return nil
}
