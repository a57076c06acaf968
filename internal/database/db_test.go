package database

import (
	"testing"

	"gorm.io/gorm"

	"github.com/charlesng35/softstore/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestAutoMigrateAndSeedData(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var tagCount int64
	if err := db.Model(&models.Tag{}).Count(&tagCount).Error; err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if tagCount != int64(len(DefaultTags)) {
		t.Fatalf("expected %d seeded tags, got %d", len(DefaultTags), tagCount)
	}
}

func TestSeedDataLeavesSoftDeletedTagsDeleted(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	if err := db.Model(&models.Tag{}).Where("name = ?", "archive").Update("deleted", true).Error; err != nil {
		t.Fatalf("flag tag: %v", err)
	}

	if err := SeedData(db); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var archived models.Tag
	if err := db.Where("name = ?", "archive").First(&archived).Error; err != nil {
		t.Fatalf("load tag: %v", err)
	}
	if !archived.Deleted {
		t.Fatal("expected reseeding to keep the tag deleted")
	}

	var total int64
	if err := db.Model(&models.Tag{}).Count(&total).Error; err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if total != int64(len(DefaultTags)) {
		t.Fatalf("expected reseeding not to duplicate rows, got %d", total)
	}
}

func TestCloseNilHandle(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("expected nil handle to close cleanly: %v", err)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite", DSN: "file:" + t.Name() + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	t.Cleanup(func() {
		_ = Close(db)
	})

	return db
}
