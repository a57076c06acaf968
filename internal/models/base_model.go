package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared fields for soft-deletable persistent models.
// Deleted rows stay in storage and keep occupying their primary key and unique indexes.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Deleted   bool      `gorm:"not null;default:false;index" json:"deleted"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID identifiers are generated automatically.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// PrimaryKey returns the record identifier.
func (m *BaseModel) PrimaryKey() string { return m.ID }

// SetPrimaryKey overrides the record identifier.
func (m *BaseModel) SetPrimaryKey(id string) { m.ID = id }

// IsDeleted reports whether the record is flagged as deleted.
func (m *BaseModel) IsDeleted() bool { return m.Deleted }

// SetDeleted sets the deletion flag in memory only.
func (m *BaseModel) SetDeleted(deleted bool) { m.Deleted = deleted }
