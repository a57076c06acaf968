package models

import "gorm.io/datatypes"

// Tag is a catalogue label. Names are unique in storage, including soft-deleted rows.
// The unique index compares exact spelling, so "Foo" and "foo" are distinct tags even
// when lookups ignore case.
type Tag struct {
	BaseModel

	Name        string            `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Description string            `gorm:"size:512" json:"description"`
	Color       string            `gorm:"size:16" json:"color,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

// NaturalKey identifies the unique column a freshly keyed tag collides on.
func (t *Tag) NaturalKey() map[string]any {
	if t.Name == "" {
		return nil
	}
	return map[string]any{"name": t.Name}
}
