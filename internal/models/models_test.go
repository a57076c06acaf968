package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseModelBeforeCreateGeneratesID(t *testing.T) {
	var base BaseModel
	if err := base.BeforeCreate(nil); err != nil {
		t.Fatalf("before create: %v", err)
	}
	if base.ID == "" {
		t.Fatal("expected base model ID to be generated")
	}
}

func TestBaseModelBeforeCreateKeepsExplicitID(t *testing.T) {
	base := BaseModel{ID: "fixed"}
	require.NoError(t, base.BeforeCreate(nil))
	require.Equal(t, "fixed", base.ID)
}

func TestTagExposesRecordAccessors(t *testing.T) {
	tag := &Tag{Name: "golang"}
	tag.SetPrimaryKey("tag-1")
	tag.SetDeleted(true)

	require.Equal(t, "tag-1", tag.PrimaryKey())
	require.True(t, tag.IsDeleted())
	require.Equal(t, map[string]any{"name": "golang"}, tag.NaturalKey())

	tag.SetDeleted(false)
	require.False(t, tag.IsDeleted())
}

func TestTagNaturalKeyEmptyWithoutName(t *testing.T) {
	require.Nil(t, (&Tag{}).NaturalKey())
}
