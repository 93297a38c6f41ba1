package models

import (
	"time"

	"keepsake/internal/uuid"

	"gorm.io/gorm"
)

// Story is the long-form narrative of an entry. Content is the current text;
// earlier texts live in Versions.
type Story struct {
	Base
	EntryID  string         `gorm:"type:uuid;not null;uniqueIndex" json:"entry_id"`
	Content  string         `gorm:"type:text;not null;default:''" json:"content"`
	Versions []StoryVersion `gorm:"foreignKey:StoryID;constraint:OnDelete:CASCADE" json:"-"`
}

// StoryVersion is an archived story text. Version numbers run 1..N per story
// with no gaps; the current Story.Content is not a version until it is
// replaced.
type StoryVersion struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	StoryID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_story_versions_story_number,priority:1" json:"story_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_story_versions_story_number,priority:2" json:"version_number"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (v *StoryVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite an archived version.
func (v *StoryVersion) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}
