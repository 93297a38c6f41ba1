package models

import (
	"time"

	"keepsake/internal/uuid"

	"gorm.io/gorm"
)

// MediaType distinguishes pictures from clips.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// EntryMedia is a file attached to an entry. The blob itself lives in the
// configured storage backend under StorageKey.
type EntryMedia struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID     string    `gorm:"type:uuid;not null;index" json:"entry_id"`
	Type        MediaType `gorm:"size:10;not null;default:image" json:"type"`
	StorageKey  string    `gorm:"not null" json:"-"`
	ContentType string    `gorm:"size:100;not null" json:"content_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	Caption     string    `gorm:"size:200" json:"caption"`
	IsPrimary   bool      `gorm:"not null;default:false" json:"is_primary"`
	CreatedAt   time.Time `json:"created_at"`

	// URL is resolved from the storage backend when the media is returned.
	URL string `gorm:"-" json:"url"`
}

// TableName pins the table name used by the SQL migrations.
func (EntryMedia) TableName() string { return "entry_media" }

// BeforeCreate hook generates a UUIDv7 for new records
func (m *EntryMedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New()
	}
	return nil
}
