package models

import (
	"time"

	"keepsake/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for mutable tables. Rows are hard-deleted:
// removing an entry cascades to everything it owns.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Entry{},
		&EntryMedia{},
		&Story{},
		&StoryVersion{},
		&ValuationRecord{},
		&DepreciationRule{},
		&AuditLog{},
	}
}
