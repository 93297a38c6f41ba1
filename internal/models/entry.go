package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"keepsake/internal/importance"
)

// EntryKind discriminates possessions from people. It is fixed at creation.
type EntryKind string

const (
	EntryKindItem   EntryKind = "item"
	EntryKindPerson EntryKind = "person"
)

// AcquisitionMethod records how an item came into the owner's hands.
type AcquisitionMethod string

const (
	AcquisitionPurchase    AcquisitionMethod = "purchase"
	AcquisitionGift        AcquisitionMethod = "gift"
	AcquisitionInheritance AcquisitionMethod = "inheritance"
	AcquisitionFound       AcquisitionMethod = "found"
	AcquisitionMade        AcquisitionMethod = "made"
	AcquisitionOther       AcquisitionMethod = "other"
)

// Condition is the physical state of an item.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// Relationship describes how the owner knows a person.
type Relationship string

const (
	RelationshipFamily       Relationship = "family"
	RelationshipFriend       Relationship = "friend"
	RelationshipColleague    Relationship = "colleague"
	RelationshipMentor       Relationship = "mentor"
	RelationshipPartner      Relationship = "partner"
	RelationshipAcquaintance Relationship = "acquaintance"
	RelationshipOther        Relationship = "other"
)

// Entry is a tracked possession or person owned by exactly one user.
//
// Item and person attributes share one table; the nullable columns of the
// other kind are always empty. Code outside this package reads and writes
// them through the EntryPayload variants rather than field by field.
type Entry struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;index:idx_entries_user_kind,priority:1" json:"user_id"`
	Kind        EntryKind `gorm:"size:10;not null;index:idx_entries_user_kind,priority:2" json:"kind"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`

	StoryContent      string     `gorm:"type:text" json:"story_content"`
	StoryLastModified *time.Time `json:"story_last_modified"`
	// HasStory mirrors StoryPresent(StoryContent) so filters and counts agree
	// with the rendered flag.
	HasStory bool `gorm:"not null;default:false;index" json:"has_story"`

	// Item attributes
	AcquisitionDate   *time.Time          `gorm:"type:date" json:"acquisition_date,omitempty"`
	AcquisitionMethod *AcquisitionMethod  `gorm:"size:20" json:"acquisition_method,omitempty"`
	OriginalPrice     decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"original_price"`
	Currency          string              `gorm:"size:3;not null;default:CNY" json:"currency"`
	Category          string              `gorm:"size:100;index" json:"category,omitempty"`
	Condition         *Condition          `gorm:"size:20" json:"condition,omitempty"`

	// Person attributes
	Relationship *Relationship     `gorm:"size:20" json:"relationship,omitempty"`
	MeetingDate  *time.Time        `gorm:"type:date" json:"meeting_date,omitempty"`
	ContactInfo  datatypes.JSONMap `json:"contact_info,omitempty"`

	// Importance inputs, each in [1,10]
	ImportanceScore         int        `gorm:"not null;default:5" json:"importance_score"`
	EmotionalValue          int        `gorm:"not null;default:5" json:"emotional_value"`
	PracticalValue          int        `gorm:"not null;default:5" json:"practical_value"`
	FrequencyOfUse          int        `gorm:"not null;default:5" json:"frequency_of_use"`
	DurationOwned           int        `gorm:"not null;default:5" json:"duration_owned"`
	ImportanceLastEvaluated *time.Time `json:"importance_last_evaluated"`

	// Presentation
	Theme       string                      `gorm:"size:50;not null;default:default" json:"theme"`
	Layout      string                      `gorm:"size:50;not null;default:default" json:"layout"`
	Decorations datatypes.JSON              `json:"decorations,omitempty"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	IsPrivate   bool                        `gorm:"not null;default:false" json:"is_private"`

	// Derived on read, never persisted
	CalculatedImportance float64 `gorm:"-" json:"calculated_importance"`
	AgeInDays            int     `gorm:"-" json:"age_in_days"`

	Media []EntryMedia `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

// Scores returns the entry's importance inputs.
func (e *Entry) Scores() importance.Scores {
	return importance.Scores{
		Overall:   e.ImportanceScore,
		Emotional: e.EmotionalValue,
		Practical: e.PracticalValue,
		Frequency: e.FrequencyOfUse,
		Duration:  e.DurationOwned,
	}
}

// SetScores writes all five importance inputs.
func (e *Entry) SetScores(s importance.Scores) {
	e.ImportanceScore = s.Overall
	e.EmotionalValue = s.Emotional
	e.PracticalValue = s.Practical
	e.FrequencyOfUse = s.Frequency
	e.DurationOwned = s.Duration
}

// StoryPresent reports whether story content has anything besides whitespace.
func StoryPresent(content string) bool {
	return strings.TrimSpace(content) != ""
}

// Refresh recomputes the derived fields as of now.
func (e *Entry) Refresh(now time.Time) {
	e.CalculatedImportance = e.Scores().Composite()
	e.HasStory = StoryPresent(e.StoryContent)
	e.AgeInDays = DaysBetween(e.ageAnchor(), now)
}

// ageAnchor picks the date the entry's age counts from.
func (e *Entry) ageAnchor() time.Time {
	switch {
	case e.AcquisitionDate != nil:
		return *e.AcquisitionDate
	case e.MeetingDate != nil:
		return *e.MeetingDate
	default:
		return e.CreatedAt
	}
}

// AfterFind fills the derived fields on every load.
func (e *Entry) AfterFind(tx *gorm.DB) error {
	e.Refresh(time.Now())
	return nil
}

// BeforeSave stores has_story from the content being written.
func (e *Entry) BeforeSave(tx *gorm.DB) error {
	e.HasStory = StoryPresent(e.StoryContent)
	return nil
}

// AfterSave keeps derived fields current on the instance that was written.
func (e *Entry) AfterSave(tx *gorm.DB) error {
	e.Refresh(time.Now())
	return nil
}

// DaysBetween counts calendar days from one date to another, ignoring the
// time of day.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
