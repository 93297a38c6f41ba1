package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"keepsake/internal/importance"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/valuation"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, displayName, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdatePreferences(userID string, in PreferencesInput) (*models.User, error)
}

// PreferencesInput holds the profile fields a user may change; nil leaves a
// field untouched.
type PreferencesInput struct {
	DisplayName     *string
	Theme           *models.Theme
	DefaultCurrency *string
}

// ItemPatch carries item attributes for create or update; nil leaves a
// field untouched.
type ItemPatch struct {
	AcquisitionDate   *time.Time
	AcquisitionMethod *models.AcquisitionMethod
	OriginalPrice     *decimal.Decimal
	Currency          *string
	Category          *string
	Condition         *models.Condition
}

// PersonPatch carries person attributes for create or update.
type PersonPatch struct {
	Relationship *models.Relationship
	MeetingDate  *time.Time
	ContactInfo  map[string]interface{}
}

// EntryInput is the writable surface of an entry. At most one of Item and
// Person may be set, and it must match the entry's kind.
type EntryInput struct {
	Title        *string
	Description  *string
	StoryContent *string
	Scores       importance.Patch
	Theme        *string
	Layout       *string
	Decorations  json.RawMessage
	Tags         *[]string
	IsPrivate    *bool
	Item         *ItemPatch
	Person       *PersonPatch
}

// EntryFilter holds optional filter parameters for listing entries.
type EntryFilter struct {
	Kind          *models.EntryKind
	Category      *string
	Condition     *models.Condition
	Relationship  *models.Relationship
	IsPrivate     *bool
	MinImportance *int
	Tags          []string
	HasStory      *bool
	Search        string
	AcquiredFrom  *time.Time
	AcquiredTo    *time.Time
	MetFrom       *time.Time
	MetTo         *time.Time
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Sort          pagination.Sort
}

// TagCount is one row of the tag leaderboard.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// EntryStatistics summarizes a user's catalog.
type EntryStatistics struct {
	TotalEntries           int64            `json:"total_entries"`
	TotalItems             int64            `json:"total_items"`
	TotalPeople            int64            `json:"total_people"`
	WithStory              int64            `json:"entries_with_story"`
	WithoutStory           int64            `json:"entries_without_story"`
	ImportanceDistribution map[string]int64 `json:"importance_distribution"`
	Categories             []string         `json:"categories"`
	Relationships          []string         `json:"relationships"`
	TopTags                []TagCount       `json:"top_tags"`
}

// EntryServicer defines the contract for entry-related business logic.
type EntryServicer interface {
	CreateEntry(userID string, kind models.EntryKind, in EntryInput) (*models.Entry, error)
	GetEntryByID(userID, entryID string) (*models.Entry, error)
	UpdateEntry(userID, entryID string, in EntryInput) (*models.Entry, error)
	UpdateStoryContent(userID, entryID, content string) (*models.Entry, error)
	DeleteEntry(userID, entryID string) error
	GetUserEntries(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Entry], error)
	GetEntriesByImportance(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error)
	GetRecentEntries(userID string) ([]models.Entry, error)
	GetStatistics(userID string) (*EntryStatistics, error)
}

// StoryServicer defines the contract for the versioned story of an entry.
type StoryServicer interface {
	GetStory(userID, entryID string) (*models.Story, error)
	UpdateStory(userID, entryID, content string) (*models.Story, error)
	ListVersions(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.StoryVersion], error)
	GetVersion(userID, entryID string, number int) (*models.StoryVersion, error)
	RestoreVersion(userID, entryID string, number int) (*models.Story, error)
}

// RevaluationSummary reports a batch revaluation run.
type RevaluationSummary struct {
	Evaluated int `json:"evaluated"`
	Appended  int `json:"appended"`
	Failed    int `json:"failed"`
}

// ValuationServicer defines the contract for valuing items.
type ValuationServicer interface {
	CalculateValuation(ctx context.Context, userID, entryID string) (*models.ValuationRecord, error)
	GetLatestValuation(ctx context.Context, userID, entryID string) (*models.ValuationRecord, error)
	GetValuationHistory(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.ValuationRecord], error)
	RevalueAll(ctx context.Context) (*RevaluationSummary, error)
}

// RuleServicer defines the contract for depreciation rules. It is also the
// persisted link of the valuation resolver chain.
type RuleServicer interface {
	valuation.RuleSource
	ListRules() ([]models.DepreciationRule, error)
	ResolveRule(ctx context.Context, category string) valuation.Rule
	SeedDefaultRules() (int, error)
	Resolver() *valuation.Resolver
}

// MediaUpload is a file handed to MediaServicer.Upload.
type MediaUpload struct {
	Filename  string
	Size      int64
	Body      io.Reader
	Caption   string
	IsPrimary bool
}

// MediaServicer defines the contract for entry media.
type MediaServicer interface {
	UploadMedia(ctx context.Context, userID, entryID string, in MediaUpload) (*models.EntryMedia, error)
	ListMedia(ctx context.Context, userID, entryID string) ([]models.EntryMedia, error)
	DeleteMedia(ctx context.Context, userID, entryID, mediaID string) error
	SetPrimaryMedia(ctx context.Context, userID, entryID, mediaID string) (*models.EntryMedia, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
