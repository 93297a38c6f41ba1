package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/importance"
	"keepsake/internal/logger"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/storage"
	"keepsake/internal/validator"
)

// Columns an entry list may be sorted by.
var EntrySortColumns = []string{"created_at", "updated_at", "importance_score", "acquisition_date", "meeting_date", "title"}

// DefaultEntrySort lists the most recently touched entries first.
var DefaultEntrySort = pagination.Sort{Column: "updated_at", Desc: true}

const (
	recentEntriesLimit = 10
	topTagsLimit       = 20
	maxTitleLength     = 200
	defaultPresetName  = "default"
)

// compositeOrder sorts by the calculated importance without loading rows. The
// integer weights are the composite's weights times 100.
const compositeOrder = "(emotional_value * 35 + practical_value * 25 + frequency_of_use * 25 + duration_owned * 15) DESC, importance_score DESC, id DESC"

// entryService handles entry-related business logic.
type entryService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	now   func() time.Time
}

// NewEntryService creates a new EntryServicer. Blobs of deleted entries are
// removed from the given store.
func NewEntryService(db *gorm.DB, blobs storage.BlobStore) EntryServicer {
	return &entryService{db: db, blobs: blobs, now: time.Now}
}

// findOwnedEntry loads an entry the user owns. Entries of other users are
// reported as missing.
func findOwnedEntry(db *gorm.DB, userID, entryID string) (*models.Entry, error) {
	var entry models.Entry
	if err := db.Where("id = ? AND user_id = ?", entryID, userID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// validateEntryInput checks everything an entry write must satisfy before
// any mutation happens.
func validateEntryInput(kind models.EntryKind, in EntryInput, now time.Time) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return apperrors.Validationf("title", "must not be empty")
		}
		if len(title) > maxTitleLength {
			return apperrors.Validationf("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
		}
	}
	if field := in.Scores.Invalid(); field != "" {
		return apperrors.Validationf(field, fmt.Sprintf("must be between %d and %d", importance.MinScore, importance.MaxScore))
	}

	if in.Item != nil && kind != models.EntryKindItem {
		return apperrors.WithMessage(apperrors.ErrKindMismatch, "item attributes cannot be set on a "+string(kind)+" entry")
	}
	if in.Person != nil && kind != models.EntryKindPerson {
		return apperrors.WithMessage(apperrors.ErrKindMismatch, "person attributes cannot be set on a "+string(kind)+" entry")
	}

	if p := in.Item; p != nil {
		if p.OriginalPrice != nil && p.OriginalPrice.IsNegative() {
			return apperrors.Validationf("original_price", "must not be negative")
		}
		if p.AcquisitionDate != nil && validator.IsFutureDate(*p.AcquisitionDate, now) {
			return apperrors.Validationf("acquisition_date", "must not be in the future")
		}
		if p.Currency != nil && len(*p.Currency) != 3 {
			return apperrors.Validationf("currency", "must be a 3-letter ISO 4217 code")
		}
	}
	if p := in.Person; p != nil {
		if p.MeetingDate != nil && validator.IsFutureDate(*p.MeetingDate, now) {
			return apperrors.Validationf("meeting_date", "must not be in the future")
		}
	}
	return nil
}

func dateOnly(t time.Time) *time.Time {
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

// applyCommon writes the kind-independent fields except story content.
func applyCommon(e *models.Entry, in EntryInput) {
	if in.Title != nil {
		e.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Theme != nil {
		e.Theme = *in.Theme
	}
	if in.Layout != nil {
		e.Layout = *in.Layout
	}
	if in.Decorations != nil {
		e.Decorations = datatypes.JSON(in.Decorations)
	}
	if in.Tags != nil {
		e.Tags = datatypes.JSONSlice[string](normalizeTags(*in.Tags))
	}
	if in.IsPrivate != nil {
		e.IsPrivate = *in.IsPrivate
	}
}

// normalizeTags trims, drops empties and removes duplicates, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// applyPayload overlays the kind-specific patch on the entry's current
// attributes.
func applyPayload(e *models.Entry, in EntryInput) {
	if p := in.Item; p != nil {
		attrs, _ := e.Item()
		if p.AcquisitionDate != nil {
			attrs.AcquisitionDate = dateOnly(*p.AcquisitionDate)
		}
		if p.AcquisitionMethod != nil {
			attrs.AcquisitionMethod = p.AcquisitionMethod
		}
		if p.OriginalPrice != nil {
			attrs.OriginalPrice = decimal.NewNullDecimal(p.OriginalPrice.Round(2))
		}
		if p.Currency != nil {
			attrs.Currency = strings.ToUpper(*p.Currency)
		}
		if p.Category != nil {
			attrs.Category = strings.TrimSpace(*p.Category)
		}
		if p.Condition != nil {
			attrs.Condition = p.Condition
		}
		e.SetPayload(attrs)
	}
	if p := in.Person; p != nil {
		attrs, _ := e.Person()
		if p.Relationship != nil {
			attrs.Relationship = p.Relationship
		}
		if p.MeetingDate != nil {
			attrs.MeetingDate = dateOnly(*p.MeetingDate)
		}
		if p.ContactInfo != nil {
			attrs.ContactInfo = p.ContactInfo
		}
		e.SetPayload(attrs)
	}
}

// CreateEntry creates an item or person entry. Story content given here
// stamps story_last_modified; importance_last_evaluated stays unset.
func (s *entryService) CreateEntry(userID string, kind models.EntryKind, in EntryInput) (*models.Entry, error) {
	if kind != models.EntryKindItem && kind != models.EntryKindPerson {
		return nil, apperrors.Validationf("kind", "must be item or person")
	}
	if in.Title == nil {
		return nil, apperrors.Validationf("title", "is required")
	}
	now := s.now()
	if err := validateEntryInput(kind, in, now); err != nil {
		return nil, err
	}

	var owner models.User
	if err := s.db.Select("id", "default_currency").Where("id = ?", userID).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	entry := &models.Entry{
		UserID:   userID,
		Kind:     kind,
		Currency: owner.Preferences().DefaultCurrency,
		Theme:    defaultPresetName,
		Layout:   defaultPresetName,
		Tags:     datatypes.JSONSlice[string]{},
	}
	d := importance.DefaultScore
	defaults := importance.Scores{Overall: d, Emotional: d, Practical: d, Frequency: d, Duration: d}
	scores, _ := defaults.Apply(in.Scores)
	entry.SetScores(scores)

	applyCommon(entry, in)
	if in.StoryContent != nil {
		entry.StoryContent = *in.StoryContent
		if models.StoryPresent(entry.StoryContent) {
			entry.StoryLastModified = &now
		}
	}
	applyPayload(entry, in)

	if err := s.db.Omit(clause.Associations).Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// GetEntryByID returns an owned entry with its media.
func (s *entryService) GetEntryByID(userID, entryID string) (*models.Entry, error) {
	var entry models.Entry
	err := s.db.
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, created_at ASC")
		}).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	resolveMediaURLs(context.Background(), s.blobs, entry.Media)
	return &entry, nil
}

// UpdateEntry applies a partial update. A change to any importance input
// stamps importance_last_evaluated; a change to story content stamps
// story_last_modified.
func (s *entryService) UpdateEntry(userID, entryID string, in EntryInput) (*models.Entry, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := validateEntryInput(entry.Kind, in, now); err != nil {
		return nil, err
	}

	if scores, changed := entry.Scores().Apply(in.Scores); changed {
		entry.SetScores(scores)
		entry.ImportanceLastEvaluated = &now
	}
	applyCommon(entry, in)
	if in.StoryContent != nil && *in.StoryContent != entry.StoryContent {
		entry.StoryContent = *in.StoryContent
		entry.StoryLastModified = &now
	}
	applyPayload(entry, in)

	if err := s.db.Omit(clause.Associations).Save(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetEntryByID(userID, entryID)
}

// UpdateStoryContent writes the entry-level story text. It does not touch
// the versioned story.
func (s *entryService) UpdateStoryContent(userID, entryID, content string) (*models.Entry, error) {
	return s.UpdateEntry(userID, entryID, EntryInput{StoryContent: &content})
}

// DeleteEntry removes the entry with its media, valuations, story and
// versions. Blob removal happens after commit and only logs failures.
func (s *entryService) DeleteEntry(userID, entryID string) error {
	var keys []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := findOwnedEntry(tx, userID, entryID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.EntryMedia{}).Where("entry_id = ?", entry.ID).Pluck("storage_key", &keys).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		stories := tx.Model(&models.Story{}).Select("id").Where("entry_id = ?", entry.ID)
		steps := []func() error{
			func() error { return tx.Where("story_id IN (?)", stories).Delete(&models.StoryVersion{}).Error },
			func() error { return tx.Where("entry_id = ?", entry.ID).Delete(&models.Story{}).Error },
			func() error { return tx.Where("entry_id = ?", entry.ID).Delete(&models.ValuationRecord{}).Error },
			func() error { return tx.Where("entry_id = ?", entry.ID).Delete(&models.EntryMedia{}).Error },
			func() error { return tx.Delete(entry).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.blobs.Delete(context.Background(), key); err != nil {
			logger.Get().Warnw("failed to delete media blob", "error", err, "entry_id", entryID, "key", key)
		}
	}
	return nil
}

// GetUserEntries lists entries matching the filter.
func (s *entryService) GetUserEntries(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Entry], error) {
	page.Defaults()
	query := applyEntryFilter(s.db.Model(&models.Entry{}).Where("user_id = ?", userID), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	order := filter.Sort
	if order.Column == "" {
		order = DefaultEntrySort
	}
	var entries []models.Entry
	if err := query.Scopes(pagination.Order(order), pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &resp, nil
}

func applyEntryFilter(query *gorm.DB, f EntryFilter) *gorm.DB {
	if f.Kind != nil {
		query = query.Where("kind = ?", *f.Kind)
	}
	if f.Category != nil {
		query = query.Where("category = ?", *f.Category)
	}
	if f.Condition != nil {
		query = query.Where("condition = ?", *f.Condition)
	}
	if f.Relationship != nil {
		query = query.Where("relationship = ?", *f.Relationship)
	}
	if f.IsPrivate != nil {
		query = query.Where("is_private = ?", *f.IsPrivate)
	}
	if f.MinImportance != nil {
		query = query.Where("importance_score >= ?", *f.MinImportance)
	}
	for _, tag := range f.Tags {
		query = whereHasTag(query, tag)
	}
	if f.HasStory != nil {
		query = query.Where("has_story = ?", *f.HasStory)
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(story_content) LIKE ?)", like, like, like)
	}
	if f.AcquiredFrom != nil {
		query = query.Where("acquisition_date >= ?", *dateOnly(*f.AcquiredFrom))
	}
	if f.AcquiredTo != nil {
		query = query.Where("acquisition_date <= ?", *dateOnly(*f.AcquiredTo))
	}
	if f.MetFrom != nil {
		query = query.Where("meeting_date >= ?", *dateOnly(*f.MetFrom))
	}
	if f.MetTo != nil {
		query = query.Where("meeting_date <= ?", *dateOnly(*f.MetTo))
	}
	if f.MinPrice != nil {
		query = query.Where("original_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("original_price <= ?", *f.MaxPrice)
	}
	return query
}

// whereHasTag matches entries whose tags array contains tag.
func whereHasTag(query *gorm.DB, tag string) *gorm.DB {
	if query.Dialector.Name() == "postgres" {
		return query.Where("tags::jsonb @> ?::jsonb", `["`+strings.ReplaceAll(strings.ReplaceAll(tag, `\`, `\\`), `"`, `\"`)+`"]`)
	}
	return query.Where("EXISTS (SELECT 1 FROM json_each(entries.tags) WHERE json_each.value = ?)", tag)
}

// GetEntriesByImportance orders entries by calculated importance, then by
// the user-set score.
func (s *entryService) GetEntriesByImportance(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Entry], error) {
	page.Defaults()
	query := s.db.Model(&models.Entry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Entry
	if err := query.Order(compositeOrder).Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(entries, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetRecentEntries returns the most recently updated entries.
func (s *entryService) GetRecentEntries(userID string) ([]models.Entry, error) {
	var entries []models.Entry
	if err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Limit(recentEntriesLimit).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

// GetStatistics summarizes the user's entries.
func (s *entryService) GetStatistics(userID string) (*EntryStatistics, error) {
	owned := func() *gorm.DB {
		return s.db.Model(&models.Entry{}).Where("user_id = ?", userID)
	}
	stats := &EntryStatistics{ImportanceDistribution: make(map[string]int64, importance.MaxScore)}

	var kinds []struct {
		Kind  models.EntryKind
		Count int64
	}
	if err := owned().Select("kind, COUNT(*) AS count").Group("kind").Scan(&kinds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, k := range kinds {
		stats.TotalEntries += k.Count
		switch k.Kind {
		case models.EntryKindItem:
			stats.TotalItems = k.Count
		case models.EntryKindPerson:
			stats.TotalPeople = k.Count
		}
	}

	if err := owned().Where("has_story = ?", true).Count(&stats.WithStory).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.WithoutStory = stats.TotalEntries - stats.WithStory

	var scores []struct {
		Score int
		Count int64
	}
	if err := owned().Select("importance_score AS score, COUNT(*) AS count").Group("importance_score").Scan(&scores).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := importance.MinScore; i <= importance.MaxScore; i++ {
		stats.ImportanceDistribution[strconv.Itoa(i)] = 0
	}
	for _, sc := range scores {
		stats.ImportanceDistribution[strconv.Itoa(sc.Score)] = sc.Count
	}

	if err := owned().Where("category IS NOT NULL AND category <> ''").
		Distinct().Order("category").Pluck("category", &stats.Categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := owned().Where("relationship IS NOT NULL").
		Distinct().Order("relationship").Pluck("relationship", &stats.Relationships).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if stats.Categories == nil {
		stats.Categories = []string{}
	}
	if stats.Relationships == nil {
		stats.Relationships = []string{}
	}

	var tagSets []datatypes.JSONSlice[string]
	if err := owned().Where("tags IS NOT NULL").Pluck("tags", &tagSets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.TopTags = topTags(tagSets, topTagsLimit)

	return stats, nil
}

// topTags counts tag usage and keeps the n most used, ties broken by name.
func topTags(sets []datatypes.JSONSlice[string], n int) []TagCount {
	counts := map[string]int{}
	for _, set := range sets {
		for _, tag := range set {
			counts[tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, c := range counts {
		out = append(out, TagCount{Tag: tag, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
