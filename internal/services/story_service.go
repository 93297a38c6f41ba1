package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/models"
	"keepsake/internal/pagination"
	"keepsake/internal/story"
)

// storyService handles the versioned story of an entry.
type storyService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStoryService creates a new StoryServicer.
func NewStoryService(db *gorm.DB) StoryServicer {
	return &storyService{db: db, now: time.Now}
}

// findOrCreateStory returns the entry's story, creating an empty one on first
// access. A concurrent creator that wins the insert is not an error; its row
// is read back instead.
func findOrCreateStory(tx *gorm.DB, entryID string) (*models.Story, error) {
	var st models.Story
	err := tx.Where("entry_id = ?", entryID).First(&st).Error
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := insertStoryIfAbsent(tx, entryID); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Where("entry_id = ?", entryID).First(&st).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &st, nil
}

// insertStoryIfAbsent creates an empty story unless the entry already has one.
func insertStoryIfAbsent(tx *gorm.DB, entryID string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_id"}},
		DoNothing: true,
	}).Create(&models.Story{EntryID: entryID}).Error
}

// GetStory returns the entry's story.
func (s *storyService) GetStory(userID, entryID string) (*models.Story, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	return findOrCreateStory(s.db, entry.ID)
}

// UpdateStory replaces the story content, archiving the outgoing content as
// the next version when it was non-empty. The story row is locked for the
// whole read-max-then-append sequence.
func (s *storyService) UpdateStory(userID, entryID, content string) (*models.Story, error) {
	var result *models.Story
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := findOwnedEntry(tx, userID, entryID)
		if err != nil {
			return err
		}
		st, err := findOrCreateStory(tx, entry.ID)
		if err != nil {
			return err
		}
		st, err = s.replace(tx, st.ID, content)
		if err != nil {
			return err
		}
		result = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replace applies the versioning transition to a story inside tx.
func (s *storyService) replace(tx *gorm.DB, storyID, content string) (*models.Story, error) {
	var st models.Story
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", storyID).First(&st).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var latest int
	if err := tx.Model(&models.StoryVersion{}).
		Where("story_id = ?", st.ID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	t := story.Plan(st.Content, latest, content, s.now())
	if t.Archive {
		version := &models.StoryVersion{
			StoryID:       st.ID,
			VersionNumber: t.Version,
			Content:       t.Archived,
			CreatedAt:     t.At,
		}
		if err := tx.Create(version).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := tx.Model(&st).Updates(map[string]interface{}{
		"content":    t.Content,
		"updated_at": t.At,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	st.Content = t.Content
	st.UpdatedAt = t.At
	return &st, nil
}

// ListVersions returns archived versions, newest first. An entry whose story
// was never created has an empty history.
func (s *storyService) ListVersions(userID, entryID string, page pagination.PageRequest) (*pagination.PageResponse[models.StoryVersion], error) {
	page.Defaults()
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.StoryVersion{}).
		Joins("JOIN stories ON stories.id = story_versions.story_id").
		Where("stories.entry_id = ?", entry.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var versions []models.StoryVersion
	if err := query.Order("story_versions.version_number DESC").
		Scopes(pagination.Paginate(page)).
		Find(&versions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(versions, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetVersion returns one archived version by number.
func (s *storyService) GetVersion(userID, entryID string, number int) (*models.StoryVersion, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	return findVersion(s.db, entry.ID, number)
}

func findVersion(db *gorm.DB, entryID string, number int) (*models.StoryVersion, error) {
	var v models.StoryVersion
	err := db.Joins("JOIN stories ON stories.id = story_versions.story_id").
		Where("stories.entry_id = ? AND story_versions.version_number = ?", entryID, number).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStoryVersionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &v, nil
}

// RestoreVersion makes an archived version current again. The content it
// replaces is archived first, like any other update.
func (s *storyService) RestoreVersion(userID, entryID string, number int) (*models.Story, error) {
	var result *models.Story
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := findOwnedEntry(tx, userID, entryID)
		if err != nil {
			return err
		}
		v, err := findVersion(tx, entry.ID, number)
		if err != nil {
			return err
		}
		st, err := s.replace(tx, v.StoryID, v.Content)
		if err != nil {
			return err
		}
		result = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
