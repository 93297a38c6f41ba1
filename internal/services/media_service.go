package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	apperrors "keepsake/internal/errors"
	"keepsake/internal/logger"
	"keepsake/internal/models"
	"keepsake/internal/storage"
)

// allowedMediaTypes maps accepted content types to their media type and file
// extension.
var allowedMediaTypes = map[string]struct {
	kind models.MediaType
	ext  string
}{
	"image/jpeg": {models.MediaTypeImage, ".jpg"},
	"image/png":  {models.MediaTypeImage, ".png"},
	"image/gif":  {models.MediaTypeImage, ".gif"},
	"image/webp": {models.MediaTypeImage, ".webp"},
	"video/mp4":  {models.MediaTypeVideo, ".mp4"},
	"video/webm": {models.MediaTypeVideo, ".webm"},
}

const maxCaptionLength = 200

// mediaService stores entry media in a blob store.
type mediaService struct {
	db       *gorm.DB
	blobs    storage.BlobStore
	maxBytes int64
}

// NewMediaService creates a new MediaServicer. Uploads larger than maxBytes
// are rejected.
func NewMediaService(db *gorm.DB, blobs storage.BlobStore, maxBytes int64) MediaServicer {
	return &mediaService{db: db, blobs: blobs, maxBytes: maxBytes}
}

// resolveMediaURLs fills URL from the blob store. A failure leaves URL empty.
func resolveMediaURLs(ctx context.Context, blobs storage.BlobStore, media []models.EntryMedia) {
	for i := range media {
		url, err := blobs.URL(ctx, media[i].StorageKey)
		if err != nil {
			logger.Get().Warnw("failed to resolve media url", "error", err, "media_id", media[i].ID)
			continue
		}
		media[i].URL = url
	}
}

// sniffContentType detects the content type from the file's leading bytes;
// the client-declared type is not trusted.
func sniffContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// imageSize decodes only the header of an image. Formats without a
// registered decoder report ok=false.
func imageSize(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// UploadMedia validates and stores a file, then records it. Marking it
// primary clears the entry's other primaries in the same transaction.
func (s *mediaService) UploadMedia(ctx context.Context, userID, entryID string, in MediaUpload) (*models.EntryMedia, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	if in.Size > s.maxBytes {
		return nil, apperrors.ErrMediaTooLarge
	}
	if len(in.Caption) > maxCaptionLength {
		return nil, apperrors.Validationf("caption", fmt.Sprintf("must be at most %d characters", maxCaptionLength))
	}

	// read one byte past the limit to catch a lying Size
	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.ErrMediaTooLarge
	}
	if len(data) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is empty")
	}

	contentType := sniffContentType(data)
	allowed, ok := allowedMediaTypes[contentType]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrUnsupportedMediaType, "Unsupported file type "+contentType)
	}

	media := &models.EntryMedia{
		EntryID:     entry.ID,
		Type:        allowed.kind,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		Caption:     strings.TrimSpace(in.Caption),
		IsPrimary:   in.IsPrimary,
		StorageKey:  storage.NewKey(entry.ID, extensionFor(in.Filename, allowed.ext)),
	}
	if allowed.kind == models.MediaTypeImage {
		if w, h, ok := imageSize(data); ok {
			media.Width, media.Height = &w, &h
		}
	}

	if err := s.blobs.Put(ctx, media.StorageKey, bytes.NewReader(data), media.SizeBytes, contentType); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if media.IsPrimary {
			if err := clearPrimary(tx, entry.ID); err != nil {
				return err
			}
		}
		return tx.Create(media).Error
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, media.StorageKey); delErr != nil {
			logger.Get().Warnw("failed to remove orphaned media blob", "error", delErr, "key", media.StorageKey)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := []models.EntryMedia{*media}
	resolveMediaURLs(ctx, s.blobs, out)
	return &out[0], nil
}

// extensionFor keeps the uploaded file's extension when it agrees with the
// detected type family, otherwise uses the canonical one.
func extensionFor(filename, canonical string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" && canonical == ".jpg" {
		return ext
	}
	return canonical
}

func clearPrimary(tx *gorm.DB, entryID string) error {
	return tx.Model(&models.EntryMedia{}).
		Where("entry_id = ? AND is_primary = ?", entryID, true).
		Update("is_primary", false).Error
}

// ListMedia returns the entry's media, primary first.
func (s *mediaService) ListMedia(ctx context.Context, userID, entryID string) ([]models.EntryMedia, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}
	var media []models.EntryMedia
	if err := s.db.Where("entry_id = ?", entry.ID).
		Order("is_primary DESC, created_at ASC").
		Find(&media).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if media == nil {
		media = []models.EntryMedia{}
	}
	resolveMediaURLs(ctx, s.blobs, media)
	return media, nil
}

func findMedia(db *gorm.DB, entryID, mediaID string) (*models.EntryMedia, error) {
	var m models.EntryMedia
	if err := db.Where("id = ? AND entry_id = ?", mediaID, entryID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMediaNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &m, nil
}

// DeleteMedia removes the row, then the blob. A blob that cannot be removed
// is logged, not reported.
func (s *mediaService) DeleteMedia(ctx context.Context, userID, entryID, mediaID string) error {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return err
	}
	m, err := findMedia(s.db, entry.ID, mediaID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(m).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.blobs.Delete(ctx, m.StorageKey); err != nil {
		logger.Get().Warnw("failed to delete media blob", "error", err, "media_id", m.ID, "key", m.StorageKey)
	}
	return nil
}

// SetPrimaryMedia makes one media file the entry's primary.
func (s *mediaService) SetPrimaryMedia(ctx context.Context, userID, entryID, mediaID string) (*models.EntryMedia, error) {
	entry, err := findOwnedEntry(s.db, userID, entryID)
	if err != nil {
		return nil, err
	}

	var m *models.EntryMedia
	err = s.db.Transaction(func(tx *gorm.DB) error {
		found, err := findMedia(tx, entry.ID, mediaID)
		if err != nil {
			return err
		}
		if err := clearPrimary(tx, entry.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(found).Update("is_primary", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		found.IsPrimary = true
		m = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	media := []models.EntryMedia{*m}
	resolveMediaURLs(ctx, s.blobs, media)
	return &media[0], nil
}
