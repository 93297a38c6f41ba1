// Package storage keeps media blobs outside the database.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"keepsake/internal/config"
	"keepsake/internal/uuid"
)

// Supported backends.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// BlobStore saves, removes and addresses blobs by key.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// New builds the backend selected by MEDIA_DRIVER.
func New(cfg *config.Config) (BlobStore, error) {
	switch cfg.MediaDriver {
	case DriverLocal, "":
		return NewLocalStore(cfg.MediaDir, LocalURLPrefix)
	case DriverS3:
		return NewS3Store(context.Background(), S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.MediaDriver)
	}
}

// NewKey returns a storage key for a new blob of an entry, keeping ext.
func NewKey(entryID, ext string) string {
	d := time.Now().UTC()
	return path.Join("entries", entryID, fmt.Sprintf("%04d/%02d", d.Year(), d.Month()), uuid.New()+ext)
}
