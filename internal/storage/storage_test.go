package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keepsake/internal/config"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "/media/")
	require.NoError(t, err)

	key := NewKey("entry-1", ".png")
	require.True(t, strings.HasPrefix(key, "entries/entry-1/"))
	require.True(t, strings.HasSuffix(key, ".png"))

	t.Run("put_and_url", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, strings.NewReader("pixels"), 6, "image/png"))

		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
		require.NoError(t, err)
		assert.Equal(t, "pixels", string(data))

		url, err := store.URL(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "/media/"+key, url)
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, key))
		require.NoError(t, store.Delete(ctx, key))
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects_escaping_keys", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, "../outside", strings.NewReader("x"), 1, "text/plain"))
		assert.Error(t, store.Delete(ctx, "/etc/passwd"))
	})
}

func TestNew(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		s, err := New(&config.Config{MediaDriver: DriverLocal, MediaDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &LocalStore{}, s)
	})

	t.Run("s3_presigns_urls", func(t *testing.T) {
		s, err := New(&config.Config{
			MediaDriver: DriverS3,
			S3Bucket:    "keepsake-media",
			S3Region:    "us-east-1",
			S3Endpoint:  "http://127.0.0.1:9000",
			S3AccessKey: "minio",
			S3SecretKey: "minio-secret",
		})
		require.NoError(t, err)

		url, err := s.URL(context.Background(), "entries/e/a.png")
		require.NoError(t, err)
		assert.Contains(t, url, "127.0.0.1:9000/keepsake-media/entries/e/a.png")
		assert.Contains(t, url, "X-Amz-Expires=900")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(&config.Config{MediaDriver: "ftp"})
		assert.Error(t, err)
	})
}
