package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

func newTestStore(t *testing.T, maxBytes int64) (*FilesystemStore, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFilesystemStore(dir, maxBytes)
	require.NoError(t, err)
	return fs, dir
}

func writeObject(t *testing.T, dir, bucket, key string, data []byte) {
	t.Helper()
	path := filepath.Join(dir, bucket, key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestFilesystemStoreGetObject(t *testing.T) {
	ctx := context.Background()

	t.Run("returns payload with content type", func(t *testing.T) {
		fs, dir := newTestStore(t, 0)
		writeObject(t, dir, "media", "uploads/photo.jpg", []byte("jpegbytes"))

		raw, err := fs.GetObject(ctx, "media", "uploads/photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, []byte("jpegbytes"), raw.Data)
		assert.Equal(t, int64(9), raw.Size)
		assert.Equal(t, "image/jpeg", raw.ContentType)
	})

	t.Run("missing object is not_found", func(t *testing.T) {
		fs, _ := newTestStore(t, 0)

		_, err := fs.GetObject(ctx, "media", "nope.jpg")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
		assert.Equal(t, pipeline.StageFetch, pipeline.StageOf(err))
	})

	t.Run("missing bucket is not_found", func(t *testing.T) {
		fs, _ := newTestStore(t, 0)

		_, err := fs.GetObject(ctx, "absent-bucket", "photo.jpg")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
	})

	t.Run("empty bucket is invalid_input", func(t *testing.T) {
		fs, _ := newTestStore(t, 0)

		_, err := fs.GetObject(ctx, "", "photo.jpg")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
	})

	t.Run("empty key is invalid_input", func(t *testing.T) {
		fs, _ := newTestStore(t, 0)

		_, err := fs.GetObject(ctx, "media", "")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		fs, dir := newTestStore(t, 0)
		require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir), "secret.txt"), []byte("x"), 0644))

		_, err := fs.GetObject(ctx, "media", "../../secret.txt")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
	})

	t.Run("oversized object is rejected before read", func(t *testing.T) {
		fs, dir := newTestStore(t, 4)
		writeObject(t, dir, "media", "big.jpg", []byte("123456789"))

		_, err := fs.GetObject(ctx, "media", "big.jpg")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
	})

	t.Run("canceled context surfaces as timeout", func(t *testing.T) {
		fs, dir := newTestStore(t, 0)
		writeObject(t, dir, "media", "photo.jpg", []byte("x"))

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := fs.GetObject(canceled, "media", "photo.jpg")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindTimeout, pipeline.KindOf(err))
	})

	t.Run("directory key is not_found", func(t *testing.T) {
		fs, dir := newTestStore(t, 0)
		writeObject(t, dir, "media", "uploads/photo.jpg", []byte("x"))

		_, err := fs.GetObject(ctx, "media", "uploads")
		require.Error(t, err)
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
	})
}
