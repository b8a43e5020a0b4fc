package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// FilesystemStore implements ObjectStore over a local directory tree.
// Buckets map to subdirectories of the base directory. Used for development
// and tests; semantics match the S3 backend.
type FilesystemStore struct {
	baseDir  string
	maxBytes int64
}

// NewFilesystemStore creates a filesystem-backed store rooted at baseDir.
func NewFilesystemStore(baseDir string, maxBytes int64) (*FilesystemStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}
	return &FilesystemStore{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// GetObject reads the file at baseDir/bucket/key.
func (fs *FilesystemStore) GetObject(ctx context.Context, bucket, key string) (*RawMedia, error) {
	if err := validateRef(bucket, key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, pipeline.Classify(err, pipeline.StageFetch)
	}

	path, err := fs.resolve(bucket, key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, classifyFSError(err)
	}
	if info.IsDir() {
		return nil, pipeline.Errorf(pipeline.KindNotFound, pipeline.StageFetch, "object not found: %s/%s", bucket, key)
	}
	if err := sizeExceeded(info.Size(), fs.maxBytes); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError(err)
	}

	return &RawMedia{
		Data:        data,
		ContentType: resolveContentType("", key),
		Size:        int64(len(data)),
	}, nil
}

// resolve joins and cleans the object path, rejecting traversal out of the
// base directory.
func (fs *FilesystemStore) resolve(bucket, key string) (string, error) {
	base := filepath.Clean(fs.baseDir)
	path := filepath.Clean(filepath.Join(base, bucket, key))
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageFetch, "invalid key: path traversal detected")
	}
	return path, nil
}

func classifyFSError(err error) error {
	if os.IsNotExist(err) {
		return pipeline.Wrap(pipeline.KindNotFound, pipeline.StageFetch, err, "object not found")
	}
	if os.IsPermission(err) {
		return pipeline.Errorf(pipeline.KindUnauthorized, pipeline.StageFetch, "access denied")
	}
	return pipeline.Wrap(pipeline.KindTransient, pipeline.StageFetch, err, "read object")
}
