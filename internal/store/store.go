package store

import (
	"context"
	"mime"
	"path"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// DefaultMaxObjectBytes caps object downloads when no limit is configured.
const DefaultMaxObjectBytes = 32 << 20

// RawMedia is a fetched object payload with its content-type hint. It is
// owned by a single request and discarded after decode.
type RawMedia struct {
	Data        []byte
	ContentType string
	Size        int64
}

// ObjectStore provides read access to a bucket/key addressed object store.
// Every call performs a fresh fetch; caching is an orchestrator concern.
type ObjectStore interface {
	// GetObject fetches the full payload for bucket/key. Failures are
	// classified pipeline errors: not_found, unauthorized, transient, or
	// invalid_input when the store reports a size above the configured cap.
	GetObject(ctx context.Context, bucket, key string) (*RawMedia, error)
}

func validateRef(bucket, key string) error {
	return pipeline.MediaReference{Bucket: bucket, Key: key}.Validate()
}

// resolveContentType picks the content-type hint: store metadata first, then
// the key extension, then the generic octet-stream fallback.
func resolveContentType(metaType, key string) string {
	if metaType != "" && metaType != "application/octet-stream" {
		return metaType
	}
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func sizeExceeded(size, max int64) error {
	if max > 0 && size > max {
		return pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageFetch,
			"object size %d exceeds limit %d", size, max)
	}
	return nil
}
