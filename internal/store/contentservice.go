package store

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/tendant/simple-content/pkg/simplecontent"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// ContentServiceStore implements ObjectStore on top of a simple-content
// service. The object key is the content UUID; the bucket is a logical label
// kept for interface uniformity.
type ContentServiceStore struct {
	service  simplecontent.Service
	maxBytes int64
}

// NewContentServiceStore wraps a simple-content service.
func NewContentServiceStore(service simplecontent.Service, maxBytes int64) *ContentServiceStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}
	return &ContentServiceStore{service: service, maxBytes: maxBytes}
}

// GetObject downloads content by UUID key, checking the reported size first.
func (cs *ContentServiceStore) GetObject(ctx context.Context, bucket, key string) (*RawMedia, error) {
	if err := validateRef(bucket, key); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(key)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindInvalidInput, pipeline.StageFetch, err, "key is not a content ID")
	}

	details, err := cs.service.GetContentDetails(ctx, id)
	if err != nil {
		// The service does not distinguish missing from failed lookups.
		return nil, pipeline.Wrap(pipeline.KindNotFound, pipeline.StageFetch, err, "content not found")
	}
	if err := sizeExceeded(details.FileSize, cs.maxBytes); err != nil {
		return nil, err
	}

	reader, err := cs.service.DownloadContent(ctx, id)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindTransient, pipeline.StageFetch, err, "download content")
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, cs.maxBytes+1))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindTransient, pipeline.StageFetch, err, "read content body")
	}
	if err := sizeExceeded(int64(len(data)), cs.maxBytes); err != nil {
		return nil, err
	}

	return &RawMedia{
		Data:        data,
		ContentType: resolveContentType(details.MimeType, key),
		Size:        int64(len(data)),
	}, nil
}
