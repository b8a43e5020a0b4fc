package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// S3Store implements ObjectStore against an S3-compatible object store.
// Credentials and region come from the standard AWS configuration chain,
// resolved once at construction.
type S3Store struct {
	client   *s3.Client
	maxBytes int64
}

// NewS3Store creates an S3-backed store for the given region.
func NewS3Store(ctx context.Context, region string, maxBytes int64) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreFromClient(s3.NewFromConfig(cfg), maxBytes), nil
}

// NewS3StoreFromClient wraps an existing S3 client.
func NewS3StoreFromClient(client *s3.Client, maxBytes int64) *S3Store {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}
	return &S3Store{client: client, maxBytes: maxBytes}
}

// GetObject fetches the full object payload. The reported size is checked
// against the configured cap before the download starts.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) (*RawMedia, error) {
	if err := validateRef(bucket, key); err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}
	size := aws.ToInt64(head.ContentLength)
	if err := sizeExceeded(size, s.maxBytes); err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}
	defer out.Body.Close()

	// The HEAD size can go stale between calls; the limit still holds.
	data, err := io.ReadAll(io.LimitReader(out.Body, s.maxBytes+1))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindTransient, pipeline.StageFetch, err, "read object body")
	}
	if err := sizeExceeded(int64(len(data)), s.maxBytes); err != nil {
		return nil, err
	}

	return &RawMedia{
		Data:        data,
		ContentType: resolveContentType(aws.ToString(out.ContentType), key),
		Size:        int64(len(data)),
	}, nil
}

// classifyS3Error maps S3 SDK errors into the pipeline taxonomy. Access
// denials are reported without credential detail.
func classifyS3Error(err error) error {
	var noKey *s3types.NoSuchKey
	var noBucket *s3types.NoSuchBucket
	var notFound *s3types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound) {
		return pipeline.Wrap(pipeline.KindNotFound, pipeline.StageFetch, err, "object not found")
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return pipeline.Errorf(pipeline.KindUnauthorized, pipeline.StageFetch, "access denied")
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return pipeline.Wrap(pipeline.KindNotFound, pipeline.StageFetch, err, "object not found")
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pipeline.Classify(err, pipeline.StageFetch)
	}
	return pipeline.Wrap(pipeline.KindTransient, pipeline.StageFetch, err, "store request failed")
}
