package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

func TestClassifyS3Error(t *testing.T) {
	t.Run("no such key", func(t *testing.T) {
		err := classifyS3Error(fmt.Errorf("op: %w", &s3types.NoSuchKey{}))
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
		assert.Equal(t, pipeline.StageFetch, pipeline.StageOf(err))
	})

	t.Run("no such bucket", func(t *testing.T) {
		err := classifyS3Error(&s3types.NoSuchBucket{})
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
	})

	t.Run("head not found", func(t *testing.T) {
		err := classifyS3Error(&s3types.NotFound{})
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
	})

	t.Run("access denied hides detail", func(t *testing.T) {
		err := classifyS3Error(&smithy.GenericAPIError{
			Code:    "AccessDenied",
			Message: "User arn:aws:iam::123:user/svc is not authorized",
		})
		assert.Equal(t, pipeline.KindUnauthorized, pipeline.KindOf(err))
		assert.NotContains(t, err.Error(), "arn:aws:iam")
	})

	t.Run("bad credentials hide detail", func(t *testing.T) {
		err := classifyS3Error(&smithy.GenericAPIError{Code: "InvalidAccessKeyId", Message: "AKIA..."})
		assert.Equal(t, pipeline.KindUnauthorized, pipeline.KindOf(err))
		assert.NotContains(t, err.Error(), "AKIA")
	})

	t.Run("deadline is timeout", func(t *testing.T) {
		err := classifyS3Error(fmt.Errorf("head: %w", context.DeadlineExceeded))
		assert.Equal(t, pipeline.KindTimeout, pipeline.KindOf(err))
	})

	t.Run("anything else is transient", func(t *testing.T) {
		err := classifyS3Error(errors.New("connection reset by peer"))
		assert.Equal(t, pipeline.KindTransient, pipeline.KindOf(err))
	})
}
