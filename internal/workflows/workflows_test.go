package workflows

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/internal/store"
	"github.com/ResQ-NG/resq-ai/internal/summarize"
	"github.com/ResQ-NG/resq-ai/internal/vision"
	"github.com/ResQ-NG/resq-ai/internal/vision/visiontest"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

type fetcherFunc func(ctx context.Context, bucket, key string) (*store.RawMedia, error)

func (f fetcherFunc) GetObject(ctx context.Context, bucket, key string) (*store.RawMedia, error) {
	return f(ctx, bucket, key)
}

func testOrchestrator(t *testing.T, d *visiontest.Detector) *orchestrator.Orchestrator {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	data := buf.Bytes()
	fetch := fetcherFunc(func(ctx context.Context, bucket, key string) (*store.RawMedia, error) {
		return &store.RawMedia{Data: data, ContentType: "image/png", Size: int64(len(data))}, nil
	})
	o, err := orchestrator.New(fetch, d, summarize.NewEngine())
	require.NoError(t, err)
	t.Cleanup(o.Release)
	return o
}

func TestWorkflowRunnerRun(t *testing.T) {
	t.Run("unknown job", func(t *testing.T) {
		r := NewWorkflowRunner(nil)
		_, err := r.Run(&WorkflowContext{
			Ctx:     context.Background(),
			Request: pipeline.ProcessRequest{Job: "unknown"},
		})
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("analyze workflow executes", func(t *testing.T) {
		d := visiontest.New()
		d.DetectFunc = func(ctx context.Context, img image.Image, threshold float64) ([]vision.Detection, error) {
			return []vision.Detection{
				{Label: "person", Confidence: 0.9, Box: vision.Box{X1: 1, Y1: 1, X2: 5, Y2: 5}},
			}, nil
		}
		orc := testOrchestrator(t, d)

		r := NewWorkflowRunner(nil)
		r.Register(pipeline.JobAnalyzeMedia, NewAnalyzeWorkflow(orc, nil, nil))

		res, err := r.Run(&WorkflowContext{
			Ctx: context.Background(),
			Request: pipeline.ProcessRequest{
				Job:    pipeline.JobAnalyzeMedia,
				Bucket: "media",
				Key:    "photo.png",
			},
			RunID: "test-run",
		})
		require.NoError(t, err)
		assert.True(t, res.Success)

		dr, ok := res.Outputs["result"].(*pipeline.DetectionResult)
		require.True(t, ok)
		assert.Equal(t, "Detected 1 person in the image.", dr.Summary)
	})

	t.Run("analyze failure propagates", func(t *testing.T) {
		orc := func() *orchestrator.Orchestrator {
			fetch := fetcherFunc(func(ctx context.Context, bucket, key string) (*store.RawMedia, error) {
				return nil, pipeline.Errorf(pipeline.KindNotFound, pipeline.StageFetch, "object not found")
			})
			o, err := orchestrator.New(fetch, visiontest.New(), summarize.NewEngine())
			require.NoError(t, err)
			t.Cleanup(o.Release)
			return o
		}()

		r := NewWorkflowRunner(nil)
		r.Register(pipeline.JobAnalyzeMedia, NewAnalyzeWorkflow(orc, nil, nil))

		res, err := r.Run(&WorkflowContext{
			Ctx: context.Background(),
			Request: pipeline.ProcessRequest{
				Job:    pipeline.JobAnalyzeMedia,
				Bucket: "media",
				Key:    "missing.png",
			},
		})
		require.Error(t, err)
		assert.Equal(t, pipeline.KindNotFound, pipeline.KindOf(err))
		assert.False(t, res.Success)
	})

	t.Run("summarize workflow executes", func(t *testing.T) {
		orc := testOrchestrator(t, visiontest.New())

		r := NewWorkflowRunner(nil)
		r.Register(pipeline.JobSummarizeText, NewSummarizeWorkflow(orc, nil))

		res, err := r.Run(&WorkflowContext{
			Ctx: context.Background(),
			Request: pipeline.ProcessRequest{
				Job:           pipeline.JobSummarizeText,
				Text:          "The river rose fast. Crews cleared roads. Shelters opened at schools.",
				SentenceCount: 2,
			},
		})
		require.NoError(t, err)
		assert.True(t, res.Success)

		sr, ok := res.Outputs["result"].(*pipeline.SummarizationResult)
		require.True(t, ok)
		assert.Equal(t, 2, sr.SentenceCount)
	})
}

func TestRunAsyncRequiresRuntime(t *testing.T) {
	r := NewWorkflowRunner(nil)
	_, err := r.RunAsync(context.Background(), pipeline.ProcessRequest{Job: pipeline.JobAnalyzeMedia})
	assert.Error(t, err)

	_, err = r.GetStatus(context.Background(), "run-1")
	assert.Error(t, err)
}

func TestRequestIdentity(t *testing.T) {
	t.Run("media jobs use the object reference", func(t *testing.T) {
		id := requestIdentity(pipeline.ProcessRequest{Bucket: "media", Key: "a.png"})
		assert.Equal(t, "media/a.png", id)
	})

	t.Run("text jobs use a stable digest", func(t *testing.T) {
		a := requestIdentity(pipeline.ProcessRequest{Text: "same text"})
		b := requestIdentity(pipeline.ProcessRequest{Text: "same text"})
		c := requestIdentity(pipeline.ProcessRequest{Text: "different"})
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})
}
