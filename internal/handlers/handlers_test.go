package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
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

func testHandler(t *testing.T, fetch fetcherFunc, d *visiontest.Detector) *Handler {
	t.Helper()
	o, err := orchestrator.New(fetch, d, summarize.NewEngine())
	require.NoError(t, err)
	t.Cleanup(o.Release)
	return NewHandler(o, nil)
}

func pngFetcher(t *testing.T) fetcherFunc {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 20))))
	data := buf.Bytes()
	return func(ctx context.Context, bucket, key string) (*store.RawMedia, error) {
		return &store.RawMedia{Data: data, ContentType: "image/png", Size: int64(len(data))}, nil
	}
}

func decodeError(t *testing.T, body *bytes.Buffer) errorResponse {
	t.Helper()
	var er errorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &er))
	return er
}

func TestHandleAnalyze(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		d := visiontest.New()
		d.DetectFunc = func(ctx context.Context, img image.Image, threshold float64) ([]vision.Detection, error) {
			return []vision.Detection{
				{Label: "person", Confidence: 0.9, Box: vision.Box{X1: 1, Y1: 1, X2: 10, Y2: 10}},
			}, nil
		}
		h := testHandler(t, pngFetcher(t), d)

		req := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"bucket":"media","key":"photo.png"}`))
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var res pipeline.DetectionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.Len(t, res.Detections, 1)
		assert.Equal(t, "Detected 1 person in the image.", res.Summary)
	})

	t.Run("missing bucket is 400", func(t *testing.T) {
		h := testHandler(t, pngFetcher(t), visiontest.New())

		req := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"key":"photo.png"}`))
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decodeError(t, rec.Body).Kind)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		h := testHandler(t, pngFetcher(t), visiontest.New())

		req := httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not_found maps to 404", func(t *testing.T) {
		fetch := fetcherFunc(func(ctx context.Context, bucket, key string) (*store.RawMedia, error) {
			return nil, pipeline.Errorf(pipeline.KindNotFound, pipeline.StageFetch, "object not found")
		})
		h := testHandler(t, fetch, visiontest.New())

		req := httptest.NewRequest(http.MethodPost, "/v1/analyze",
			strings.NewReader(`{"bucket":"media","key":"missing.png"}`))
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		er := decodeError(t, rec.Body)
		assert.Equal(t, "not_found", er.Kind)
		assert.Equal(t, "fetch", er.Stage)
	})

	t.Run("GET is rejected", func(t *testing.T) {
		h := testHandler(t, pngFetcher(t), visiontest.New())

		req := httptest.NewRequest(http.MethodGet, "/v1/analyze", nil)
		rec := httptest.NewRecorder()
		h.HandleAnalyze(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandleSummarize(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := testHandler(t, pngFetcher(t), visiontest.New())

		body := `{"text":"The river rose fast. Crews cleared roads. Shelters opened at schools.","sentence_count":2}`
		req := httptest.NewRequest(http.MethodPost, "/v1/summarize", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleSummarize(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var res pipeline.SummarizationResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, 2, res.SentenceCount)
		assert.NotEmpty(t, res.Summary)
	})

	t.Run("empty text is 400", func(t *testing.T) {
		h := testHandler(t, pngFetcher(t), visiontest.New())

		req := httptest.NewRequest(http.MethodPost, "/v1/summarize", strings.NewReader(`{"text":"  "}`))
		rec := httptest.NewRecorder()
		h.HandleSummarize(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_input", decodeError(t, rec.Body).Kind)
	})
}

func TestHandleHealth(t *testing.T) {
	h := testHandler(t, pngFetcher(t), visiontest.New())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
