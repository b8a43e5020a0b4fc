package vision

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 64, 48))
}

func TestHTTPDetectorDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("parses and normalizes detections", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/detect", r.URL.Path)
			assert.Equal(t, "yolov8n", r.URL.Query().Get("model"))
			assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"detections":[
				{"class":"person","confidence":0.91,"bbox":[-3,5,40,47]},
				{"class":"dog","confidence":0.12,"bbox":[1,1,10,10]}
			]}`))
		}))
		defer srv.Close()

		d := NewHTTPDetector(srv.URL, "yolov8n")
		dets, err := d.Detect(ctx, testImage(), 0.25)
		require.NoError(t, err)
		require.Len(t, dets, 1)
		assert.Equal(t, "person", dets[0].Label)
		assert.InDelta(t, 0.91, dets[0].Confidence, 1e-9)
		assert.Equal(t, Box{X1: 0, Y1: 5, X2: 40, Y2: 47}, dets[0].Box)
	})

	t.Run("4xx is invalid_input", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad frame", http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		d := NewHTTPDetector(srv.URL, "yolov8n")
		_, err := d.Detect(ctx, testImage(), 0.25)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
		assert.Equal(t, pipeline.StageInfer, pipeline.StageOf(err))
	})

	t.Run("5xx is engine_unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model crashed", http.StatusInternalServerError)
		}))
		defer srv.Close()

		d := NewHTTPDetector(srv.URL, "yolov8n")
		_, err := d.Detect(ctx, testImage(), 0.25)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindEngineUnavailable, pipeline.KindOf(err))
	})

	t.Run("unreachable backend is engine_unavailable", func(t *testing.T) {
		d := NewHTTPDetector("http://127.0.0.1:1", "yolov8n")
		_, err := d.Detect(ctx, testImage(), 0.25)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindEngineUnavailable, pipeline.KindOf(err))
	})

	t.Run("malformed body is engine_unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		d := NewHTTPDetector(srv.URL, "yolov8n")
		_, err := d.Detect(ctx, testImage(), 0.25)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindEngineUnavailable, pipeline.KindOf(err))
	})

	t.Run("rejects bad input before calling the backend", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		d := NewHTTPDetector(srv.URL, "yolov8n")
		_, err := d.Detect(ctx, nil, 0.25)
		require.Error(t, err)
		assert.Equal(t, pipeline.KindInvalidInput, pipeline.KindOf(err))
		assert.False(t, called)
	})
}
