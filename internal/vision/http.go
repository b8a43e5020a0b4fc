package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// HTTPDetector runs inference against a model-serving HTTP endpoint
// (a YOLO server exposing POST /v1/detect). The frame is sent JPEG-encoded;
// the response carries raw detections which are normalized locally.
type HTTPDetector struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPDetectorOption configures an HTTPDetector.
type HTTPDetectorOption func(*HTTPDetector)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) HTTPDetectorOption {
	return func(d *HTTPDetector) {
		if c != nil {
			d.httpClient = c
		}
	}
}

// WithDetectorLogger sets a custom logger. Default is slog.Default().
func WithDetectorLogger(l *slog.Logger) HTTPDetectorOption {
	return func(d *HTTPDetector) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewHTTPDetector creates a detector bound to an inference endpoint and a
// fixed model version.
func NewHTTPDetector(endpoint, model string, opts ...HTTPDetectorOption) *HTTPDetector {
	d := &HTTPDetector{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// detectResponse mirrors the model server's JSON output: class label,
// confidence and an xyxy pixel box per detection.
type detectResponse struct {
	Detections []struct {
		Class      string     `json:"class"`
		Confidence float64    `json:"confidence"`
		BBox       [4]float64 `json:"bbox"`
	} `json:"detections"`
}

// Detect implements Detector. The threshold filter and box clamping run
// locally so the contract holds regardless of server behavior.
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image, threshold float64) ([]Detection, error) {
	if err := ValidateInput(img, threshold); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, pipeline.Wrap(pipeline.KindInvalidInput, pipeline.StageInfer, err, "encode frame")
	}

	url := fmt.Sprintf("%s/v1/detect?model=%s", d.endpoint, d.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindInternal, pipeline.StageInfer, err, "create request")
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, pipeline.Classify(err, pipeline.StageInfer)
		}
		return nil, pipeline.Wrap(pipeline.KindEngineUnavailable, pipeline.StageInfer, err, "inference backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.logger.Warn("inference backend error",
			"status", resp.StatusCode, "model", d.model)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageInfer,
				"inference backend rejected input: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		}
		return nil, pipeline.Errorf(pipeline.KindEngineUnavailable, pipeline.StageInfer,
			"inference backend failed: status %d", resp.StatusCode)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pipeline.Wrap(pipeline.KindEngineUnavailable, pipeline.StageInfer, err, "decode inference response")
	}

	dets := make([]Detection, 0, len(parsed.Detections))
	for _, rd := range parsed.Detections {
		dets = append(dets, Detection{
			Label:      rd.Class,
			Confidence: rd.Confidence,
			Box:        Box{X1: rd.BBox[0], Y1: rd.BBox[1], X2: rd.BBox[2], Y2: rd.BBox[3]},
		})
	}

	b := img.Bounds()
	return Normalize(dets, threshold, b.Dx(), b.Dy())
}
