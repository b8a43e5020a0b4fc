// Package vision wraps object-detection backends behind a capability
// interface. Backends return raw model detections; the shared normalization
// applies the confidence threshold and clamps boxes to the image bounds, so
// every implementation honors the same output contract.
package vision

import (
	"context"
	"image"
	"math"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// DefaultConfidenceThreshold is applied when the caller does not configure one.
const DefaultConfidenceThreshold = 0.25

// Box holds corner coordinates (x1,y1)-(x2,y2) in image pixel space.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is a single detected object in model output order.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Detector is the capability interface for object-detection backends.
// Implementations must be deterministic for a fixed model version and input,
// must not mutate the input image, and must honor context cancellation on
// any out-of-process call.
type Detector interface {
	// Detect runs inference on a decoded image and returns detections at or
	// above threshold, in model output order, with boxes clamped to the
	// image bounds.
	Detect(ctx context.Context, img image.Image, threshold float64) ([]Detection, error)
}

// ValidateInput rejects nil or degenerate images and out-of-range thresholds.
func ValidateInput(img image.Image, threshold float64) error {
	if img == nil {
		return pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageInfer, "image is nil")
	}
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageInfer, "image has empty pixel buffer (%dx%d)", b.Dx(), b.Dy())
	}
	if threshold < 0 || threshold > 1 {
		return pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageInfer, "confidence threshold %v outside [0,1]", threshold)
	}
	return nil
}

// Normalize applies the post-inference contract: detections below threshold
// are dropped, boxes are clamped to the width x height pixel extents, and
// malformed entries (NaN fields, non-positive area after clamping,
// out-of-range confidence) are rejected. Output order follows input order.
func Normalize(dets []Detection, threshold float64, width, height int) ([]Detection, error) {
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if hasNaN(d) {
			return nil, pipeline.Errorf(pipeline.KindInternal, pipeline.StageInfer, "model returned NaN for label %q", d.Label)
		}
		if d.Confidence < 0 || d.Confidence > 1 {
			return nil, pipeline.Errorf(pipeline.KindInternal, pipeline.StageInfer, "model returned confidence %v for label %q", d.Confidence, d.Label)
		}
		if d.Confidence < threshold {
			continue
		}
		d.Box = clamp(d.Box, width, height)
		if d.Box.X2 <= d.Box.X1 || d.Box.Y2 <= d.Box.Y1 {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func clamp(b Box, width, height int) Box {
	w, h := float64(width), float64(height)
	return Box{
		X1: math.Min(math.Max(b.X1, 0), w),
		Y1: math.Min(math.Max(b.Y1, 0), h),
		X2: math.Min(math.Max(b.X2, 0), w),
		Y2: math.Min(math.Max(b.Y2, 0), h),
	}
}

func hasNaN(d Detection) bool {
	return math.IsNaN(d.Confidence) ||
		math.IsNaN(d.Box.X1) || math.IsNaN(d.Box.Y1) ||
		math.IsNaN(d.Box.X2) || math.IsNaN(d.Box.Y2)
}
