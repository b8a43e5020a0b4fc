// Package visiontest provides a scripted vision.Detector for tests.
package visiontest

import (
	"context"
	"image"

	"github.com/ResQ-NG/resq-ai/internal/vision"
)

// Detector is a test double for vision.Detector. Behavior is injected via
// the DetectFunc field; the default returns no detections. The double still
// applies the shared normalization so tests exercise the real output contract.
type Detector struct {
	// DetectFunc supplies raw detections for an inference call. Threshold
	// filtering and clamping are applied to its output.
	DetectFunc func(ctx context.Context, img image.Image, threshold float64) ([]vision.Detection, error)

	calls int
}

// New creates a scripted detector.
func New() *Detector {
	return &Detector{}
}

// Detect implements vision.Detector.
func (d *Detector) Detect(ctx context.Context, img image.Image, threshold float64) ([]vision.Detection, error) {
	d.calls++
	if err := vision.ValidateInput(img, threshold); err != nil {
		return nil, err
	}
	if d.DetectFunc == nil {
		return nil, nil
	}
	dets, err := d.DetectFunc(ctx, img, threshold)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return vision.Normalize(dets, threshold, b.Dx(), b.Dy())
}

// Calls returns how many times Detect was invoked.
func (d *Detector) Calls() int { return d.calls }
