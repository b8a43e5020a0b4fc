package orchestrator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ResQ-NG/resq-ai/internal/vision"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// normalizeDetections converts engine output into the public result shape
// and computes the per-label counts and the human summary line. Detections
// keep model output order.
func normalizeDetections(ref pipeline.MediaReference, dets []vision.Detection, width, height int) *pipeline.DetectionResult {
	out := make([]pipeline.Detection, len(dets))
	counts := make(map[string]int, len(dets))
	var labelOrder []string

	for i, d := range dets {
		out[i] = pipeline.Detection{
			Label:      d.Label,
			Confidence: d.Confidence,
			Box:        pipeline.BoundingBox{X1: d.Box.X1, Y1: d.Box.Y1, X2: d.Box.X2, Y2: d.Box.Y2},
		}
		if counts[d.Label] == 0 {
			labelOrder = append(labelOrder, d.Label)
		}
		counts[d.Label]++
	}

	return &pipeline.DetectionResult{
		Source:      ref,
		Detections:  out,
		LabelCounts: counts,
		Summary:     buildSummaryLine(counts, labelOrder),
		ImageWidth:  width,
		ImageHeight: height,
	}
}

// buildSummaryLine renders "Detected 2 persons and 1 dog in the image.",
// with labels in first-appearance order.
func buildSummaryLine(counts map[string]int, labelOrder []string) string {
	if len(labelOrder) == 0 {
		return "No objects detected in the image."
	}

	parts := make([]string, len(labelOrder))
	for i, label := range labelOrder {
		parts[i] = fmt.Sprintf("%d %s", counts[label], pluralize(label, counts[label]))
	}

	if len(parts) == 1 {
		return fmt.Sprintf("Detected %s in the image.", parts[0])
	}
	last := parts[len(parts)-1]
	return fmt.Sprintf("Detected %s and %s in the image.", strings.Join(parts[:len(parts)-1], ", "), last)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func pluralize(label string, n int) string {
	if n <= 1 || label == "" {
		return label
	}
	if r := rune(label[len(label)-1]); unicode.ToLower(r) == 's' {
		return label
	}
	return label + "s"
}
