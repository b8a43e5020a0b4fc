package pipeline

// MediaReference identifies an object in the configured object store.
// References are constructed per request and never persisted.
type MediaReference struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Validate checks the reference for non-emptiness. Store naming rules beyond
// that are left to the store itself.
func (r MediaReference) Validate() error {
	if r.Bucket == "" {
		return Errorf(KindInvalidInput, StageFetch, "bucket is required")
	}
	if r.Key == "" {
		return Errorf(KindInvalidInput, StageFetch, "key is required")
	}
	return nil
}

func (r MediaReference) String() string {
	return r.Bucket + "/" + r.Key
}

// BoundingBox holds corner coordinates in source image pixel space.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is a single detected object. Confidence is always in [0,1] and
// the box always lies within the source image bounds.
type Detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// DetectionResult is the normalized output of a media analysis request.
// Detections keep model output order, filtered by the confidence threshold;
// they are not re-sorted by confidence.
type DetectionResult struct {
	Source      MediaReference `json:"source"`
	Detections  []Detection    `json:"detections"`
	LabelCounts map[string]int `json:"label_counts"`
	Summary     string         `json:"summary"`
	ImageWidth  int            `json:"image_width"`
	ImageHeight int            `json:"image_height"`
	DurationMS  int64          `json:"duration_ms"`
}

// SummarizationRequest asks for an extractive summary of Text reduced to
// SentenceCount sentences. A non-positive count selects the configured default.
type SummarizationRequest struct {
	Text          string `json:"text"`
	SentenceCount int    `json:"sentence_count,omitempty"`
}

// SummarizationResult reports the assembled summary and the number of
// sentences actually produced, which may be fewer than requested when the
// source text is short.
type SummarizationResult struct {
	Summary       string `json:"summary"`
	SentenceCount int    `json:"sentence_count"`
	DurationMS    int64  `json:"duration_ms"`
}

// Job type constants for the async runner.
const (
	JobAnalyzeMedia  = "analyze_media"
	JobSummarizeText = "summarize_text"
)

// ProcessRequest represents a request to run a pipeline job asynchronously.
type ProcessRequest struct {
	Job                 string            `json:"job"`
	Bucket              string            `json:"bucket,omitempty"`
	Key                 string            `json:"key,omitempty"`
	Text                string            `json:"text,omitempty"`
	SentenceCount       int               `json:"sentence_count,omitempty"`
	ConfidenceThreshold *float64          `json:"confidence_threshold,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// ProcessResponse represents the response from triggering async processing.
type ProcessResponse struct {
	RunID           string `json:"run_id"`
	DedupeSeenCount int    `json:"dedupe_seen_count"`
}
