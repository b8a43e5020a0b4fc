// Package orchestrator coordinates the media and text pipelines: fetch →
// decode → infer → normalize for media, and a single summarize stage for
// text. It owns the end-to-end timeout, the retry policy and the inference
// admission limit; each request works on its own state and nothing is shared
// between requests.
package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"runtime"
	"time"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/ResQ-NG/resq-ai/internal/metrics"
	"github.com/ResQ-NG/resq-ai/internal/store"
	"github.com/ResQ-NG/resq-ai/internal/summarize"
	"github.com/ResQ-NG/resq-ai/internal/vision"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Defaults applied when no option overrides them.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxInFlight  = 4
	DefaultRetryBackoff = 250 * time.Millisecond
)

// ObjectFetcher is the slice of the object store the orchestrator needs.
type ObjectFetcher interface {
	GetObject(ctx context.Context, bucket, key string) (*store.RawMedia, error)
}

// Detector runs object detection on a decoded image.
type Detector interface {
	Detect(ctx context.Context, img image.Image, threshold float64) ([]vision.Detection, error)
}

// Summarizer produces an extractive summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, sentenceCount int) (*summarize.Result, error)
}

// Orchestrator runs pipeline requests. Safe for concurrent use; per-request
// state lives on the stack of each call.
type Orchestrator struct {
	store      ObjectFetcher
	detector   Detector
	summarizer Summarizer

	pool             *ants.Pool
	metrics          *metrics.Metrics
	timeout          time.Duration
	threshold        float64
	defaultSentences int
	retryBackoff     time.Duration
	logger           *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithTimeout sets the end-to-end budget for a single request.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.timeout = d
		}
		return nil
	}
}

// WithConfidenceThreshold sets the default detection confidence threshold.
func WithConfidenceThreshold(t float64) Option {
	return func(o *Orchestrator) error {
		if t < 0 || t > 1 {
			return ErrInvalidThreshold
		}
		o.threshold = t
		return nil
	}
}

// WithDefaultSentences sets the summary length used when a request does not
// specify one.
func WithDefaultSentences(n int) Option {
	return func(o *Orchestrator) error {
		if n >= 1 {
			o.defaultSentences = n
		}
		return nil
	}
}

// WithMaxInFlight bounds concurrent engine calls. Requests beyond the limit
// are rejected with a capacity error rather than queued.
func WithMaxInFlight(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			n = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(n, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithRetryBackoff sets the pause before the single retry of a retryable
// failure.
func WithRetryBackoff(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d >= 0 {
			o.retryBackoff = d
		}
		return nil
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) error {
		o.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// New creates an orchestrator over the given store and engines.
func New(objectStore ObjectFetcher, detector Detector, summarizer Summarizer, opts ...Option) (*Orchestrator, error) {
	if objectStore == nil {
		return nil, ErrStoreRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if summarizer == nil {
		return nil, ErrSummarizerRequired
	}

	o := &Orchestrator{
		store:            objectStore,
		detector:         detector,
		summarizer:       summarizer,
		timeout:          DefaultTimeout,
		threshold:        vision.DefaultConfidenceThreshold,
		defaultSentences: summarize.DefaultSentenceCount,
		retryBackoff:     DefaultRetryBackoff,
		logger:           slog.Default(),
	}

	maxInFlight := DefaultMaxInFlight
	if n := runtime.NumCPU(); n > maxInFlight {
		maxInFlight = n
	}
	pool, err := ants.NewPool(maxInFlight, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	o.pool = pool

	for _, opt := range opts {
		if err := opt(o); err != nil {
			o.Release()
			return nil, err
		}
	}
	return o, nil
}

// Release frees the admission pool. The orchestrator must not be used after
// Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// AnalyzeMedia runs the media pipeline with the configured confidence
// threshold.
func (o *Orchestrator) AnalyzeMedia(ctx context.Context, ref pipeline.MediaReference) (*pipeline.DetectionResult, error) {
	return o.AnalyzeMediaWithThreshold(ctx, ref, o.threshold)
}

// AnalyzeMediaWithThreshold runs the media pipeline: fetch, decode, infer,
// normalize. A single timeout spans all stages and propagates into the store
// fetch and the inference call, so an exceeded budget aborts the in-flight
// external call instead of abandoning it.
func (o *Orchestrator) AnalyzeMediaWithThreshold(ctx context.Context, ref pipeline.MediaReference, threshold float64) (result *pipeline.DetectionResult, err error) {
	start := time.Now()
	runID := uuid.New().String()
	log := o.logger.With("run_id", runID, "job", pipeline.JobAnalyzeMedia, "ref", ref.String())

	defer func() {
		if err != nil {
			o.metrics.RecordFailure(pipeline.JobAnalyzeMedia, pipeline.KindOf(err))
			log.Warn("analysis failed", "kind", pipeline.KindOf(err), "stage", pipeline.StageOf(err), "err", err)
		}
	}()

	if err = ref.Validate(); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageInfer, "confidence threshold %v outside [0,1]", threshold)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// Fetching
	var raw *store.RawMedia
	err = o.runStage(ctx, pipeline.JobAnalyzeMedia, pipeline.StageFetch, true, func(ctx context.Context) error {
		var ferr error
		raw, ferr = o.store.GetObject(ctx, ref.Bucket, ref.Key)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	log.Debug("object fetched", "bytes", raw.Size, "content_type", raw.ContentType)

	// Decoding
	var img image.Image
	err = o.runStage(ctx, pipeline.JobAnalyzeMedia, pipeline.StageDecode, false, func(ctx context.Context) error {
		decoded, _, derr := image.Decode(bytes.NewReader(raw.Data))
		if derr != nil {
			return pipeline.Wrap(pipeline.KindInvalidInput, pipeline.StageDecode, derr, "undecodable image")
		}
		b := decoded.Bounds()
		if b.Dx() < 1 || b.Dy() < 1 {
			return pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageDecode, "image has empty pixel buffer")
		}
		img = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	raw = nil // payload is not needed past decode

	bounds := img.Bounds()
	log.Debug("image decoded", "width", bounds.Dx(), "height", bounds.Dy())

	// Inferring, bounded by the admission pool.
	var dets []vision.Detection
	var inferErr error
	err = o.admitted(pipeline.JobAnalyzeMedia, pipeline.StageInfer, func() {
		inferErr = o.runStage(ctx, pipeline.JobAnalyzeMedia, pipeline.StageInfer, true, func(ctx context.Context) error {
			var ierr error
			dets, ierr = o.detector.Detect(ctx, img, threshold)
			return ierr
		})
	})
	if err == nil {
		err = inferErr
	}
	if err != nil {
		return nil, err
	}

	// Normalizing
	var res *pipeline.DetectionResult
	err = o.runStage(ctx, pipeline.JobAnalyzeMedia, pipeline.StageNormalize, false, func(ctx context.Context) error {
		res = normalizeDetections(ref, dets, bounds.Dx(), bounds.Dy())
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.DurationMS = time.Since(start).Milliseconds()
	log.Info("analysis complete", "detections", len(res.Detections), "duration_ms", res.DurationMS)
	return res, nil
}

// SummarizeText runs the text pipeline: a single summarize stage under the
// same timeout, retry and admission rules as inference.
func (o *Orchestrator) SummarizeText(ctx context.Context, req pipeline.SummarizationRequest) (result *pipeline.SummarizationResult, err error) {
	start := time.Now()
	runID := uuid.New().String()
	log := o.logger.With("run_id", runID, "job", pipeline.JobSummarizeText)

	defer func() {
		if err != nil {
			o.metrics.RecordFailure(pipeline.JobSummarizeText, pipeline.KindOf(err))
			log.Warn("summarization failed", "kind", pipeline.KindOf(err), "err", err)
		}
	}()

	if isBlank(req.Text) {
		return nil, pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageSummarize, "text is empty")
	}
	count := req.SentenceCount
	if count <= 0 {
		count = o.defaultSentences
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var res *summarize.Result
	var sumErr error
	err = o.admitted(pipeline.JobSummarizeText, pipeline.StageSummarize, func() {
		sumErr = o.runStage(ctx, pipeline.JobSummarizeText, pipeline.StageSummarize, true, func(ctx context.Context) error {
			var serr error
			res, serr = o.summarizer.Summarize(ctx, req.Text, count)
			return serr
		})
	})
	if err == nil {
		err = sumErr
	}
	if err != nil {
		return nil, err
	}

	out := &pipeline.SummarizationResult{
		Summary:       res.Summary,
		SentenceCount: res.SentenceCount,
		DurationMS:    time.Since(start).Milliseconds(),
	}
	log.Info("summary complete", "sentences", out.SentenceCount, "duration_ms", out.DurationMS)
	return out, nil
}

// runStage times one stage and applies the retry policy: retryable failures
// (transient, engine unavailable) get exactly one more attempt after a short
// backoff; everything else surfaces immediately.
func (o *Orchestrator) runStage(ctx context.Context, job string, stage pipeline.Stage, retry bool, fn func(context.Context) error) error {
	attempt := func() error {
		start := time.Now()
		err := fn(ctx)
		o.metrics.ObserveStage(job, stage, time.Since(start))
		return pipeline.Classify(err, stage)
	}

	err := attempt()
	if err == nil || !retry || !pipeline.Retryable(err) {
		return err
	}

	o.logger.Debug("retrying stage", "job", job, "stage", stage, "err", err)
	select {
	case <-time.After(o.retryBackoff):
	case <-ctx.Done():
		return pipeline.Classify(ctx.Err(), stage)
	}
	return attempt()
}

// admitted runs fn through the nonblocking admission pool. When the pool is
// saturated the request is rejected with a capacity error instead of queued.
func (o *Orchestrator) admitted(job string, stage pipeline.Stage, fn func()) error {
	done := make(chan struct{})
	err := o.pool.Submit(func() {
		o.metrics.EngineCallStarted()
		defer o.metrics.EngineCallFinished()
		defer close(done)
		fn()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			o.metrics.RecordCapacityRejection()
			return pipeline.Errorf(pipeline.KindCapacityExceeded, stage, "engine capacity exhausted")
		}
		return pipeline.Wrap(pipeline.KindInternal, stage, err, "admit engine call")
	}
	// The engine honors context cancellation, so waiting here cannot hang
	// past the request budget.
	<-done
	return nil
}
