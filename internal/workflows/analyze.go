package workflows

import (
	"log/slog"

	"github.com/ResQ-NG/resq-ai/internal/dedupe"
	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// AnalyzeWorkflow runs the media analysis pipeline for one object reference.
type AnalyzeWorkflow struct {
	orc     *orchestrator.Orchestrator
	tracker *dedupe.Tracker
	logger  *slog.Logger
}

// NewAnalyzeWorkflow creates the media analysis workflow. tracker may be nil
// when no database is configured.
func NewAnalyzeWorkflow(orc *orchestrator.Orchestrator, tracker *dedupe.Tracker, logger *slog.Logger) *AnalyzeWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeWorkflow{orc: orc, tracker: tracker, logger: logger}
}

func (w *AnalyzeWorkflow) Name() string {
	return pipeline.JobAnalyzeMedia
}

func (w *AnalyzeWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	req := wctx.Request
	ref := pipeline.MediaReference{Bucket: req.Bucket, Key: req.Key}

	seenCount := 0
	if w.tracker != nil {
		n, err := w.tracker.Record(wctx.Ctx, ref.String(), pipeline.JobAnalyzeMedia)
		if err != nil {
			// Dedupe bookkeeping is advisory; the analysis still runs.
			w.logger.Warn("dedupe record failed", "source", ref.String(), "error", err)
		} else {
			seenCount = n
			if n > 1 {
				w.logger.Info("duplicate submission", "source", ref.String(), "seen_count", n)
			}
		}
	}

	var (
		result *pipeline.DetectionResult
		err    error
	)
	if req.ConfidenceThreshold != nil {
		result, err = w.orc.AnalyzeMediaWithThreshold(wctx.Ctx, ref, *req.ConfidenceThreshold)
	} else {
		result, err = w.orc.AnalyzeMedia(wctx.Ctx, ref)
	}
	if err != nil {
		return &WorkflowResult{Success: false, Error: err}, err
	}

	return &WorkflowResult{
		Success: true,
		Outputs: map[string]interface{}{
			"result":     result,
			"seen_count": seenCount,
		},
	}, nil
}
