package workflows

import (
	"log/slog"

	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// SummarizeWorkflow runs extractive summarization over submitted text.
type SummarizeWorkflow struct {
	orc    *orchestrator.Orchestrator
	logger *slog.Logger
}

func NewSummarizeWorkflow(orc *orchestrator.Orchestrator, logger *slog.Logger) *SummarizeWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeWorkflow{orc: orc, logger: logger}
}

func (w *SummarizeWorkflow) Name() string {
	return pipeline.JobSummarizeText
}

func (w *SummarizeWorkflow) Execute(wctx *WorkflowContext) (*WorkflowResult, error) {
	req := wctx.Request

	result, err := w.orc.SummarizeText(wctx.Ctx, pipeline.SummarizationRequest{
		Text:          req.Text,
		SentenceCount: req.SentenceCount,
	})
	if err != nil {
		return &WorkflowResult{Success: false, Error: err}, err
	}

	return &WorkflowResult{
		Success: true,
		Outputs: map[string]interface{}{
			"result": result,
		},
	}, nil
}
