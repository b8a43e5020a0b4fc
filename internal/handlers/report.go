package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ResQ-NG/resq-ai/internal/report"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// ReportHandler serves report header generation from detected tags.
type ReportHandler struct {
	gen    *report.Generator
	logger *slog.Logger
}

// NewReportHandler creates a report generation handler.
func NewReportHandler(gen *report.Generator, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{gen: gen, logger: logger}
}

type reportRequest struct {
	Tags  []string `json:"tags"`
	Extra []string `json:"extra,omitempty"`
}

// HandleGenerate handles POST /v1/report - builds a title, description and
// category from detected tags.
func (h *ReportHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "invalid request body: %v", err))
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "tags are required"))
		return
	}

	summary, err := h.gen.Generate(r.Context(), req.Tags, req.Extra)
	if err != nil {
		h.logger.Warn("report generation failed", "error", err)
		writeError(w, pipeline.Wrap(pipeline.KindInternal, "", err, "generate report"))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
