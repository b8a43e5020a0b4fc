package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ResQ-NG/resq-ai/internal/workflows"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// AsyncHandler handles asynchronous workflow requests
type AsyncHandler struct {
	workflowRunner *workflows.WorkflowRunner
	logger         *slog.Logger
}

// NewAsyncHandler creates a new async handler
func NewAsyncHandler(runner *workflows.WorkflowRunner, logger *slog.Logger) *AsyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncHandler{
		workflowRunner: runner,
		logger:         logger,
	}
}

// HandleProcessAsync handles POST /v1/process - enqueues workflow and returns immediately
func (h *AsyncHandler) HandleProcessAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req pipeline.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "invalid request body: %v", err))
		return
	}

	switch req.Job {
	case pipeline.JobAnalyzeMedia:
		if req.Bucket == "" || req.Key == "" {
			writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "bucket and key are required for %s", req.Job))
			return
		}
	case pipeline.JobSummarizeText:
		if req.Text == "" {
			writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "text is required for %s", req.Job))
			return
		}
	case "":
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "job is required"))
		return
	default:
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "unknown job %q", req.Job))
		return
	}

	h.logger.Info("enqueueing workflow", "job", req.Job, "bucket", req.Bucket, "key", req.Key)

	// Enqueue workflow (non-blocking)
	runID, err := h.workflowRunner.RunAsync(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to enqueue workflow", "job", req.Job, "error", err)
		writeError(w, pipeline.Wrap(pipeline.KindInternal, "", err, "failed to enqueue workflow"))
		return
	}

	h.logger.Info("workflow enqueued", "run_id", runID)

	writeJSON(w, http.StatusAccepted, pipeline.ProcessResponse{
		RunID: runID,
	})
}

// HandleStatus handles GET /v1/runs/{runID} - returns workflow status
func (h *AsyncHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	runID := r.URL.Path[len("/v1/runs/"):]
	if runID == "" {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "run_id is required"))
		return
	}

	status, err := h.workflowRunner.GetStatus(r.Context(), runID)
	if err != nil {
		h.logger.Warn("failed to get workflow status", "run_id", runID, "error", err)
		writeError(w, pipeline.Errorf(pipeline.KindNotFound, "", "workflow %s not found", runID))
		return
	}

	writeJSON(w, http.StatusOK, status)
}
