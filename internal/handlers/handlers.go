// Package handlers exposes the synchronous and asynchronous HTTP API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Handler serves the synchronous analysis endpoints.
type Handler struct {
	orc    *orchestrator.Orchestrator
	logger *slog.Logger
}

// NewHandler creates a new synchronous API handler.
func NewHandler(orc *orchestrator.Orchestrator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orc: orc, logger: logger}
}

type analyzeRequest struct {
	Bucket              string   `json:"bucket"`
	Key                 string   `json:"key"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
}

type summarizeRequest struct {
	Text          string `json:"text"`
	SentenceCount int    `json:"sentence_count,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
}

// HandleAnalyze handles POST /v1/analyze - runs the detection pipeline and
// blocks until the result is ready.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "invalid request body: %v", err))
		return
	}
	if req.Bucket == "" {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "bucket is required"))
		return
	}
	if req.Key == "" {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "key is required"))
		return
	}

	ref := pipeline.MediaReference{Bucket: req.Bucket, Key: req.Key}

	var (
		result *pipeline.DetectionResult
		err    error
	)
	if req.ConfidenceThreshold != nil {
		result, err = h.orc.AnalyzeMediaWithThreshold(r.Context(), ref, *req.ConfidenceThreshold)
	} else {
		result, err = h.orc.AnalyzeMedia(r.Context(), ref)
	}
	if err != nil {
		h.logger.Warn("analyze failed",
			"source", ref.String(),
			"kind", string(pipeline.KindOf(err)),
			"stage", string(pipeline.StageOf(err)),
			"error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleSummarize handles POST /v1/summarize - runs extractive summarization
// over the submitted text.
func (h *Handler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, pipeline.Errorf(pipeline.KindInvalidInput, "", "invalid request body: %v", err))
		return
	}

	result, err := h.orc.SummarizeText(r.Context(), pipeline.SummarizationRequest{
		Text:          req.Text,
		SentenceCount: req.SentenceCount,
	})
	if err != nil {
		h.logger.Warn("summarize failed",
			"kind", string(pipeline.KindOf(err)),
			"error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, pipeline.HTTPStatus(err), errorResponse{
		Error: err.Error(),
		Kind:  string(pipeline.KindOf(err)),
		Stage: string(pipeline.StageOf(err)),
	})
}
