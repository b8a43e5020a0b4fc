// Package runner provides a high-level API for running analysis workflows
// via DBOS, either embedded in a server process or as a dedicated worker.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ResQ-NG/resq-ai/internal/dbosruntime"
	"github.com/ResQ-NG/resq-ai/internal/dedupe"
	"github.com/ResQ-NG/resq-ai/internal/orchestrator"
	"github.com/ResQ-NG/resq-ai/internal/workflows"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Config holds the configuration for initializing the workflow runner
type Config struct {
	DatabaseURL        string // DBOS PostgreSQL connection string
	AppName            string // Application name for DBOS
	QueueName          string // DBOS queue name
	Concurrency        int    // Number of concurrent workers
	ApplicationVersion string // Optional: Override binary hash for version matching
	Logger             *slog.Logger
}

// Runner executes analysis workflows via DBOS
type Runner struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
	tracker *dedupe.Tracker
}

// New creates and initializes a workflow runner with DBOS integration.
// The orchestrator carries the actual pipeline; the runner adds durable
// execution and dedupe bookkeeping around it.
func New(cfg Config, orc *orchestrator.Orchestrator) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL:        cfg.DatabaseURL,
		AppName:            cfg.AppName,
		QueueName:          cfg.QueueName,
		Concurrency:        cfg.Concurrency,
		ApplicationVersion: cfg.ApplicationVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	tracker, err := dedupe.NewTracker(dbosRuntime.DB())
	if err != nil {
		logger.Warn("dedupe tracker unavailable", "error", err)
		tracker = nil
	}

	workflowRunner.Register(pipeline.JobAnalyzeMedia, workflows.NewAnalyzeWorkflow(orc, tracker, logger))
	workflowRunner.Register(pipeline.JobSummarizeText, workflows.NewSummarizeWorkflow(orc, logger))

	// Launch DBOS (must be after workflow registration)
	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Runner{
		runtime: dbosRuntime,
		runner:  workflowRunner,
		tracker: tracker,
	}, nil
}

// WorkflowRunner exposes the underlying workflow runner for HTTP handlers.
func (r *Runner) WorkflowRunner() *workflows.WorkflowRunner {
	return r.runner
}

// RunAnalyze enqueues a media analysis workflow
func (r *Runner) RunAnalyze(ctx context.Context, bucket, key string, threshold *float64) (string, error) {
	return r.runner.RunAsync(ctx, pipeline.ProcessRequest{
		Job:                 pipeline.JobAnalyzeMedia,
		Bucket:              bucket,
		Key:                 key,
		ConfidenceThreshold: threshold,
	})
}

// RunSummarize enqueues a text summarization workflow
func (r *Runner) RunSummarize(ctx context.Context, text string, sentenceCount int) (string, error) {
	return r.runner.RunAsync(ctx, pipeline.ProcessRequest{
		Job:           pipeline.JobSummarizeText,
		Text:          text,
		SentenceCount: sentenceCount,
	})
}

// RunLegacyDetection starts the detection workflow by name for workers
// implemented in another language
func (r *Runner) RunLegacyDetection(ctx context.Context, bucket, key string) (string, error) {
	return r.runtime.StartWorkflowByName(ctx, "detect_objects_workflow", bucket, key, nil)
}

// Shutdown gracefully shuts down the runner
func (r *Runner) Shutdown(timeoutSeconds int) {
	if r.runtime != nil {
		r.runtime.Shutdown(time.Duration(timeoutSeconds) * time.Second)
	}
}
