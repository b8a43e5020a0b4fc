package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ResQ-NG/resq-ai/internal/dbosruntime"
	"github.com/ResQ-NG/resq-ai/internal/workflows"
	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Client provides a client-only API for starting workflows without executing them
// Use this in applications that want to enqueue workflows for workers to execute
type Client struct {
	runtime *dbosruntime.Runtime
	runner  *workflows.WorkflowRunner
}

// NewClient creates a client that can start workflows but doesn't execute them
// Workers must be running separately to execute the enqueued workflows
func NewClient(cfg Config) (*Client, error) {
	dbosRuntime, err := dbosruntime.NewRuntime(context.Background(), dbosruntime.Config{
		DatabaseURL: cfg.DatabaseURL,
		AppName:     cfg.AppName,
		QueueName:   cfg.QueueName,
		Concurrency: 0, // Client mode: don't process workflows
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DBOS: %w", err)
	}

	// Workflow runner for enqueueing only, no registration
	workflowRunner := workflows.NewWorkflowRunner(dbosRuntime)

	if err := dbosRuntime.Launch(); err != nil {
		return nil, fmt.Errorf("failed to launch DBOS: %w", err)
	}

	return &Client{
		runtime: dbosRuntime,
		runner:  workflowRunner,
	}, nil
}

// RunAnalyze enqueues a media analysis workflow for workers to execute
func (c *Client) RunAnalyze(ctx context.Context, bucket, key string, threshold *float64) (string, error) {
	return c.runner.RunAsync(ctx, pipeline.ProcessRequest{
		Job:                 pipeline.JobAnalyzeMedia,
		Bucket:              bucket,
		Key:                 key,
		ConfidenceThreshold: threshold,
	})
}

// RunSummarize enqueues a text summarization workflow for workers to execute
func (c *Client) RunSummarize(ctx context.Context, text string, sentenceCount int) (string, error) {
	return c.runner.RunAsync(ctx, pipeline.ProcessRequest{
		Job:           pipeline.JobSummarizeText,
		Text:          text,
		SentenceCount: sentenceCount,
	})
}

// Shutdown gracefully shuts down the client
func (c *Client) Shutdown(timeoutSeconds int) {
	if c.runtime != nil {
		c.runtime.Shutdown(time.Duration(timeoutSeconds) * time.Second)
	}
}
