// Package client is an HTTP client for the analysis API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// Client is an HTTP client for triggering media analysis and summarization
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewWithHTTPClient creates a new API client with a custom HTTP client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Analyze runs synchronous media analysis and blocks until the result is ready
func (c *Client) Analyze(ctx context.Context, bucket, key string, threshold *float64) (*pipeline.DetectionResult, error) {
	req := map[string]interface{}{
		"bucket": bucket,
		"key":    key,
	}
	if threshold != nil {
		req["confidence_threshold"] = *threshold
	}

	var result pipeline.DetectionResult
	if err := c.post(ctx, "/v1/analyze", req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Summarize runs synchronous extractive summarization
func (c *Client) Summarize(ctx context.Context, text string, sentenceCount int) (*pipeline.SummarizationResult, error) {
	req := pipeline.SummarizationRequest{
		Text:          text,
		SentenceCount: sentenceCount,
	}

	var result pipeline.SummarizationResult
	if err := c.post(ctx, "/v1/summarize", req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Process enqueues an async job and returns the run ID immediately
func (c *Client) Process(ctx context.Context, req pipeline.ProcessRequest) (*pipeline.ProcessResponse, error) {
	var resp pipeline.ProcessResponse
	if err := c.post(ctx, "/v1/process", req, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, req interface{}, wantStatus int, out interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
