// Package summarize implements extractive text summarization by ranking
// sentences over a lexical similarity graph and reassembling the top-ranked
// ones in their original order of appearance.
package summarize

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ResQ-NG/resq-ai/pkg/pipeline"
)

// DefaultSentenceCount is used when a request does not specify one.
const DefaultSentenceCount = 2

// Result holds the assembled summary and the number of sentences produced.
type Result struct {
	Summary       string
	SentenceCount int
}

// Engine produces extractive summaries. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	defaultSentences int
	logger           *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultSentences sets the sentence count used when a request does not
// specify one. Values below 1 are ignored.
func WithDefaultSentences(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.defaultSentences = n
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a summarization engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		defaultSentences: DefaultSentenceCount,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summarize reduces text to at most sentenceCount sentences. Texts with
// fewer sentences than requested come back whole with the actual count;
// empty or whitespace-only input is rejected. Output is deterministic for
// identical input and contains only sentences present in the source.
func (e *Engine) Summarize(ctx context.Context, text string, sentenceCount int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, pipeline.Classify(err, pipeline.StageSummarize)
	}
	if strings.TrimSpace(text) == "" {
		return nil, pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageSummarize, "text is empty")
	}
	if sentenceCount <= 0 {
		sentenceCount = e.defaultSentences
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, pipeline.Errorf(pipeline.KindInvalidInput, pipeline.StageSummarize, "no sentences found")
	}

	if len(sentences) <= sentenceCount {
		return &Result{
			Summary:       strings.Join(sentences, " "),
			SentenceCount: len(sentences),
		}, nil
	}

	scores := rankSentences(sentences)

	// Top-k by score; ties resolve to the earlier sentence to keep the
	// selection stable.
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	picked := order[:sentenceCount]
	sort.Ints(picked)

	selected := make([]string, len(picked))
	for i, idx := range picked {
		selected[i] = sentences[idx]
	}

	e.logger.Debug("summary assembled",
		"source_sentences", len(sentences), "selected", len(selected))

	return &Result{
		Summary:       strings.Join(selected, " "),
		SentenceCount: len(selected),
	}, nil
}
