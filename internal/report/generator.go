// Package report turns detected tags into a report title, description and
// category. The primary path asks an OpenAI-compatible LLM endpoint; when
// that is unavailable it falls back to the extractive summarizer and a naive
// title.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ResQ-NG/resq-ai/internal/summarize"
)

const systemPrompt = `You generate a short incident report title and description from detected items.
Respond in exactly this format, nothing else:
Title: <at most 8 words>
Description: <2-3 neutral sentences>`

// Summarizer is the extractive fallback used when the LLM is unreachable.
type Summarizer interface {
	Summarize(ctx context.Context, text string, sentenceCount int) (*summarize.Result, error)
}

// Summary is a generated report header.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Generator produces report summaries via a chat-completion endpoint.
type Generator struct {
	client   openai.Client
	model    string
	fallback Summarizer
	logger   *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets a custom logger. Default is slog.Default().
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a generator against an OpenAI-compatible endpoint
// (Ollama, vLLM, or OpenAI itself). fallback must not be nil.
func NewGenerator(baseURL, apiKey, model string, fallback Summarizer, opts ...GeneratorOption) (*Generator, error) {
	if fallback == nil {
		return nil, ErrFallbackRequired
	}
	g := &Generator{
		client:   openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey)),
		model:    model,
		fallback: fallback,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds a title and description for the detected tags, with
// optional extra caller-provided context.
func (g *Generator) Generate(ctx context.Context, tags []string, extra []string) (*Summary, error) {
	if len(tags) == 0 {
		return nil, ErrNoTags
	}

	text := buildContext(tags, extra)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		g.logger.Warn("LLM generation failed, using extractive fallback", "err", err)
		return g.generateFallback(ctx, text)
	}
	if len(resp.Choices) == 0 {
		g.logger.Warn("LLM returned no choices, using extractive fallback")
		return g.generateFallback(ctx, text)
	}

	title, description, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		g.logger.Warn("unparseable LLM response, using extractive fallback", "err", err)
		return g.generateFallback(ctx, text)
	}

	return &Summary{
		Title:       title,
		Description: description,
		Category:    Categorize(title, description, nil),
	}, nil
}

func (g *Generator) generateFallback(ctx context.Context, text string) (*Summary, error) {
	res, err := g.fallback.Summarize(ctx, text, 2)
	if err != nil {
		return nil, fmt.Errorf("fallback summarization failed: %w", err)
	}
	title := NaiveTitle(res.Summary)
	return &Summary{
		Title:       title,
		Description: res.Summary,
		Category:    Categorize(title, res.Summary, nil),
	}, nil
}

func buildContext(tags []string, extra []string) string {
	base := fmt.Sprintf("user made a report and we found these items %s", strings.Join(tags, ", "))
	if len(extra) > 0 {
		return fmt.Sprintf("%s - report came with more information on %s", base, strings.Join(extra, ", "))
	}
	return base + " - user did not provide any extra information."
}

// parseResponse extracts the "Title: ... / Description: ..." fields.
func parseResponse(s string) (title, description string, err error) {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "Description:"):
			description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case description != "" && line != "":
			// Descriptions may wrap onto following lines.
			description += " " + line
		}
	}
	if title == "" || description == "" {
		return "", "", fmt.Errorf("missing title or description in %q", s)
	}
	return title, description, nil
}

// NaiveTitle takes the first 8 words, capitalized.
func NaiveTitle(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "Untitled"
	}
	n := len(words)
	if n > 8 {
		n = 8
	}
	title := strings.Join(words[:n], " ")
	title = strings.ToUpper(title[:1]) + title[1:]
	if len(words) > 8 {
		title += "..."
	}
	return title
}

// Ordered so categorization is deterministic.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"finance", []string{"invoice", "price", "cost", "budget", "payment"}},
	{"health", []string{"doctor", "hospital", "health", "medicine", "disease"}},
	{"technology", []string{"software", "app", "ai", "computer", "network"}},
	{"education", []string{"school", "teacher", "learning", "exam", "university"}},
	{"media", []string{"image", "video", "audio", "picture"}},
}

// Categorize assigns a coarse category by keyword match over the title,
// description and metadata values.
func Categorize(title, description string, metadata map[string]string) string {
	content := strings.ToLower(title + " " + description)
	if len(metadata) > 0 {
		var sb strings.Builder
		for _, v := range metadata {
			sb.WriteString(" ")
			sb.WriteString(v)
		}
		content += strings.ToLower(sb.String())
	}
	for _, cat := range categoryKeywords {
		for _, kw := range cat.keywords {
			if strings.Contains(content, kw) {
				return cat.name
			}
		}
	}
	return "other"
}
