package report

import "errors"

var (
	// ErrFallbackRequired is returned when no fallback summarizer is provided.
	ErrFallbackRequired = errors.New("fallback summarizer required")

	// ErrNoTags is returned when a report has no detected tags to describe.
	ErrNoTags = errors.New("no tags to summarize")
)
