package orchestrator

import "errors"

var (
	// ErrStoreRequired is returned when no object store is provided.
	ErrStoreRequired = errors.New("object store required")

	// ErrDetectorRequired is returned when no detector is provided.
	ErrDetectorRequired = errors.New("detector required")

	// ErrSummarizerRequired is returned when no summarizer is provided.
	ErrSummarizerRequired = errors.New("summarizer required")

	// ErrInvalidThreshold is returned for thresholds outside [0,1].
	ErrInvalidThreshold = errors.New("confidence threshold outside [0,1]")
)
