package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure for retry and surfacing decisions.
type Kind string

const (
	// KindInvalidInput covers malformed references, undecodable media and
	// empty text. Never retried; surfaced as a client error.
	KindInvalidInput Kind = "invalid_input"

	// KindNotFound means the referenced object does not exist.
	KindNotFound Kind = "not_found"

	// KindUnauthorized means the store denied access. Errors of this kind
	// must not carry credential detail.
	KindUnauthorized Kind = "unauthorized"

	// KindTransient covers network blips and short-lived store or backend
	// failures. Retried once with backoff.
	KindTransient Kind = "transient"

	// KindEngineUnavailable means a model or algorithm backend is down.
	// Treated as transient for retry purposes.
	KindEngineUnavailable Kind = "engine_unavailable"

	// KindTimeout means the end-to-end request budget was exceeded.
	KindTimeout Kind = "timeout"

	// KindCapacityExceeded means the in-flight inference limit was hit.
	// Surfaced immediately without retry.
	KindCapacityExceeded Kind = "capacity_exceeded"

	// KindInternal is the fallback for unclassified failures.
	KindInternal Kind = "internal"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageDecode    Stage = "decode"
	StageInfer     Stage = "infer"
	StageNormalize Stage = "normalize"
	StageSummarize Stage = "summarize"
)

// Error is a classified pipeline failure. It records which stage failed so
// callers can distinguish a bad object reference from a model failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Stage != "" {
		s = string(e.Stage) + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, stage Stage, format string, args ...any) error {
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. A nil err returns nil.
func Wrap(kind Kind, stage Stage, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Stage: stage, Msg: msg, Err: err}
}

// Classify ensures err carries a classification. Already-classified errors
// pass through (with the stage filled in if missing), context deadline errors
// become timeouts, and anything else is internal.
func Classify(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Stage == "" {
			pe.Stage = stage
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, stage, err, "request budget exceeded")
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(KindTimeout, stage, err, "request canceled")
	}
	return Wrap(KindInternal, stage, err, "")
}

// KindOf extracts the classification, defaulting to KindInternal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// StageOf extracts the failing stage, if any.
func StageOf(err error) Stage {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}

// Retryable reports whether the orchestrator may retry the failed call once.
// Only transient and engine-unavailable failures qualify.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindEngineUnavailable:
		return true
	}
	return false
}

// IsClientError reports whether the failure is the caller's fault.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindNotFound, KindUnauthorized:
		return true
	}
	return false
}

// HTTPStatus maps a classified error to an HTTP status code for the API layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusForbidden
	case KindCapacityExceeded:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindTransient, KindEngineUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
