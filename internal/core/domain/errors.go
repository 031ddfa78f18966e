package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPipelineRunning indicates another pipeline run holds the run guard.
	ErrPipelineRunning = errors.New("pipeline run already in progress")

	// ErrRunLeaseLost indicates the run lease expired and was claimed by
	// another process while this run was still going.
	ErrRunLeaseLost = errors.New("pipeline run lease lost")

	// ErrFetchIncomplete indicates the fetcher stopped before signalling
	// that every page in range was retrieved.
	ErrFetchIncomplete = errors.New("fetch ended before all pages were retrieved")

	// ErrInferenceUnavailable indicates no inference provider is configured.
	ErrInferenceUnavailable = errors.New("inference provider unavailable")

	// ErrUnsupportedProvider indicates an unknown inference provider name.
	ErrUnsupportedProvider = errors.New("unsupported inference provider")
)

// TransientFetchError is a retryable upstream failure: network errors,
// 5xx responses and rate limiting (429).
type TransientFetchError struct {
	// StatusCode is the HTTP status, or 0 for network-level failures.
	StatusCode int

	// RetryAfter is the server-requested delay, if any.
	RetryAfter time.Duration

	// Err is the underlying cause.
	Err error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error: %v", e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// FatalFetchError is a non-retryable upstream failure, typically a
// schema-incompatible response or a client error.
type FatalFetchError struct {
	// StatusCode is the HTTP status, or 0 when the body failed to decode.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *FatalFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal fetch error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fatal fetch error: %v", e.Err)
}

func (e *FatalFetchError) Unwrap() error { return e.Err }

// IsTransient reports whether err is or wraps a TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsFatal reports whether err is or wraps a FatalFetchError.
func IsFatal(err error) bool {
	var fe *FatalFetchError
	return errors.As(err, &fe)
}

// ValidationError records a raw record dropped during normalisation.
// It never aborts a pipeline run.
type ValidationError struct {
	// DocumentID is the upstream identifier, if present.
	DocumentID string

	// Field is the offending field.
	Field string

	// Reason describes the problem.
	Reason string
}

func (e *ValidationError) Error() string {
	id := e.DocumentID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("validation error: record %s: %s %s", id, e.Field, e.Reason)
}

// ToolCallParseError indicates a model response that is neither a usable
// answer nor a well-formed tool call.
type ToolCallParseError struct {
	// Reason describes why parsing failed.
	Reason string
}

func (e *ToolCallParseError) Error() string {
	return "tool call parse error: " + e.Reason
}

// InvalidToolCallError indicates a tool call naming an unknown tool or
// carrying arguments outside the tool's declared schema.
type InvalidToolCallError struct {
	// Tool is the requested tool name.
	Tool string

	// Reason describes the violation.
	Reason string
}

func (e *InvalidToolCallError) Error() string {
	return fmt.Sprintf("invalid call to tool %q: %s", e.Tool, e.Reason)
}

// IsInvalidToolCall reports whether err is or wraps an InvalidToolCallError.
func IsInvalidToolCall(err error) bool {
	var ie *InvalidToolCallError
	return errors.As(err, &ie)
}

// ToolTurnBudgetExceeded indicates the model asked for more tool calls than
// a single utterance allows.
type ToolTurnBudgetExceeded struct {
	// Limit is the configured maximum.
	Limit int
}

func (e *ToolTurnBudgetExceeded) Error() string {
	return fmt.Sprintf("tool turn budget of %d exceeded", e.Limit)
}
