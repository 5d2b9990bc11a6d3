// Package apperr defines the error taxonomy shared across the review
// pipeline. Sentinel values cover conditions callers branch on with
// errors.Is; the typed errors carry diagnostics for the API layer.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound signals a missing file, node set, or settings key.
	ErrNotFound = errors.New("not found")

	// ErrNodeNotFound signals that extraction produced zero nodes.
	ErrNodeNotFound = errors.New("no nodes found in document")

	// ErrUpstreamAuth signals a 401/403 from Figma or the LLM provider.
	// Never retried; the credential has to be fixed by the user.
	ErrUpstreamAuth = errors.New("upstream rejected credentials")

	// ErrQuotaExhausted signals a provider-side spending/quota stop (402).
	ErrQuotaExhausted = errors.New("provider quota exhausted")
)

// ConfigError is a missing or unusable local configuration value.
// Fatal, surfaced verbatim, never retried.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return "config: " + e.Msg
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// RateLimitError is a 429 that survived the retry policy.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// EmptyResponseError means the model returned nothing. Distinguished from
// ParseError because it usually indicates upstream truncation (token
// limits), not malformed output.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string {
	return "model returned an empty response (output token limit?)"
}

// ParseError means no JSON array could be recovered from the model text.
// Excerpt holds the head of the offending text for diagnosis.
type ParseError struct {
	Excerpt string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unparseable model output: %v (excerpt: %q)", e.Cause, e.Excerpt)
	}
	return fmt.Sprintf("unparseable model output (excerpt: %q)", e.Excerpt)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// DispatchError is one failed comment/edit inside a batch. Collected,
// never aborts the remaining items.
type DispatchError struct {
	Index int
	Cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Cause)
}

func (e *DispatchError) Unwrap() error { return e.Cause }
