package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// scriptedClient returns one canned result per call, in order, repeating
// the last entry once the script runs out.
type scriptedClient struct {
	script []error
	out    string
	calls  int
}

func (c *scriptedClient) Model() string { return "test-model" }

func (c *scriptedClient) CompleteWithSystem(context.Context, string, string) (string, error) {
	i := c.calls
	c.calls++
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	if err := c.script[i]; err != nil {
		return "", err
	}
	return c.out, nil
}

func newTestRetrier(inner Client) (*Retrier, *[]time.Duration) {
	r := NewRetrier(inner, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &slept
}

func TestRetrier_RateLimitThenSuccess(t *testing.T) {
	inner := &scriptedClient{
		script: []error{&apperr.RateLimitError{}, &apperr.RateLimitError{}, nil},
		out:    "[]",
	}
	r, slept := newTestRetrier(inner)

	out, err := r.CompleteWithSystem(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteWithSystem() error = %v", err)
	}
	if out != "[]" {
		t.Fatalf("out = %q", out)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
	// Exponential: 1s then 2s.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v", *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Fatalf("slept[%d] = %v, want %v", i, (*slept)[i], d)
		}
	}
}

func TestRetrier_RateLimitBackoffCapped(t *testing.T) {
	inner := &scriptedClient{script: []error{&apperr.RateLimitError{}}}
	policy := RetryPolicy{
		MaxAttempts: 8,
		BaseDelay:   10 * time.Second,
		MaxDelay:    30 * time.Second,
	}
	r := NewRetrierWithPolicy(inner, policy, nil)
	var slept []time.Duration
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	_, err := r.CompleteWithSystem(context.Background(), "", "u")
	var rl *apperr.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v, want the last RateLimitError", err)
	}
	for _, d := range slept {
		if d > policy.MaxDelay {
			t.Fatalf("delay %v exceeds cap %v", d, policy.MaxDelay)
		}
	}
	if slept[len(slept)-1] != policy.MaxDelay {
		t.Fatalf("final delay = %v, want capped at %v", slept[len(slept)-1], policy.MaxDelay)
	}
}

func TestRetrier_NetworkErrorShortBackoff(t *testing.T) {
	inner := &scriptedClient{
		script: []error{fmt.Errorf("request failed: connection refused"), nil},
		out:    "ok",
	}
	r, slept := newTestRetrier(inner)

	if _, err := r.CompleteWithSystem(context.Background(), "", "u"); err != nil {
		t.Fatalf("CompleteWithSystem() error = %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != 500*time.Millisecond {
		t.Fatalf("slept %v, want single 500ms network delay", *slept)
	}
}

func TestRetrier_AuthNotRetried(t *testing.T) {
	inner := &scriptedClient{
		script: []error{fmt.Errorf("provider status 401: %w", apperr.ErrUpstreamAuth)},
	}
	r, slept := newTestRetrier(inner)

	_, err := r.CompleteWithSystem(context.Background(), "", "u")
	if !errors.Is(err, apperr.ErrUpstreamAuth) {
		t.Fatalf("error = %v, want ErrUpstreamAuth", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, auth errors must not retry", inner.calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("slept %v, want none", *slept)
	}
}

func TestRetrier_QuotaNotRetried(t *testing.T) {
	inner := &scriptedClient{
		script: []error{fmt.Errorf("provider status 402: %w", apperr.ErrQuotaExhausted)},
	}
	r, _ := newTestRetrier(inner)

	_, err := r.CompleteWithSystem(context.Background(), "", "u")
	if !errors.Is(err, apperr.ErrQuotaExhausted) || inner.calls != 1 {
		t.Fatalf("error = %v after %d calls", err, inner.calls)
	}
}

func TestRetrier_ConfigErrorNotRetried(t *testing.T) {
	inner := &scriptedClient{
		script: []error{&apperr.ConfigError{Key: "llm.api_key", Msg: "missing"}},
	}
	r, _ := newTestRetrier(inner)

	_, err := r.CompleteWithSystem(context.Background(), "", "u")
	var cfgErr *apperr.ConfigError
	if !errors.As(err, &cfgErr) || inner.calls != 1 {
		t.Fatalf("error = %v after %d calls", err, inner.calls)
	}
}

func TestRetrier_ExhaustionReturnsLastError(t *testing.T) {
	last := fmt.Errorf("request failed: still down")
	inner := &scriptedClient{script: []error{last}}
	r, _ := newTestRetrier(inner)

	_, err := r.CompleteWithSystem(context.Background(), "", "u")
	if !errors.Is(err, last) {
		t.Fatalf("error = %v, want last inner error", err)
	}
	if inner.calls != DefaultRetryPolicy().MaxAttempts {
		t.Fatalf("calls = %d, want %d", inner.calls, DefaultRetryPolicy().MaxAttempts)
	}
}

func TestRetrier_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &scriptedClient{script: []error{fmt.Errorf("request failed: %w", context.Canceled)}}
	r, _ := newTestRetrier(inner)

	cancel()
	_, err := r.CompleteWithSystem(ctx, "", "u")
	if err == nil || inner.calls != 1 {
		t.Fatalf("error = %v after %d calls, want immediate stop", err, inner.calls)
	}
}

func TestMapStatus(t *testing.T) {
	if err := mapStatus(200, nil); err != nil {
		t.Fatalf("200 mapped to %v", err)
	}
	if err := mapStatus(401, nil); !errors.Is(err, apperr.ErrUpstreamAuth) {
		t.Fatalf("401 mapped to %v", err)
	}
	if err := mapStatus(402, nil); !errors.Is(err, apperr.ErrQuotaExhausted) {
		t.Fatalf("402 mapped to %v", err)
	}
	var rl *apperr.RateLimitError
	if err := mapStatus(429, nil); !errors.As(err, &rl) {
		t.Fatalf("429 mapped to %v", err)
	}
	if err := mapStatus(500, []byte("boom")); err == nil {
		t.Fatalf("500 mapped to nil")
	}
}
