package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lakshyaranwan/hdfc-figma-reviewer/internal/apperr"
)

// RetryPolicy governs the retry wrapper. Rate limits back off
// exponentially with a cap; network-level failures retry on a shorter
// capped interval; auth rejections never retry (retrying cannot succeed).
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	NetworkDelay   time.Duration
	NetworkMaxWait time.Duration
}

// DefaultRetryPolicy returns the policy used for review calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		BaseDelay:      1 * time.Second,
		MaxDelay:       30 * time.Second,
		NetworkDelay:   500 * time.Millisecond,
		NetworkMaxWait: 5 * time.Second,
	}
}

// Retrier wraps a Client with the retry policy. After exhausting
// attempts it returns the last-seen error so callers can produce a
// specific diagnostic rather than a generic failure.
type Retrier struct {
	inner  Client
	policy RetryPolicy
	logger *zap.Logger

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// NewRetrier wraps a client with the default policy.
func NewRetrier(inner Client, logger *zap.Logger) *Retrier {
	return NewRetrierWithPolicy(inner, DefaultRetryPolicy(), logger)
}

// NewRetrierWithPolicy wraps a client with a custom policy.
func NewRetrierWithPolicy(inner Client, policy RetryPolicy, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrier{inner: inner, policy: policy, logger: logger, sleep: time.Sleep}
}

// Model returns the wrapped client's model identifier.
func (r *Retrier) Model() string { return r.inner.Model() }

// CompleteWithSystem calls the wrapped client under the retry policy.
func (r *Retrier) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.delayFor(lastErr, attempt)
			r.logger.Warn("retrying model call",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			r.sleep(delay)
		}

		out, err := r.inner.CompleteWithSystem(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		lastErr = err

		// Fatal classes: retrying cannot change the outcome.
		var cfgErr *apperr.ConfigError
		if errors.Is(err, apperr.ErrUpstreamAuth) ||
			errors.Is(err, apperr.ErrQuotaExhausted) ||
			errors.As(err, &cfgErr) ||
			ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}

func (r *Retrier) delayFor(err error, attempt int) time.Duration {
	var rl *apperr.RateLimitError
	if errors.As(err, &rl) {
		d := r.policy.BaseDelay << uint(attempt-1)
		if d > r.policy.MaxDelay {
			d = r.policy.MaxDelay
		}
		return d
	}
	// Network-level failure: shorter capped backoff.
	d := r.policy.NetworkDelay << uint(attempt-1)
	if d > r.policy.NetworkMaxWait {
		d = r.policy.NetworkMaxWait
	}
	return d
}
