package batch

import (
	"context"
	"strings"
	"time"
)

// retryableKeywords is the substring vocabulary that marks a remote failure
// as transient. Matching is case-insensitive. The list mirrors the upstream
// mail provider's transient error phrasing.
var retryableKeywords = []string{
	"timeout",
	"temporary",
	"service unavailable",
	"rate limit",
	"quota exceeded",
	"internal error",
	"backend error",
	"too many concurrent requests",
	"user rate limit exceeded",
}

// IsRetryableMessage reports whether msg describes a transient failure worth
// retrying. Empty messages are not retryable.
func IsRetryableMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	for _, kw := range retryableKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsRetryableError applies IsRetryableMessage to err's text. Nil errors are
// not retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return IsRetryableMessage(err.Error())
}

// BackoffPolicy computes exponential retry delays. No jitter: dispatch is
// single-threaded per operation, so synchronized retries are not a concern.
type BackoffPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

// Delay returns the sleep before retry number attempt (0-based), clamped to
// Max: Initial * Multiplier^attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	d := float64(p.Initial)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
		if time.Duration(d) >= p.Max {
			return p.Max
		}
	}
	if time.Duration(d) > p.Max {
		return p.Max
	}
	return time.Duration(d)
}

// sleepCtx blocks for d or until ctx is done, returning ctx.Err() in the
// latter case. All pacing in the orchestrator goes through it so that
// cancellation never waits out a backoff.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
