package batch

import (
	"sync/atomic"
	"time"
)

// CircuitBreaker trips after a run of consecutive failures and stays open
// until the cooling-off period since the last failure elapses or a success is
// recorded, whichever comes first. There is no half-open state.
//
// The breaker gates dispatch latency, not execution: callers wait while it is
// open rather than receiving an error. All state is manipulated with atomics
// because RecordFailure may race with IsOpen checks from the dispatch loop.
type CircuitBreaker struct {
	failureThreshold int64
	coolingOff       time.Duration

	consecutiveFailures atomic.Int64
	// lastFailureNanos is the most recent failure time in unix nanoseconds,
	// 0 before the first failure.
	lastFailureNanos atomic.Int64

	nowFn func() time.Time
}

// NewCircuitBreaker returns a closed breaker. Non-positive arguments fall
// back to a threshold of 1 and a zero cooling-off (never effectively open).
func NewCircuitBreaker(failureThreshold int, coolingOff time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if coolingOff < 0 {
		coolingOff = 0
	}
	return &CircuitBreaker{
		failureThreshold: int64(failureThreshold),
		coolingOff:       coolingOff,
		nowFn:            time.Now,
	}
}

// RecordFailure notes one failed unit and refreshes the failure timestamp.
func (b *CircuitBreaker) RecordFailure() {
	b.consecutiveFailures.Add(1)
	b.lastFailureNanos.Store(b.nowFn().UnixNano())
}

// RecordSuccess resets the consecutive failure streak, closing an open
// breaker immediately.
func (b *CircuitBreaker) RecordSuccess() {
	b.consecutiveFailures.Store(0)
}

// IsOpen reports whether the streak has reached the threshold and the
// cooling-off window since the last failure has not yet elapsed.
func (b *CircuitBreaker) IsOpen() bool {
	if b.consecutiveFailures.Load() < b.failureThreshold {
		return false
	}
	last := b.lastFailureNanos.Load()
	return b.nowFn().Sub(time.Unix(0, last)) < b.coolingOff
}

// CoolingOffRemaining returns how long the breaker stays open, zero when
// closed.
func (b *CircuitBreaker) CoolingOffRemaining() time.Duration {
	if b.consecutiveFailures.Load() < b.failureThreshold {
		return 0
	}
	last := b.lastFailureNanos.Load()
	remaining := b.coolingOff - b.nowFn().Sub(time.Unix(0, last))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ConsecutiveFailures exposes the current streak, mainly for logging.
func (b *CircuitBreaker) ConsecutiveFailures() int {
	return int(b.consecutiveFailures.Load())
}
