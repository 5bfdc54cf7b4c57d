package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fixedClock lets breaker tests advance time deterministically.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }
func (c *fixedClock) fn() func() time.Time    { return func() time.Time { return c.now } }

func newTestBreaker(threshold int, coolingOff time.Duration) (*CircuitBreaker, *fixedClock) {
	clock := &fixedClock{now: time.Unix(1_700_000_000, 0)}
	b := NewCircuitBreaker(threshold, coolingOff)
	b.nowFn = clock.fn()
	return b, clock
}

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
	assert.Equal(t, 3, b.ConsecutiveFailures())
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestCircuitBreaker_ClosesAfterCoolingOff(t *testing.T) {
	b, clock := newTestBreaker(1, 30*time.Second)

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	clock.advance(29 * time.Second)
	assert.True(t, b.IsOpen())

	clock.advance(time.Second)
	assert.False(t, b.IsOpen())
	// no half-open: immediately fully closed
	assert.Equal(t, time.Duration(0), b.CoolingOffRemaining())
}

func TestCircuitBreaker_CoolingOffRemaining(t *testing.T) {
	b, clock := newTestBreaker(1, 30*time.Second)
	assert.Equal(t, time.Duration(0), b.CoolingOffRemaining())

	b.RecordFailure()
	assert.Equal(t, 30*time.Second, b.CoolingOffRemaining())

	clock.advance(10 * time.Second)
	assert.Equal(t, 20*time.Second, b.CoolingOffRemaining())

	clock.advance(40 * time.Second)
	assert.Equal(t, time.Duration(0), b.CoolingOffRemaining())
}

func TestCircuitBreaker_SuccessClosesImmediately(t *testing.T) {
	b, _ := newTestBreaker(3, 30*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.RecordSuccess()
	assert.False(t, b.IsOpen())
	assert.Equal(t, time.Duration(0), b.CoolingOffRemaining())
	assert.Equal(t, 0, b.ConsecutiveFailures())
}

func TestCircuitBreaker_Retrips(t *testing.T) {
	b, clock := newTestBreaker(2, 10*time.Second)

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	clock.advance(10 * time.Second)
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestNewCircuitBreaker_ClampsArguments(t *testing.T) {
	b := NewCircuitBreaker(0, -time.Second)
	b.RecordFailure()
	// threshold clamped to 1; zero cooling-off means never observably open
	assert.False(t, b.IsOpen())
}
