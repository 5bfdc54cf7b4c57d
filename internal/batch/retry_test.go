package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"", false},
		{"Message not found", false},
		{"invalid label id", false},
		{"timeout waiting for response", true},
		{"Request Timeout", true},
		{"temporary failure, try again", true},
		{"Service unavailable, please retry", true},
		{"Rate Limit hit", true},
		{"Quota Exceeded for project", true},
		{"internal error encountered", true},
		{"backend error", true},
		{"Too many concurrent requests for user", true},
		{"User rate limit exceeded", true},
		{"USER RATE LIMIT EXCEEDED", true},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableMessage(tt.msg))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(errors.New("permission denied")))
	assert.True(t, IsRetryableError(errors.New("503 service unavailable")))
}

func TestBackoffPolicy_Delay(t *testing.T) {
	p := BackoffPolicy{
		Initial:    2 * time.Second,
		Max:        60 * time.Second,
		Multiplier: 2.5,
	}

	assert.Equal(t, 2*time.Second, p.Delay(0))
	assert.Equal(t, 5*time.Second, p.Delay(1))
	assert.Equal(t, 12500*time.Millisecond, p.Delay(2))
	assert.Equal(t, 31250*time.Millisecond, p.Delay(3))
	// 78.125s exceeds the ceiling
	assert.Equal(t, 60*time.Second, p.Delay(4))
	assert.Equal(t, 60*time.Second, p.Delay(10))
}

func TestSleepCtx(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))
	})

	t.Run("zero duration checks ctx", func(t *testing.T) {
		assert.NoError(t, sleepCtx(context.Background(), 0))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleepCtx(ctx, 0), context.Canceled)
	})

	t.Run("cancellation interrupts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		start := time.Now()
		err := sleepCtx(ctx, 10*time.Second)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}
