package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveSizer_GrowsOnSuccess(t *testing.T) {
	s := NewAdaptiveSizer(5, 50, 15)

	want := []int{16, 17, 18, 19, 20}
	for _, w := range want {
		s.RecordOutcome(true)
		assert.Equal(t, w, s.Current())
	}
}

func TestAdaptiveSizer_ClampsAtMax(t *testing.T) {
	s := NewAdaptiveSizer(5, 50, 50)
	s.RecordOutcome(true)
	assert.Equal(t, 50, s.Current())
}

func TestAdaptiveSizer_ShrinksOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		current int
		want    int
	}{
		{"quarter cut", 20, 15},
		{"large quarter cut", 48, 36},
		{"minimum cut of two", 7, 5},
		{"clamped at floor", 5, 5},
		{"small size clamps", 6, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAdaptiveSizer(5, 50, tt.current)
			s.RecordOutcome(false)
			assert.Equal(t, tt.want, s.Current())
		})
	}
}

func TestNewAdaptiveSizer_ClampsSeed(t *testing.T) {
	assert.Equal(t, 5, NewAdaptiveSizer(5, 50, 1).Current())
	assert.Equal(t, 50, NewAdaptiveSizer(5, 50, 200).Current())
	assert.Equal(t, 1, NewAdaptiveSizer(0, 0, 0).Current())
	assert.Equal(t, 5, NewAdaptiveSizer(5, 2, 3).Current())
}

func TestAdaptiveSizer_ConcurrentOutcomes(t *testing.T) {
	s := NewAdaptiveSizer(5, 50, 15)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.RecordOutcome(j%2 == 0)
			}
		}()
	}
	wg.Wait()

	got := s.Current()
	assert.GreaterOrEqual(t, got, 5)
	assert.LessOrEqual(t, got, 50)
}
