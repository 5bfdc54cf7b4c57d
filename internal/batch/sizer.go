package batch

import "sync/atomic"

// AdaptiveSizer tunes the modify batch size between a floor and a ceiling.
// Successes grow the size by one; a failure cuts it by a quarter (at least
// two), never below the floor. Updates use a CAS loop so callbacks from
// concurrent operations sharing a sizer never lose an adjustment.
type AdaptiveSizer struct {
	min  int32
	max  int32
	size atomic.Int32
}

// NewAdaptiveSizer returns a sizer seeded with initial, clamped into
// [min, max]. A min below 1 is raised to 1; a max below min is raised to min.
func NewAdaptiveSizer(min, max, initial int) *AdaptiveSizer {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	s := &AdaptiveSizer{min: int32(min), max: int32(max)}
	s.size.Store(int32(initial))
	return s
}

// Current returns the batch size to use for the next unit.
func (s *AdaptiveSizer) Current() int {
	return int(s.size.Load())
}

// RecordOutcome adjusts the size after a unit finishes. succeeded means
// every item in the unit was acknowledged.
func (s *AdaptiveSizer) RecordOutcome(succeeded bool) {
	for {
		prev := s.size.Load()
		next := prev
		if succeeded {
			next = prev + 1
			if next > s.max {
				next = s.max
			}
		} else {
			cut := prev / 4
			if cut < 2 {
				cut = 2
			}
			next = prev - cut
			if next < s.min {
				next = s.min
			}
		}
		if next == prev || s.size.CompareAndSwap(prev, next) {
			return
		}
	}
}
