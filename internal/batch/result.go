// Package batch implements the bulk-operation execution engine: result
// accumulation, retry/backoff classification, a circuit breaker, an adaptive
// batch sizer, and the orchestrator that ties them together against a remote
// mail API.
package batch

import (
	"sync"
	"time"
)

// Operation type labels carried by OperationResult.
const (
	OpTypeDelete = "delete"
	OpTypeModify = "modify"
)

// OperationResult accumulates per-item outcomes for one bulk operation. It is
// safe for concurrent use: the orchestrator's item callbacks may fire from
// invoker goroutines.
type OperationResult struct {
	mu sync.Mutex

	operationType string

	successes []string
	failed    map[string]string
	// recorded tracks ids that got a success entry, so failUnrecorded can
	// tell absorbed items apart from already-settled ones.
	recorded map[string]struct{}

	batchesProcessed int
	batchesRetried   int

	startTime time.Time
	endTime   time.Time
	completed bool
}

// NewOperationResult returns an empty result for operationType with the start
// time stamped.
func NewOperationResult(operationType string) *OperationResult {
	return &OperationResult{
		operationType: operationType,
		failed:        make(map[string]string),
		recorded:      make(map[string]struct{}),
		startTime:     time.Now(),
	}
}

// OperationType returns the label given at construction, "delete" or "modify".
func (r *OperationResult) OperationType() string {
	return r.operationType
}

// AddSuccess records id as succeeded. Duplicate ids produce duplicate
// entries, matching how the remote API reports per-item acknowledgements.
func (r *OperationResult) AddSuccess(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, id)
	r.recorded[id] = struct{}{}
}

// AddFailure records id as failed with reason. A later failure for the same
// id overwrites the earlier reason.
func (r *OperationResult) AddFailure(id, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[id] = reason
}

// failUnrecorded marks every id that has neither a success nor a failure
// entry as failed with reason. The orchestrator calls it when a unit's
// retries are exhausted so no item silently disappears from the tally.
func (r *OperationResult) failUnrecorded(ids []string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.recorded[id]; ok {
			continue
		}
		if _, ok := r.failed[id]; ok {
			continue
		}
		r.failed[id] = reason
	}
}

// IncrementBatchesProcessed counts one dispatched unit, regardless of outcome.
func (r *OperationResult) IncrementBatchesProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchesProcessed++
}

// IncrementBatchesRetried counts one unit that needed at least one retry
// before succeeding.
func (r *OperationResult) IncrementBatchesRetried() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchesRetried++
}

// MarkCompleted stamps the end time. Calling it again re-stamps.
func (r *OperationResult) MarkCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endTime = time.Now()
	r.completed = true
}

// IsCompleted reports whether MarkCompleted has been called.
func (r *OperationResult) IsCompleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// SuccessCount returns the number of recorded successes, duplicates included.
func (r *OperationResult) SuccessCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes)
}

// FailureCount returns the number of distinct failed ids.
func (r *OperationResult) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failed)
}

// TotalOperations is SuccessCount plus FailureCount.
func (r *OperationResult) TotalOperations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes) + len(r.failed)
}

// SuccessRate returns the percentage of successes over the total, 0 to 100,
// or 0.0 when nothing was recorded.
func (r *OperationResult) SuccessRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := len(r.successes) + len(r.failed)
	if total == 0 {
		return 0.0
	}
	return 100 * float64(len(r.successes)) / float64(total)
}

// IsCompleteSuccess reports whether at least one item succeeded and none
// failed.
func (r *OperationResult) IsCompleteSuccess() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failed) == 0 && len(r.successes) > 0
}

// SuccessfulOperations returns a copy of the success list.
func (r *OperationResult) SuccessfulOperations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.successes))
	copy(out, r.successes)
	return out
}

// FailedOperations returns a copy of the id-to-reason failure map.
func (r *OperationResult) FailedOperations() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.failed))
	for id, reason := range r.failed {
		out[id] = reason
	}
	return out
}

// BatchesProcessed returns the number of dispatched units.
func (r *OperationResult) BatchesProcessed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batchesProcessed
}

// BatchesRetried returns the number of units that needed retries.
func (r *OperationResult) BatchesRetried() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batchesRetried
}

// StartTime returns when the result was created.
func (r *OperationResult) StartTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startTime
}

// EndTime returns the completion stamp; zero until MarkCompleted.
func (r *OperationResult) EndTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endTime
}

// DurationMillis returns the wall-clock duration in milliseconds, or -1 while
// the operation is still running.
func (r *OperationResult) DurationMillis() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.completed {
		return -1
	}
	return r.endTime.Sub(r.startTime).Milliseconds()
}
