// Package operation defines the persisted record of a finished bulk
// operation and the storage port infrastructure adapters implement.
package operation

import "time"

// Type enumerates the bulk operation kinds.
type Type string

const (
	TypeDelete Type = "delete"
	TypeModify Type = "modify"
)

// Status summarizes a finished operation's outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusEmpty     Status = "empty"
)

// Record is the durable summary of one bulk operation run.
type Record struct {
	ID               string            `json:"id"`
	Type             Type              `json:"type"`
	Status           Status            `json:"status"`
	UserID           string            `json:"user_id"`
	Total            int               `json:"total"`
	Succeeded        int               `json:"succeeded"`
	Failed           int               `json:"failed"`
	SuccessRate      float64           `json:"success_rate"`
	BatchesProcessed int               `json:"batches_processed"`
	BatchesRetried   int               `json:"batches_retried"`
	FailedItems      map[string]string `json:"failed_items,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at"`
	DurationMillis   int64             `json:"duration_millis"`
}

// DeriveStatus maps outcome counts onto a Status.
func DeriveStatus(succeeded, failed int) Status {
	switch {
	case succeeded == 0 && failed == 0:
		return StatusEmpty
	case failed == 0:
		return StatusSucceeded
	case succeeded == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
