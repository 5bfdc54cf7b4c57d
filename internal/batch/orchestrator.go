package batch

import (
	"context"
	"sort"
	"time"

	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
	"github.com/mailsweep/mailsweep/pkg/errors"
)

// LabelModification describes a bulk label change applied to every message in
// a modify operation.
type LabelModification struct {
	AddLabels    []string
	RemoveLabels []string
}

// ItemResultFunc receives the outcome for a single queued message once its
// batch round trip completes. err is nil on success.
type ItemResultFunc func(id string, err error)

// ModifyBatch collects message ids for one batched modify round trip. Queue
// adds an id; Execute performs the round trip and delivers per-item outcomes
// through the ItemResultFunc the batch was created with.
type ModifyBatch interface {
	Queue(id string) error
	Execute(ctx context.Context) error
}

// Invoker is the remote mail API surface the orchestrator dispatches against.
type Invoker interface {
	// BatchDelete removes all ids in one call. It is all-or-nothing: a nil
	// return means every id was deleted.
	BatchDelete(ctx context.Context, ids []string) error

	// NewModifyBatch starts a batched modify session for mod.
	NewModifyBatch(mod LabelModification, onItem ItemResultFunc) ModifyBatch
}

// Config tunes one Orchestrator. Zero values fall back to the service
// defaults via normalized.
type Config struct {
	DeleteChunkSize   int
	MinModifySize     int
	MaxModifySize     int
	InitialModifySize int

	InterBatchDelay time.Duration
	MicroDelay      time.Duration

	MaxRetryAttempts  int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	FailureThreshold int
	CoolingOffPeriod time.Duration
	// MaxBreakerWait bounds each wait slice while the breaker is open; the
	// orchestrator re-evaluates the breaker between slices.
	MaxBreakerWait time.Duration
}

func (c Config) normalized() Config {
	if c.DeleteChunkSize <= 0 {
		c.DeleteChunkSize = 1000
	}
	if c.MinModifySize <= 0 {
		c.MinModifySize = 5
	}
	if c.MaxModifySize <= 0 {
		c.MaxModifySize = 50
	}
	if c.InitialModifySize <= 0 {
		c.InitialModifySize = 15
	}
	if c.InterBatchDelay <= 0 {
		c.InterBatchDelay = 500 * time.Millisecond
	}
	if c.MicroDelay <= 0 {
		c.MicroDelay = 10 * time.Millisecond
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = 4
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 2 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 60 * time.Second
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 2.5
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.CoolingOffPeriod <= 0 {
		c.CoolingOffPeriod = 30 * time.Second
	}
	if c.MaxBreakerWait <= 0 {
		c.MaxBreakerWait = 5 * time.Second
	}
	return c
}

// Orchestrator drives bulk delete and modify operations: it chunks the input,
// paces dispatch, retries transient failures, and trips a shared circuit
// breaker on consecutive unit failures. One Orchestrator may serve many
// operations; the breaker and the adaptive sizer live for the orchestrator's
// lifetime and are shared across all of them, so a size learned during one
// operation carries into the next.
type Orchestrator struct {
	cfg     Config
	invoker Invoker
	breaker *CircuitBreaker
	sizer   *AdaptiveSizer
	backoff BackoffPolicy
	logger  logging.Logger
}

// NewOrchestrator builds an Orchestrator. logger may be nil.
func NewOrchestrator(invoker Invoker, cfg Config, logger logging.Logger) *Orchestrator {
	cfg = cfg.normalized()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		cfg:     cfg,
		invoker: invoker,
		breaker: NewCircuitBreaker(cfg.FailureThreshold, cfg.CoolingOffPeriod),
		sizer:   NewAdaptiveSizer(cfg.MinModifySize, cfg.MaxModifySize, cfg.InitialModifySize),
		backoff: BackoffPolicy{
			Initial:    cfg.InitialBackoff,
			Max:        cfg.MaxBackoff,
			Multiplier: cfg.BackoffMultiplier,
		},
		logger: logger,
	}
}

// Breaker exposes the shared circuit breaker for health reporting.
func (o *Orchestrator) Breaker() *CircuitBreaker {
	return o.breaker
}

// ExecuteBulkDelete deletes ids in fixed-size chunks. The returned result is
// always non-nil and completed; the error is non-nil only on context
// cancellation.
func (o *Orchestrator) ExecuteBulkDelete(ctx context.Context, ids []string) (*OperationResult, error) {
	res := NewOperationResult(OpTypeDelete)
	if len(ids) == 0 {
		res.MarkCompleted()
		return res, nil
	}

	chunks := splitChunks(ids, o.cfg.DeleteChunkSize)
	o.logger.Info("bulk delete started",
		logging.Int("ids", len(ids)),
		logging.Int("chunks", len(chunks)),
	)

	for i, chunk := range chunks {
		if err := o.waitForBreaker(ctx); err != nil {
			res.MarkCompleted()
			return res, err
		}

		chunk := chunk
		succeeded, err := o.runUnitWithRetry(ctx, res, chunk, func(ctx context.Context) error {
			return o.invoker.BatchDelete(ctx, chunk)
		})
		if err != nil {
			res.MarkCompleted()
			return res, err
		}
		if succeeded {
			for _, id := range chunk {
				res.AddSuccess(id)
			}
			o.breaker.RecordSuccess()
		} else {
			o.breaker.RecordFailure()
		}
		res.IncrementBatchesProcessed()

		if i < len(chunks)-1 {
			if err := sleepCtx(ctx, o.cfg.InterBatchDelay); err != nil {
				res.MarkCompleted()
				return res, err
			}
		}
	}

	res.MarkCompleted()
	o.logger.Info("bulk delete finished",
		logging.Int("succeeded", res.SuccessCount()),
		logging.Int("failed", res.FailureCount()),
		logging.Int("batches", res.BatchesProcessed()),
	)
	return res, nil
}

// ExecuteBulkModify applies mod to ids in adaptively sized batches. Per-item
// outcomes arrive through the invoker's modify session callback; whole-batch
// failures are retried with backoff before their unrecorded items are marked
// failed.
func (o *Orchestrator) ExecuteBulkModify(ctx context.Context, ids []string, mod LabelModification) (*OperationResult, error) {
	res := NewOperationResult(OpTypeModify)
	if len(ids) == 0 {
		res.MarkCompleted()
		return res, nil
	}

	o.logger.Info("bulk modify started",
		logging.Int("ids", len(ids)),
		logging.Int("batch_size", o.sizer.Current()),
	)

	remaining := ids
	first := true
	for len(remaining) > 0 {
		if !first {
			if err := sleepCtx(ctx, o.cfg.InterBatchDelay); err != nil {
				res.MarkCompleted()
				return res, err
			}
		}
		first = false

		if err := o.waitForBreaker(ctx); err != nil {
			res.MarkCompleted()
			return res, err
		}

		size := o.sizer.Current()
		if size > len(remaining) {
			size = len(remaining)
		}
		unit := remaining[:size]
		remaining = remaining[size:]

		failuresBefore := res.FailureCount()
		succeeded, err := o.runUnitWithRetry(ctx, res, unit, func(ctx context.Context) error {
			return o.dispatchModifyUnit(ctx, res, unit, mod)
		})
		if err != nil {
			res.MarkCompleted()
			return res, err
		}
		unitClean := succeeded && res.FailureCount() == failuresBefore
		o.sizer.RecordOutcome(unitClean)
		if unitClean {
			o.breaker.RecordSuccess()
		} else {
			o.breaker.RecordFailure()
		}
		res.IncrementBatchesProcessed()
	}

	res.MarkCompleted()
	o.logger.Info("bulk modify finished",
		logging.Int("succeeded", res.SuccessCount()),
		logging.Int("failed", res.FailureCount()),
		logging.Int("batches", res.BatchesProcessed()),
		logging.Int("retried", res.BatchesRetried()),
	)
	return res, nil
}

// dispatchModifyUnit queues each id into a fresh modify session with a
// cancellable micro-delay between items, then runs the round trip. Per-item
// outcomes land in res through the session callback.
func (o *Orchestrator) dispatchModifyUnit(ctx context.Context, res *OperationResult, unit []string, mod LabelModification) error {
	session := o.invoker.NewModifyBatch(mod, func(id string, err error) {
		if err == nil {
			res.AddSuccess(id)
			return
		}
		res.AddFailure(id, err.Error())
	})
	for i, id := range unit {
		if i > 0 {
			if err := sleepCtx(ctx, o.cfg.MicroDelay); err != nil {
				return err
			}
		}
		if err := session.Queue(id); err != nil {
			return err
		}
	}
	return session.Execute(ctx)
}

// runUnitWithRetry invokes unit, retrying transient failures with exponential
// backoff. Exhausted or non-retryable failures are absorbed: the unit's
// unrecorded ids are marked failed and (false, nil) is returned. Only context
// cancellation propagates as an error.
func (o *Orchestrator) runUnitWithRetry(ctx context.Context, res *OperationResult, ids []string, unit func(context.Context) error) (bool, error) {
	attempt := 0
	for {
		err := unit(ctx)
		if err == nil {
			if attempt > 0 {
				res.IncrementBatchesRetried()
			}
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		attempt++
		if attempt > o.cfg.MaxRetryAttempts || !IsRetryableError(err) {
			o.logger.Warn("batch failed permanently",
				logging.Int("items", len(ids)),
				logging.Int("attempts", attempt),
				logging.Err(err),
			)
			res.failUnrecorded(ids, err.Error())
			return false, nil
		}
		delay := o.backoff.Delay(attempt - 1)
		o.logger.Warn("batch failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Err(err),
		)
		if serr := sleepCtx(ctx, delay); serr != nil {
			return false, serr
		}
	}
}

// waitForBreaker blocks while the breaker is open, sleeping in bounded slices
// and re-evaluating between them so a ceiling on any single wait holds even
// if the breaker re-trips.
func (o *Orchestrator) waitForBreaker(ctx context.Context) error {
	for o.breaker.IsOpen() {
		wait := o.breaker.CoolingOffRemaining()
		if wait > o.cfg.MaxBreakerWait {
			wait = o.cfg.MaxBreakerWait
		}
		if wait <= 0 {
			return ctx.Err()
		}
		o.logger.Warn("circuit breaker open, pausing dispatch",
			logging.Duration("wait", wait),
		)
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// splitChunks slices ids into consecutive chunks of at most size elements.
func splitChunks(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// ValidateResult converts a finished result into an error when items failed.
// A complete failure (nothing succeeded) always yields CodeCompleteFailure; a
// mixed outcome yields CodePartialFailure only when failOnPartialFailure is
// set, and nil otherwise. An all-success or empty result yields nil.
func ValidateResult(res *OperationResult, failOnPartialFailure bool) error {
	failures := res.FailureCount()
	if failures == 0 {
		return nil
	}
	if res.SuccessCount() == 0 {
		return errors.Newf(errors.CodeCompleteFailure,
			"bulk %s failed for all %d items", res.OperationType(), failures)
	}
	if !failOnPartialFailure {
		return nil
	}
	return errors.Newf(errors.CodePartialFailure,
		"bulk %s failed for %d of %d items", res.OperationType(), failures, res.TotalOperations())
}

// IsRetryableFailure reports whether any recorded failure reason is transient.
func IsRetryableFailure(res *OperationResult) bool {
	for _, reason := range res.FailedOperations() {
		if IsRetryableMessage(reason) {
			return true
		}
	}
	return false
}

// RetryableFailures returns the failed ids whose recorded reason is
// transient, sorted for stable reporting. Callers can feed them into a
// follow-up operation.
func RetryableFailures(res *OperationResult) []string {
	var out []string
	for id, reason := range res.FailedOperations() {
		if IsRetryableMessage(reason) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
