// Package bulkops is the application service for bulk mailbox operations. It
// runs the batch engine, persists the outcome, and fans results out to the
// cache and the audit topic.
package bulkops

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/domain/operation"
	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

// Executor runs bulk operations. Implemented by batch.Orchestrator.
type Executor interface {
	ExecuteBulkDelete(ctx context.Context, ids []string) (*batch.OperationResult, error)
	ExecuteBulkModify(ctx context.Context, ids []string, mod batch.LabelModification) (*batch.OperationResult, error)
}

// CachePort is the slice of the result cache this service needs.
type CachePort interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
}

// PublisherPort emits audit events.
type PublisherPort interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Metrics receives operation-level measurements. Implemented by the
// prometheus AppMetrics.
type Metrics interface {
	RecordBulkOperation(opType, outcome string, succeeded, failed, batches, retried int, elapsed time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordPublish(ok bool)
	RecordError(code string)
}

// DeleteInput describes a bulk delete request. FailOnPartialFailure raises a
// mixed outcome as an error instead of only reporting it in the record.
type DeleteInput struct {
	UserID               string
	MessageIDs           []string
	FailOnPartialFailure bool
}

// ModifyInput describes a bulk label modification request.
type ModifyInput struct {
	UserID               string
	MessageIDs           []string
	AddLabels            []string
	RemoveLabels         []string
	FailOnPartialFailure bool
}

// Service exposes the bulk operation use cases.
//
// BulkDelete and BulkModify always return a record when the operation ran;
// the accompanying error is a CodeCompleteFailure validation error when every
// item failed, a CodePartialFailure error when some items failed and the
// request set FailOnPartialFailure, or a cancellation error. Storage, cache,
// and publish failures are logged and never surfaced.
type Service interface {
	BulkDelete(ctx context.Context, in DeleteInput) (*operation.Record, error)
	BulkModify(ctx context.Context, in ModifyInput) (*operation.Record, error)
	GetOperation(ctx context.Context, id string) (*operation.Record, error)
	ListOperations(ctx context.Context, filter operation.ListFilter) ([]*operation.Record, error)
}

// Deps carries the service's collaborators. Store, Cache, Publisher, and
// Metrics are optional.
type Deps struct {
	Executor  Executor
	Store     operation.Repository
	Cache     CachePort
	Publisher PublisherPort
	Metrics   Metrics
	Logger    logging.Logger
}

type serviceImpl struct {
	deps Deps
}

// NewService wires a Service. Executor is required.
func NewService(deps Deps) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{deps: deps}
}

func (s *serviceImpl) BulkDelete(ctx context.Context, in DeleteInput) (*operation.Record, error) {
	res, err := s.deps.Executor.ExecuteBulkDelete(ctx, in.MessageIDs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "bulk delete interrupted")
	}
	return s.finish(ctx, operation.TypeDelete, in.UserID, res, in.FailOnPartialFailure)
}

func (s *serviceImpl) BulkModify(ctx context.Context, in ModifyInput) (*operation.Record, error) {
	if len(in.AddLabels) == 0 && len(in.RemoveLabels) == 0 {
		return nil, apperrors.InvalidParam("at least one label to add or remove is required")
	}
	mod := batch.LabelModification{
		AddLabels:    in.AddLabels,
		RemoveLabels: in.RemoveLabels,
	}
	res, err := s.deps.Executor.ExecuteBulkModify(ctx, in.MessageIDs, mod)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCancelled, "bulk modify interrupted")
	}
	return s.finish(ctx, operation.TypeModify, in.UserID, res, in.FailOnPartialFailure)
}

// finish converts a completed result into a record, fans it out, and applies
// result validation.
func (s *serviceImpl) finish(ctx context.Context, opType operation.Type, userID string, res *batch.OperationResult, failOnPartial bool) (*operation.Record, error) {
	rec := recordFromResult(opType, userID, res)

	s.persist(ctx, rec)
	s.publishAudit(ctx, rec)

	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordBulkOperation(string(opType), string(rec.Status),
			rec.Succeeded, rec.Failed, rec.BatchesProcessed, rec.BatchesRetried,
			time.Duration(rec.DurationMillis)*time.Millisecond)
	}

	if verr := batch.ValidateResult(res, failOnPartial); verr != nil {
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordError(apperrors.GetCode(verr).String())
		}
		return rec, verr
	}
	return rec, nil
}

func (s *serviceImpl) persist(ctx context.Context, rec *operation.Record) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Save(ctx, rec); err != nil {
			s.deps.Logger.Error("persist operation record failed",
				logging.String("operation_id", rec.ID),
				logging.Err(err),
			)
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, rec.ID, rec); err != nil {
			s.deps.Logger.Warn("cache operation record failed",
				logging.String("operation_id", rec.ID),
				logging.Err(err),
			)
		}
	}
}

func (s *serviceImpl) publishAudit(ctx context.Context, rec *operation.Record) {
	if s.deps.Publisher == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		s.deps.Logger.Error("encode audit event failed", logging.Err(err))
		return
	}
	err = s.deps.Publisher.Publish(ctx, rec.ID, payload)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordPublish(err == nil)
	}
	if err != nil {
		s.deps.Logger.Error("publish audit event failed",
			logging.String("operation_id", rec.ID),
			logging.Err(err),
		)
	}
}

func (s *serviceImpl) GetOperation(ctx context.Context, id string) (*operation.Record, error) {
	if id == "" {
		return nil, apperrors.InvalidParam("operation id is required")
	}

	if s.deps.Cache != nil {
		var rec operation.Record
		if err := s.deps.Cache.Get(ctx, id, &rec); err == nil {
			if s.deps.Metrics != nil {
				s.deps.Metrics.RecordCacheHit()
			}
			return &rec, nil
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.RecordCacheMiss()
		}
	}

	if s.deps.Store == nil {
		return nil, apperrors.NotFound("operation not found").WithDetail("id=" + id)
	}
	rec, err := s.deps.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		if cerr := s.deps.Cache.Set(ctx, id, rec); cerr != nil {
			s.deps.Logger.Warn("backfill cache failed", logging.Err(cerr))
		}
	}
	return rec, nil
}

func (s *serviceImpl) ListOperations(ctx context.Context, filter operation.ListFilter) ([]*operation.Record, error) {
	if s.deps.Store == nil {
		return nil, nil
	}
	return s.deps.Store.List(ctx, filter)
}

// recordFromResult snapshots a completed OperationResult into a Record.
func recordFromResult(opType operation.Type, userID string, res *batch.OperationResult) *operation.Record {
	succeeded := res.SuccessCount()
	failed := res.FailureCount()
	return &operation.Record{
		ID:               uuid.NewString(),
		Type:             opType,
		Status:           operation.DeriveStatus(succeeded, failed),
		UserID:           userID,
		Total:            res.TotalOperations(),
		Succeeded:        succeeded,
		Failed:           failed,
		SuccessRate:      res.SuccessRate(),
		BatchesProcessed: res.BatchesProcessed(),
		BatchesRetried:   res.BatchesRetried(),
		FailedItems:      res.FailedOperations(),
		StartedAt:        res.StartTime(),
		CompletedAt:      res.EndTime(),
		DurationMillis:   res.DurationMillis(),
	}
}
