package bulkops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsweep/mailsweep/internal/batch"
	"github.com/mailsweep/mailsweep/internal/domain/operation"
	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

type mockExecutor struct {
	deleteFn func(ctx context.Context, ids []string) (*batch.OperationResult, error)
	modifyFn func(ctx context.Context, ids []string, mod batch.LabelModification) (*batch.OperationResult, error)
}

func (m *mockExecutor) ExecuteBulkDelete(ctx context.Context, ids []string) (*batch.OperationResult, error) {
	return m.deleteFn(ctx, ids)
}

func (m *mockExecutor) ExecuteBulkModify(ctx context.Context, ids []string, mod batch.LabelModification) (*batch.OperationResult, error) {
	return m.modifyFn(ctx, ids, mod)
}

type mockStore struct {
	saveFn func(ctx context.Context, rec *operation.Record) error
	findFn func(ctx context.Context, id string) (*operation.Record, error)
	listFn func(ctx context.Context, filter operation.ListFilter) ([]*operation.Record, error)
	saved  []*operation.Record
}

func (m *mockStore) Save(ctx context.Context, rec *operation.Record) error {
	m.saved = append(m.saved, rec)
	if m.saveFn != nil {
		return m.saveFn(ctx, rec)
	}
	return nil
}

func (m *mockStore) FindByID(ctx context.Context, id string) (*operation.Record, error) {
	return m.findFn(ctx, id)
}

func (m *mockStore) List(ctx context.Context, filter operation.ListFilter) ([]*operation.Record, error) {
	return m.listFn(ctx, filter)
}

type mockCache struct {
	getFn func(ctx context.Context, key string, dest interface{}) error
	setFn func(ctx context.Context, key string, value interface{}) error
	sets  []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getFn != nil {
		return m.getFn(ctx, key, dest)
	}
	return errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}) error {
	m.sets = append(m.sets, key)
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, key string, value []byte) error
	keys      []string
}

func (m *mockPublisher) Publish(ctx context.Context, key string, value []byte) error {
	m.keys = append(m.keys, key)
	if m.publishFn != nil {
		return m.publishFn(ctx, key, value)
	}
	return nil
}

type mockMetrics struct {
	operations []string
	errors     []string
	hits       int
	misses     int
	publishes  []bool
}

func (m *mockMetrics) RecordBulkOperation(opType, outcome string, _, _, _, _ int, _ time.Duration) {
	m.operations = append(m.operations, opType+"/"+outcome)
}
func (m *mockMetrics) RecordCacheHit()        { m.hits++ }
func (m *mockMetrics) RecordCacheMiss()       { m.misses++ }
func (m *mockMetrics) RecordPublish(ok bool)  { m.publishes = append(m.publishes, ok) }
func (m *mockMetrics) RecordError(code string) {
	m.errors = append(m.errors, code)
}

func successResult(opType string, ids []string, batches int) *batch.OperationResult {
	res := batch.NewOperationResult(opType)
	for _, id := range ids {
		res.AddSuccess(id)
	}
	for i := 0; i < batches; i++ {
		res.IncrementBatchesProcessed()
	}
	res.MarkCompleted()
	return res
}

func TestBulkDelete_Success(t *testing.T) {
	exec := &mockExecutor{
		deleteFn: func(_ context.Context, ids []string) (*batch.OperationResult, error) {
			return successResult(batch.OpTypeDelete, ids, 1), nil
		},
	}
	store := &mockStore{}
	cache := &mockCache{}
	pub := &mockPublisher{}
	metrics := &mockMetrics{}

	svc := NewService(Deps{Executor: exec, Store: store, Cache: cache, Publisher: pub, Metrics: metrics})
	rec, err := svc.BulkDelete(context.Background(), DeleteInput{
		UserID:     "alice@example.com",
		MessageIDs: []string{"m1", "m2"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, operation.TypeDelete, rec.Type)
	assert.Equal(t, operation.StatusSucceeded, rec.Status)
	assert.Equal(t, 2, rec.Succeeded)
	assert.Equal(t, 100.0, rec.SuccessRate)
	assert.GreaterOrEqual(t, rec.DurationMillis, int64(0))

	require.Len(t, store.saved, 1)
	assert.Equal(t, rec.ID, store.saved[0].ID)
	assert.Equal(t, []string{rec.ID}, cache.sets)
	assert.Equal(t, []string{rec.ID}, pub.keys)
	assert.Equal(t, []string{"delete/succeeded"}, metrics.operations)
	assert.Empty(t, metrics.errors)
}

func partialResult() *batch.OperationResult {
	res := batch.NewOperationResult(batch.OpTypeDelete)
	res.AddSuccess("m1")
	res.AddFailure("m2", "timeout")
	res.IncrementBatchesProcessed()
	res.MarkCompleted()
	return res
}

func TestBulkDelete_PartialFailureRaisedWhenRequested(t *testing.T) {
	exec := &mockExecutor{
		deleteFn: func(context.Context, []string) (*batch.OperationResult, error) {
			return partialResult(), nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(Deps{Executor: exec, Metrics: metrics})

	rec, err := svc.BulkDelete(context.Background(), DeleteInput{
		MessageIDs:           []string{"m1", "m2"},
		FailOnPartialFailure: true,
	})
	require.Error(t, err)
	require.NotNil(t, rec, "record accompanies the validation error")

	assert.Equal(t, apperrors.CodePartialFailure, apperrors.GetCode(err))
	assert.Equal(t, operation.StatusPartial, rec.Status)
	assert.Equal(t, "timeout", rec.FailedItems["m2"])
	assert.Equal(t, []string{"PARTIAL_FAILURE"}, metrics.errors)
}

func TestBulkDelete_PartialFailureReportedByDefault(t *testing.T) {
	exec := &mockExecutor{
		deleteFn: func(context.Context, []string) (*batch.OperationResult, error) {
			return partialResult(), nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(Deps{Executor: exec, Metrics: metrics})

	rec, err := svc.BulkDelete(context.Background(), DeleteInput{MessageIDs: []string{"m1", "m2"}})
	require.NoError(t, err, "partial failure is not raised unless requested")
	require.NotNil(t, rec)

	assert.Equal(t, operation.StatusPartial, rec.Status)
	assert.Equal(t, "timeout", rec.FailedItems["m2"])
	assert.Empty(t, metrics.errors)
}

func TestBulkDelete_Cancelled(t *testing.T) {
	exec := &mockExecutor{
		deleteFn: func(context.Context, []string) (*batch.OperationResult, error) {
			return batch.NewOperationResult(batch.OpTypeDelete), context.Canceled
		},
	}
	svc := NewService(Deps{Executor: exec})

	rec, err := svc.BulkDelete(context.Background(), DeleteInput{MessageIDs: []string{"m1"}})
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCancelled, apperrors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBulkModify_RequiresLabels(t *testing.T) {
	svc := NewService(Deps{Executor: &mockExecutor{}})
	_, err := svc.BulkModify(context.Background(), ModifyInput{MessageIDs: []string{"m1"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.GetCode(err))
}

func TestBulkModify_PassesModification(t *testing.T) {
	var gotMod batch.LabelModification
	exec := &mockExecutor{
		modifyFn: func(_ context.Context, ids []string, mod batch.LabelModification) (*batch.OperationResult, error) {
			gotMod = mod
			return successResult(batch.OpTypeModify, ids, 1), nil
		},
	}
	svc := NewService(Deps{Executor: exec})

	rec, err := svc.BulkModify(context.Background(), ModifyInput{
		MessageIDs:   []string{"m1"},
		AddLabels:    []string{"TRASH"},
		RemoveLabels: []string{"INBOX"},
	})
	require.NoError(t, err)
	assert.Equal(t, operation.TypeModify, rec.Type)
	assert.Equal(t, []string{"TRASH"}, gotMod.AddLabels)
	assert.Equal(t, []string{"INBOX"}, gotMod.RemoveLabels)
}

func TestBulkDelete_InfraFailuresNotSurfaced(t *testing.T) {
	exec := &mockExecutor{
		deleteFn: func(_ context.Context, ids []string) (*batch.OperationResult, error) {
			return successResult(batch.OpTypeDelete, ids, 1), nil
		},
	}
	store := &mockStore{
		saveFn: func(context.Context, *operation.Record) error {
			return errors.New("db down")
		},
	}
	cache := &mockCache{
		setFn: func(context.Context, string, interface{}) error {
			return errors.New("redis down")
		},
	}
	pub := &mockPublisher{
		publishFn: func(context.Context, string, []byte) error {
			return errors.New("broker down")
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(Deps{Executor: exec, Store: store, Cache: cache, Publisher: pub, Metrics: metrics})

	rec, err := svc.BulkDelete(context.Background(), DeleteInput{MessageIDs: []string{"m1"}})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []bool{false}, metrics.publishes)
}

func TestGetOperation_CacheHit(t *testing.T) {
	cache := &mockCache{
		getFn: func(_ context.Context, key string, dest interface{}) error {
			rec := dest.(*operation.Record)
			rec.ID = key
			rec.Type = operation.TypeDelete
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(Deps{Executor: &mockExecutor{}, Cache: cache, Metrics: metrics})

	rec, err := svc.GetOperation(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Equal(t, "op-1", rec.ID)
	assert.Equal(t, 1, metrics.hits)
}

func TestGetOperation_CacheMissFallsBackToStore(t *testing.T) {
	cache := &mockCache{}
	store := &mockStore{
		findFn: func(_ context.Context, id string) (*operation.Record, error) {
			return &operation.Record{ID: id, Type: operation.TypeModify}, nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(Deps{Executor: &mockExecutor{}, Store: store, Cache: cache, Metrics: metrics})

	rec, err := svc.GetOperation(context.Background(), "op-2")
	require.NoError(t, err)
	assert.Equal(t, "op-2", rec.ID)
	assert.Equal(t, 1, metrics.misses)
	assert.Equal(t, []string{"op-2"}, cache.sets, "cache backfilled")
}

func TestGetOperation_NotFound(t *testing.T) {
	store := &mockStore{
		findFn: func(context.Context, string) (*operation.Record, error) {
			return nil, apperrors.NotFound("operation not found")
		},
	}
	svc := NewService(Deps{Executor: &mockExecutor{}, Store: store})

	_, err := svc.GetOperation(context.Background(), "absent")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestGetOperation_EmptyID(t *testing.T) {
	svc := NewService(Deps{Executor: &mockExecutor{}})
	_, err := svc.GetOperation(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidParam, apperrors.GetCode(err))
}

func TestListOperations(t *testing.T) {
	store := &mockStore{
		listFn: func(_ context.Context, filter operation.ListFilter) ([]*operation.Record, error) {
			assert.Equal(t, operation.TypeDelete, filter.Type)
			return []*operation.Record{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	svc := NewService(Deps{Executor: &mockExecutor{}, Store: store})

	recs, err := svc.ListOperations(context.Background(), operation.ListFilter{Type: operation.TypeDelete})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestListOperations_NoStore(t *testing.T) {
	svc := NewService(Deps{Executor: &mockExecutor{}})
	recs, err := svc.ListOperations(context.Background(), operation.ListFilter{})
	assert.NoError(t, err)
	assert.Empty(t, recs)
}
