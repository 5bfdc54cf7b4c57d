// Package repositories implements the domain storage ports on PostgreSQL.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mailsweep/mailsweep/internal/domain/operation"
	apperrors "github.com/mailsweep/mailsweep/pkg/errors"
)

const defaultListLimit = 50

// OperationRepo persists bulk operation records in the bulk_operations table.
type OperationRepo struct {
	db      *sql.DB
	queryMx QueryMetrics
}

// QueryMetrics times repository queries. May be nil.
type QueryMetrics interface {
	TimeDBQuery(query string) func()
}

// NewOperationRepo builds a repository over db. metrics may be nil.
func NewOperationRepo(db *sql.DB, metrics QueryMetrics) *OperationRepo {
	return &OperationRepo{db: db, queryMx: metrics}
}

func (r *OperationRepo) timeQuery(name string) func() {
	if r.queryMx == nil {
		return func() {}
	}
	return r.queryMx.TimeDBQuery(name)
}

// Save upserts rec by id.
func (r *OperationRepo) Save(ctx context.Context, rec *operation.Record) error {
	defer r.timeQuery("save_operation")()

	failedItems, err := json.Marshal(rec.FailedItems)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "encode failed items")
	}

	const q = `
		INSERT INTO bulk_operations (
			id, op_type, status, user_id, total, succeeded, failed,
			success_rate, batches_processed, batches_retried, failed_items,
			started_at, completed_at, duration_millis
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			success_rate = EXCLUDED.success_rate,
			batches_processed = EXCLUDED.batches_processed,
			batches_retried = EXCLUDED.batches_retried,
			failed_items = EXCLUDED.failed_items,
			completed_at = EXCLUDED.completed_at,
			duration_millis = EXCLUDED.duration_millis`

	_, err = r.db.ExecContext(ctx, q,
		rec.ID, string(rec.Type), string(rec.Status), rec.UserID,
		rec.Total, rec.Succeeded, rec.Failed, rec.SuccessRate,
		rec.BatchesProcessed, rec.BatchesRetried, failedItems,
		rec.StartedAt, rec.CompletedAt, rec.DurationMillis,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "save operation record")
	}
	return nil
}

// FindByID returns the record with id, CodeNotFound when absent.
func (r *OperationRepo) FindByID(ctx context.Context, id string) (*operation.Record, error) {
	defer r.timeQuery("find_operation")()

	const q = `
		SELECT id, op_type, status, user_id, total, succeeded, failed,
		       success_rate, batches_processed, batches_retried, failed_items,
		       started_at, completed_at, duration_millis
		FROM bulk_operations WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("operation not found").WithDetail("id=" + id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "find operation record")
	}
	return rec, nil
}

// List returns records matching filter, newest first.
func (r *OperationRepo) List(ctx context.Context, filter operation.ListFilter) ([]*operation.Record, error) {
	defer r.timeQuery("list_operations")()

	var conds []string
	var args []interface{}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("op_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	q := `
		SELECT id, op_type, status, user_id, total, succeeded, failed,
		       success_rate, batches_processed, batches_retried, failed_items,
		       started_at, completed_at, duration_millis
		FROM bulk_operations`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list operation records")
	}
	defer rows.Close()

	var out []*operation.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "scan operation record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "iterate operation records")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*operation.Record, error) {
	var rec operation.Record
	var opType, status string
	var failedItems []byte
	if err := row.Scan(
		&rec.ID, &opType, &status, &rec.UserID,
		&rec.Total, &rec.Succeeded, &rec.Failed, &rec.SuccessRate,
		&rec.BatchesProcessed, &rec.BatchesRetried, &failedItems,
		&rec.StartedAt, &rec.CompletedAt, &rec.DurationMillis,
	); err != nil {
		return nil, err
	}
	rec.Type = operation.Type(opType)
	rec.Status = operation.Status(status)
	if len(failedItems) > 0 {
		if err := json.Unmarshal(failedItems, &rec.FailedItems); err != nil {
			return nil, fmt.Errorf("decode failed items: %w", err)
		}
	}
	return &rec, nil
}
