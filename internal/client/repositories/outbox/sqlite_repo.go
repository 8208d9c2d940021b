package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/client/models"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/dbx"
)

const columns = `id, table_name, operation, record_id, payload, status, retry_count, timestamp, updated_at, next_attempt_at, last_error`

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) nowMs() int64 {
	return r.now().UnixMilli()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.OutboxEntry, error) {
	var (
		e       models.OutboxEntry
		op      string
		status  string
		payload string
	)
	err := s.Scan(&e.ID, &e.Table, &op, &e.RecordID, &payload, &status, &e.RetryCount,
		&e.Timestamp, &e.UpdatedAt, &e.NextAttemptAt, &e.LastError)
	if err != nil {
		return nil, err
	}
	e.Operation = models.Operation(op)
	e.Status = models.Status(status)
	e.Payload = []byte(payload)
	return &e, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.OutboxEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, e *models.OutboxEntry) (int64, error) {
	if e.Status == "" {
		e.Status = models.StatusPending
	}
	if e.Timestamp == 0 {
		e.Timestamp = r.nowMs()
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = e.Timestamp
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_queue (table_name, operation, record_id, payload, status, retry_count, timestamp, updated_at, next_attempt_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Table, string(e.Operation), e.RecordID, string(e.Payload), string(e.Status), e.RetryCount,
		e.Timestamp, e.UpdatedAt, e.NextAttemptAt, e.LastError)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s[%s]: %w", e.Table, e.RecordID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get outbox id: %w", err)
	}
	e.ID = id
	return id, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id int64) (*models.OutboxEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM sync_queue WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox entry %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetPending(ctx context.Context) ([]*models.OutboxEntry, error) {
	return r.list(ctx, `SELECT `+columns+` FROM sync_queue WHERE status = ? ORDER BY id`, string(models.StatusPending))
}

func (r *SQLiteRepository) GetPendingByTable(ctx context.Context, table string) ([]*models.OutboxEntry, error) {
	return r.list(ctx, `SELECT `+columns+` FROM sync_queue WHERE status = ? AND table_name = ? ORDER BY id`,
		string(models.StatusPending), table)
}

func (r *SQLiteRepository) Due(ctx context.Context, nowMs int64, limit int) ([]*models.OutboxEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.list(ctx, `SELECT `+columns+` FROM sync_queue WHERE status = ? AND next_attempt_at <= ? ORDER BY id LIMIT ?`,
		string(models.StatusPending), nowMs, limit)
}

func (r *SQLiteRepository) setStatus(ctx context.Context, id int64, status models.Status, lastErr string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sync_queue SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), lastErr, r.nowMs(), id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox entry %d %s: %w", id, status, err)
	}
	return mustAffect(res, id)
}

func mustAffect(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("outbox entry %d: %w", id, common.ErrorNotFound)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	return r.setStatus(ctx, id, models.StatusSynced, "")
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, lastErr string) error {
	return r.setStatus(ctx, id, models.StatusFailed, lastErr)
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, id int64, retryCount int, nextAttemptMs int64, lastErr string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue SET retry_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, retryCount, nextAttemptMs, lastErr, r.nowMs(), id, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to record failure of outbox entry %d: %w", id, err)
	}
	return mustAffect(res, id)
}

func (r *SQLiteRepository) SupersedeOlder(ctx context.Context, table, recordID string, beforeID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue SET status = ?, updated_at = ?
		WHERE table_name = ? AND record_id = ? AND id < ? AND status IN (?, ?)
	`, string(models.StatusSynced), r.nowMs(), table, recordID, beforeID,
		string(models.StatusPending), string(models.StatusFailed))
	if err != nil {
		return 0, fmt.Errorf("failed to supersede %s[%s]: %w", table, recordID, err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE status = ?`, string(models.StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListFailed(ctx context.Context) ([]*models.OutboxEntry, error) {
	return r.list(ctx, `SELECT `+columns+` FROM sync_queue WHERE status = ? ORDER BY id`, string(models.StatusFailed))
}

func (r *SQLiteRepository) Requeue(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sync_queue SET status = ?, retry_count = 0, next_attempt_at = 0, last_error = '', updated_at = ?
		WHERE id = ? AND status = ? AND NOT EXISTS (
			SELECT 1 FROM sync_queue AS newer
			WHERE newer.table_name = sync_queue.table_name
			  AND newer.record_id = sync_queue.record_id
			  AND newer.id > sync_queue.id
			  AND newer.status IN (?, ?)
		)
	`, string(models.StatusPending), r.nowMs(), id, string(models.StatusFailed),
		string(models.StatusPending), string(models.StatusSynced))
	if err != nil {
		return fmt.Errorf("failed to requeue outbox entry %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	e, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == models.StatusFailed {
		return fmt.Errorf("requeue outbox entry %d: %w", id, ErrSuperseded)
	}
	return fmt.Errorf("outbox entry %d is %s: %w", id, e.Status, common.ErrorNotFound)
}

func (r *SQLiteRepository) PurgeSynced(ctx context.Context, olderThanMs int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE status = ? AND updated_at < ?`,
		string(models.StatusSynced), olderThanMs)
	if err != nil {
		return 0, fmt.Errorf("failed to purge synced entries: %w", err)
	}
	return res.RowsAffected()
}
