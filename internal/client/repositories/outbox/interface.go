package outbox

import (
	"context"
	"errors"

	"github.com/bizdash/bizsync/internal/client/models"
)

// ErrSuperseded refuses a requeue when a newer write of the same record is
// already queued or synced.
var ErrSuperseded = errors.New("a newer write of this record exists")

// Repository describes the operations on the outbox table.
type Repository interface {
	// Enqueue appends e as PENDING and sets e.ID.
	Enqueue(ctx context.Context, e *models.OutboxEntry) (int64, error)

	Get(ctx context.Context, id int64) (*models.OutboxEntry, error)

	// GetPending returns every PENDING entry in id order.
	GetPending(ctx context.Context) ([]*models.OutboxEntry, error)
	GetPendingByTable(ctx context.Context, table string) ([]*models.OutboxEntry, error)

	// Due returns PENDING entries whose next attempt is at or before nowMs.
	Due(ctx context.Context, nowMs int64, limit int) ([]*models.OutboxEntry, error)

	MarkSynced(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error

	// RecordFailure keeps the entry PENDING and schedules the next attempt.
	RecordFailure(ctx context.Context, id int64, retryCount int, nextAttemptMs int64, lastErr string) error

	// SupersedeOlder marks PENDING and FAILED entries for the same record
	// that precede beforeID as SYNCED; a newer write already carried their
	// state.
	SupersedeOlder(ctx context.Context, table, recordID string, beforeID int64) (int64, error)

	CountPending(ctx context.Context) (int, error)
	ListFailed(ctx context.Context) ([]*models.OutboxEntry, error)

	// Requeue moves a FAILED entry back to PENDING with a fresh retry count.
	// It returns ErrSuperseded when a newer PENDING or SYNCED entry exists
	// for the same record.
	Requeue(ctx context.Context, id int64) error

	// PurgeSynced deletes SYNCED entries last updated before olderThanMs.
	PurgeSynced(ctx context.Context, olderThanMs int64) (int64, error)
}
