package services

import (
	"errors"
	"fmt"

	"github.com/bizdash/bizsync/internal/common"
)

// PendingWriteError reports a write the server did not accept. When Queued
// is true the mutation is still in the outbox under OutboxID and the
// flusher will retry it.
type PendingWriteError struct {
	Table    string
	RecordID string
	OutboxID int64
	Queued   bool
	Err      error
}

func (e *PendingWriteError) Error() string {
	if e.Queued {
		return fmt.Sprintf("write %s[%s] not confirmed, queued as #%d: %v", e.Table, e.RecordID, e.OutboxID, e.Err)
	}
	return fmt.Sprintf("write %s[%s] failed: %v", e.Table, e.RecordID, e.Err)
}

func (e *PendingWriteError) Unwrap() error { return e.Err }

// IsPermanent reports whether retrying err can never succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, common.ErrOwnerConflict) ||
		errors.Is(err, common.ErrInvalidRecord) ||
		errors.Is(err, common.ErrUnknownTable) ||
		errors.Is(err, common.ErrMaintenance)
}
