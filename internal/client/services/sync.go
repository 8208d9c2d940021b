package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/localstore"
	"github.com/bizdash/bizsync/internal/client/models"
	"github.com/bizdash/bizsync/internal/client/repositories/outbox"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/metrics"
	"github.com/bizdash/bizsync/internal/records"
)

// Source tells where the records of a fetch came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
)

// FetchResult is the outcome of a read-through. RemoteErr holds the
// swallowed remote failure when Source is SourceCache.
type FetchResult[R any] struct {
	Source    Source
	Records   []R
	RemoteErr error
}

// SyncDeps lists the collaborators of a SyncService. Guard, Metrics,
// Logger, Now and Backoff have defaults.
type SyncDeps struct {
	Store   *localstore.Store
	Outbox  outbox.Repository
	Remote  client.Client
	Session *Session
	Guard   Guard
	Metrics *metrics.Collector
	Logger  logging.Logger
	Now     func() time.Time
	Backoff Backoff
}

// SyncService keeps the local store and the remote document store in step:
// reads go remote first and fall back to the cache, writes are logged in
// the outbox, sent to the server and mirrored locally once accepted.
type SyncService struct {
	store   *localstore.Store
	outbox  outbox.Repository
	remote  client.Client
	session *Session
	guard   Guard
	metrics *metrics.Collector
	logger  logging.Logger
	now     func() time.Time
	backoff Backoff

	// serialises remote writes so a flush never replays an entry a newer
	// write already superseded
	writeMu sync.Mutex
}

func NewSyncService(d SyncDeps) *SyncService {
	s := &SyncService{
		store:   d.Store,
		outbox:  d.Outbox,
		remote:  d.Remote,
		session: d.Session,
		guard:   d.Guard,
		metrics: d.Metrics,
		logger:  d.Logger,
		now:     d.Now,
		backoff: d.Backoff,
	}
	if s.guard == nil {
		s.guard = AllowAll
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCollector()
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.With("module", "sync_service")
	if s.now == nil {
		s.now = time.Now
	}
	if s.backoff == (Backoff{}) {
		s.backoff = DefaultBackoff()
	}
	return s
}

func (s *SyncService) Metrics() metrics.Snapshot { return s.metrics.Snapshot() }

func (s *SyncService) Session() *Session { return s.session }

// FetchDocuments is the untyped read-through used by generic callers.
func (s *SyncService) FetchDocuments(ctx context.Context, table string) (FetchResult[records.Document], error) {
	if _, err := records.Lookup(table); err != nil {
		return FetchResult[records.Document]{}, err
	}
	return s.fetch(ctx, table)
}

func (s *SyncService) fetch(ctx context.Context, table string) (FetchResult[records.Document], error) {
	id, err := s.session.Current()
	if err != nil {
		return FetchResult[records.Document]{}, err
	}
	s.metrics.IncReads()

	var (
		remoteDocs []records.Document
		remoteErr  error
	)
	docs, err := s.remote.Query(ctx, table)
	if err != nil {
		remoteErr = err
		s.metrics.IncRemoteReadFailures()
		s.logger.Warn(ctx, "remote query failed, serving cache", "table", table, "error", err)
	} else {
		remoteDocs = docs
		if err := s.store.BulkPut(ctx, table, docs); err != nil {
			s.metrics.IncLocalFailures()
			s.logger.Warn(ctx, "cannot mirror remote records", "table", table, "count", len(docs), "error", err)
		}
	}

	mine := func(d records.Document) bool { return d.UserID == id.UserID && !d.Deleted }
	local, err := s.store.GetAll(ctx, table, mine, 0)
	if err != nil {
		s.metrics.IncLocalFailures()
		if remoteErr == nil {
			s.logger.Warn(ctx, "local read failed, serving remote records", "table", table, "error", err)
			out := make([]records.Document, 0, len(remoteDocs))
			for _, d := range remoteDocs {
				if mine(d) {
					out = append(out, d)
				}
			}
			return FetchResult[records.Document]{Source: SourceRemote, Records: out}, nil
		}
		return FetchResult[records.Document]{}, fmt.Errorf("read %s: remote: %v; local: %w", table, remoteErr, err)
	}

	if remoteErr != nil {
		return FetchResult[records.Document]{Source: SourceCache, Records: local, RemoteErr: remoteErr}, nil
	}
	return FetchResult[records.Document]{Source: SourceRemote, Records: local}, nil
}

// preflight resolves the identity and runs the guard.
func (s *SyncService) preflight(ctx context.Context) (Identity, error) {
	id, err := s.session.Current()
	if err != nil {
		return Identity{}, err
	}
	if err := s.guard.CheckWrite(ctx, id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// write sends an already validated document. The outbox entry is written
// first; a failed enqueue is logged and the remote write still happens.
func (s *SyncService) write(ctx context.Context, table string, doc records.Document) error {
	e, err := models.NewOutboxEntry(table, models.OpUpsert, doc, s.now())
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	queued := s.enqueue(ctx, e)

	if err := s.remote.Upsert(ctx, table, doc); err != nil {
		return s.remoteFailed(ctx, e, queued, err)
	}

	if err := s.store.Put(ctx, table, doc); err != nil {
		s.metrics.IncLocalFailures()
		s.logger.Warn(ctx, "cannot mirror write locally", "table", table, "id", doc.ID, "error", err)
	}
	if queued {
		s.settle(ctx, e)
	}
	s.metrics.IncWrites()
	return nil
}

func (s *SyncService) purge(ctx context.Context, table, key string) error {
	schema, err := records.Lookup(table)
	if err != nil {
		return err
	}
	id, err := s.preflight(ctx)
	if err != nil {
		return err
	}

	doc, err := s.store.Get(ctx, table, key)
	switch {
	case err == nil:
		if doc.UserID != id.UserID {
			return common.ErrOwnerConflict
		}
	case errors.Is(err, common.ErrorNotFound) && schema.KeyField == "":
		doc = records.Document{ID: key, UserID: id.UserID}
	default:
		return err
	}

	e, err := models.NewOutboxEntry(table, models.OpPurge, doc, s.now())
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	queued := s.enqueue(ctx, e)

	if err := s.remote.Delete(ctx, table, doc.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return s.remoteFailed(ctx, e, queued, err)
	}

	if err := s.store.Delete(ctx, table, key); err != nil {
		s.metrics.IncLocalFailures()
		s.logger.Warn(ctx, "cannot purge local copy", "table", table, "key", key, "error", err)
	}
	if queued {
		s.settle(ctx, e)
	}
	s.metrics.IncWrites()
	return nil
}

func (s *SyncService) enqueue(ctx context.Context, e *models.OutboxEntry) bool {
	if _, err := s.outbox.Enqueue(ctx, e); err != nil {
		s.metrics.IncLocalFailures()
		s.logger.Warn(ctx, "cannot enqueue write", "table", e.Table, "id", e.RecordID, "error", err)
		return false
	}
	return true
}

func (s *SyncService) remoteFailed(ctx context.Context, e *models.OutboxEntry, queued bool, cause error) error {
	s.metrics.IncRemoteWriteFailures()
	s.logger.Warn(ctx, "remote write failed", "table", e.Table, "id", e.RecordID, "op", e.Operation, "error", cause)

	pending := false
	if queued {
		pending = s.recordFailure(ctx, e, cause) == models.StatusPending
	}
	return &PendingWriteError{Table: e.Table, RecordID: e.RecordID, OutboxID: e.ID, Queued: pending, Err: cause}
}

// recordFailure schedules a retry of e or gives up on it, and returns the
// resulting status.
func (s *SyncService) recordFailure(ctx context.Context, e *models.OutboxEntry, cause error) models.Status {
	attempt := e.RetryCount + 1

	if IsPermanent(cause) || s.backoff.Exhausted(attempt) {
		if err := s.outbox.MarkFailed(ctx, e.ID, cause.Error()); err != nil {
			s.logger.Warn(ctx, "cannot mark outbox entry failed", "outbox_id", e.ID, "error", err)
		}
		return models.StatusFailed
	}

	next := s.now().Add(s.backoff.Delay(attempt)).UnixMilli()
	if err := s.outbox.RecordFailure(ctx, e.ID, attempt, next, cause.Error()); err != nil {
		s.logger.Warn(ctx, "cannot reschedule outbox entry", "outbox_id", e.ID, "error", err)
	}
	return models.StatusPending
}

// settle marks e and every older pending or failed entry of the same record synced.
func (s *SyncService) settle(ctx context.Context, e *models.OutboxEntry) {
	if err := s.outbox.MarkSynced(ctx, e.ID); err != nil {
		s.logger.Warn(ctx, "cannot mark outbox entry synced", "outbox_id", e.ID, "error", err)
		return
	}
	if n, err := s.outbox.SupersedeOlder(ctx, e.Table, e.RecordID, e.ID); err != nil {
		s.logger.Warn(ctx, "cannot supersede older entries", "outbox_id", e.ID, "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "superseded older entries", "table", e.Table, "id", e.RecordID, "count", n)
	}
}

// Reset wipes every local entity table. Queued writes are kept.
func (s *SyncService) Reset(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

func (s *SyncService) Pending(ctx context.Context) ([]*models.OutboxEntry, error) {
	return s.outbox.GetPending(ctx)
}

func (s *SyncService) PendingByTable(ctx context.Context, table string) ([]*models.OutboxEntry, error) {
	return s.outbox.GetPendingByTable(ctx, table)
}

func (s *SyncService) CountPending(ctx context.Context) (int, error) {
	return s.outbox.CountPending(ctx)
}

func (s *SyncService) Failed(ctx context.Context) ([]*models.OutboxEntry, error) {
	return s.outbox.ListFailed(ctx)
}

// Retry puts a FAILED entry back in the queue. It refuses with
// outbox.ErrSuperseded when a newer write of the same record exists.
func (s *SyncService) Retry(ctx context.Context, outboxID int64) error {
	return s.outbox.Requeue(ctx, outboxID)
}

// Inbox lists the cached messages addressed to the current user.
func (s *SyncService) Inbox(ctx context.Context) ([]*records.InternalMessage, error) {
	id, err := s.session.Current()
	if err != nil {
		return nil, err
	}
	return localstore.Inbox(ctx, s.store, id.UserID)
}
