package services

import (
	"context"
	"errors"
	"time"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/models"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/records"
)

// FlushReport summarises one pass over the outbox.
type FlushReport struct {
	Attempted int
	Synced    int
	Retrying  int
	Failed    int
	Skipped   int
	Purged    int64
	// Paused is set when the pass stopped early because the server is
	// unreachable or in maintenance.
	Paused bool
}

// Flusher replays due outbox entries against the server.
type Flusher struct {
	svc       *SyncService
	interval  time.Duration
	retention time.Duration
	batch     int
	trigger   chan struct{}
}

type FlusherOption func(*Flusher)

func WithInterval(d time.Duration) FlusherOption  { return func(f *Flusher) { f.interval = d } }
func WithRetention(d time.Duration) FlusherOption { return func(f *Flusher) { f.retention = d } }
func WithBatch(n int) FlusherOption               { return func(f *Flusher) { f.batch = n } }

func NewFlusher(svc *SyncService, opts ...FlusherOption) *Flusher {
	f := &Flusher{
		svc:       svc,
		interval:  30 * time.Second,
		retention: 7 * 24 * time.Hour,
		batch:     100,
		trigger:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Trigger asks Run for a pass as soon as possible. It never blocks.
func (f *Flusher) Trigger() {
	select {
	case f.trigger <- struct{}{}:
	default:
	}
}

// Run flushes on every tick and on Trigger until ctx is done.
func (f *Flusher) Run(ctx context.Context) error {
	t := time.NewTicker(f.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case <-f.trigger:
		}

		rep, err := f.FlushOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			f.svc.logger.Warn(ctx, "flush pass failed", "error", err)
			continue
		}
		if rep.Attempted > 0 {
			f.svc.logger.Info(ctx, "flush pass done",
				"attempted", rep.Attempted, "synced", rep.Synced, "retrying", rep.Retrying,
				"failed", rep.Failed, "paused", rep.Paused)
		}
	}
}

// FlushOnce runs a single pass. Entries are replayed in queue order; once an
// entry of a record fails, later entries of the same record wait for the
// next pass.
func (f *Flusher) FlushOnce(ctx context.Context) (FlushReport, error) {
	var rep FlushReport

	if _, err := f.svc.session.Current(); err != nil {
		return rep, nil
	}

	due, err := f.svc.outbox.Due(ctx, f.svc.now().UnixMilli(), f.batch)
	if err != nil {
		return rep, err
	}

	blocked := make(map[string]bool)
	for _, e := range due {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		key := e.Table + "/" + e.RecordID
		if blocked[key] {
			rep.Skipped++
			continue
		}

		done, err := f.replay(ctx, e)
		if !done {
			rep.Skipped++
			continue
		}
		rep.Attempted++

		switch {
		case err == nil:
			rep.Synced++
		case errors.Is(err, common.ErrMaintenance):
			rep.Paused = true
		case errors.Is(err, client.ErrUnavailable):
			blocked[key] = true
			if f.svc.recordFailure(ctx, e, err) == models.StatusFailed {
				rep.Failed++
			} else {
				rep.Retrying++
			}
			rep.Paused = true
		default:
			blocked[key] = true
			if f.svc.recordFailure(ctx, e, err) == models.StatusFailed {
				rep.Failed++
			} else {
				rep.Retrying++
			}
		}
		if rep.Paused {
			break
		}
	}

	f.svc.metrics.AddFlushed(rep.Synced)

	if f.retention > 0 {
		n, err := f.svc.outbox.PurgeSynced(ctx, f.svc.now().Add(-f.retention).UnixMilli())
		if err != nil {
			f.svc.logger.Warn(ctx, "cannot purge synced entries", "error", err)
		}
		rep.Purged = n
	}
	return rep, nil
}

// replay sends a single entry. done is false when the entry was settled by
// someone else since the pass started.
func (f *Flusher) replay(ctx context.Context, e *models.OutboxEntry) (done bool, err error) {
	s := f.svc
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur, err := s.outbox.Get(ctx, e.ID)
	if err != nil || cur.Status != models.StatusPending {
		return false, nil
	}
	e = cur

	doc, err := e.Document()
	if err != nil {
		return true, err
	}

	switch e.Operation {
	case models.OpUpsert:
		if err := s.remote.Upsert(ctx, e.Table, doc); err != nil {
			s.metrics.IncRemoteWriteFailures()
			return true, err
		}
		if err := s.store.Put(ctx, e.Table, doc); err != nil {
			s.metrics.IncLocalFailures()
			s.logger.Warn(ctx, "cannot mirror flushed write", "table", e.Table, "id", e.RecordID, "error", err)
		}
	case models.OpPurge:
		if err := s.remote.Delete(ctx, e.Table, doc.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.metrics.IncRemoteWriteFailures()
			return true, err
		}
		key := doc.ID
		if schema, err := records.Lookup(e.Table); err == nil {
			if k, err := schema.KeyOf(doc); err == nil {
				key = k
			}
		}
		if err := s.store.Delete(ctx, e.Table, key); err != nil {
			s.metrics.IncLocalFailures()
			s.logger.Warn(ctx, "cannot purge flushed record", "table", e.Table, "id", e.RecordID, "error", err)
		}
	default:
		return true, common.ErrInvalidRecord
	}

	s.settle(ctx, e)
	return true, nil
}
