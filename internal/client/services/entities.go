package services

import (
	"context"
	"fmt"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/records"
)

// Entities is the typed facade over one table.
type Entities[T records.Record] struct {
	svc   *SyncService
	table records.Table[T]
}

func For[T records.Record](svc *SyncService, table records.Table[T]) *Entities[T] {
	return &Entities[T]{svc: svc, table: table}
}

func (e *Entities[T]) Name() string { return e.table.Name() }

// Fetch reads through the remote store. Records that no longer decode are
// skipped and logged.
func (e *Entities[T]) Fetch(ctx context.Context) (FetchResult[T], error) {
	res, err := e.svc.fetch(ctx, e.table.Name())
	if err != nil {
		return FetchResult[T]{}, err
	}

	out := FetchResult[T]{Source: res.Source, RemoteErr: res.RemoteErr, Records: make([]T, 0, len(res.Records))}
	for _, doc := range res.Records {
		r, err := e.table.Decode(doc)
		if err != nil {
			e.svc.metrics.IncLocalFailures()
			e.svc.logger.Warn(ctx, "skipping undecodable record", "table", e.table.Name(), "id", doc.ID, "error", err)
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out, nil
}

// Get reads a single record from the local store only.
func (e *Entities[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	id, err := e.svc.session.Current()
	if err != nil {
		return zero, err
	}
	doc, err := e.svc.store.Get(ctx, e.table.Name(), key)
	if err != nil {
		return zero, err
	}
	if doc.UserID != id.UserID {
		return zero, common.ErrorNotFound
	}
	return e.table.Decode(doc)
}

// Create assigns a fresh id when r has none and saves it.
func (e *Entities[T]) Create(ctx context.Context, r T) error {
	m := r.Meta()
	if m.ID == "" {
		id, err := e.svc.session.Current()
		if err != nil {
			return err
		}
		*m = records.NewBase(id.UserID, e.svc.now())
	}
	return e.Save(ctx, r)
}

// Save validates r, stamps it and writes it through. A write the server
// rejects or never sees comes back as *PendingWriteError and the local
// store keeps its previous state.
func (e *Entities[T]) Save(ctx context.Context, r T) error {
	id, err := e.svc.preflight(ctx)
	if err != nil {
		return err
	}

	m := r.Meta()
	switch m.UserID {
	case "":
		m.UserID = id.UserID
	case id.UserID:
	default:
		return fmt.Errorf("%w: %s[%s] belongs to another user", common.ErrOwnerConflict, e.table.Name(), m.ID)
	}
	m.Touch(e.svc.now())

	if err := records.Validate(r); err != nil {
		return err
	}
	doc, err := records.Encode(r)
	if err != nil {
		return err
	}
	if _, err := e.table.Schema().KeyOf(doc); err != nil {
		return err
	}
	return e.svc.write(ctx, e.table.Name(), doc)
}

func (e *Entities[T]) SoftDelete(ctx context.Context, key string) error {
	r, err := e.Get(ctx, key)
	if err != nil {
		return err
	}
	r.Meta().MarkDeleted(e.svc.now())
	return e.Save(ctx, r)
}

func (e *Entities[T]) Restore(ctx context.Context, key string) error {
	r, err := e.Get(ctx, key)
	if err != nil {
		return err
	}
	r.Meta().Restore(e.svc.now())
	return e.Save(ctx, r)
}

// Purge removes the record for good, remotely and locally.
func (e *Entities[T]) Purge(ctx context.Context, key string) error {
	return e.svc.purge(ctx, e.table.Name(), key)
}

// Documents returns the untyped view of e.
func (e *Entities[T]) Documents() Table { return docView[T]{e} }

// Table is the untyped view of a table used by the CLI.
type Table interface {
	Name() string
	Fetch(ctx context.Context) (FetchResult[records.Document], error)
	Get(ctx context.Context, key string) (records.Document, error)
	// Put creates doc when it has no id and saves it otherwise.
	Put(ctx context.Context, doc records.Document) (records.Document, error)
	SoftDelete(ctx context.Context, key string) error
	Restore(ctx context.Context, key string) error
	Purge(ctx context.Context, key string) error
}

type docView[T records.Record] struct {
	e *Entities[T]
}

func (v docView[T]) Name() string { return v.e.Name() }

func (v docView[T]) Fetch(ctx context.Context) (FetchResult[records.Document], error) {
	return v.e.svc.fetch(ctx, v.e.Name())
}

func (v docView[T]) Get(ctx context.Context, key string) (records.Document, error) {
	r, err := v.e.Get(ctx, key)
	if err != nil {
		return records.Document{}, err
	}
	return records.Encode(r)
}

func (v docView[T]) Put(ctx context.Context, doc records.Document) (records.Document, error) {
	r, err := v.e.table.Decode(doc)
	if err != nil {
		return records.Document{}, err
	}
	if doc.ID == "" {
		err = v.e.Create(ctx, r)
	} else {
		err = v.e.Save(ctx, r)
	}
	if err != nil {
		return records.Document{}, err
	}
	return records.Encode(r)
}

func (v docView[T]) SoftDelete(ctx context.Context, key string) error { return v.e.SoftDelete(ctx, key) }
func (v docView[T]) Restore(ctx context.Context, key string) error    { return v.e.Restore(ctx, key) }
func (v docView[T]) Purge(ctx context.Context, key string) error      { return v.e.Purge(ctx, key) }

func view[T records.Record](t records.Table[T]) func(*SyncService) Table {
	return func(svc *SyncService) Table { return For(svc, t).Documents() }
}

var views = map[string]func(*SyncService) Table{
	records.Users.Name():                  view(records.Users),
	records.Sales.Name():                  view(records.Sales),
	records.Clients.Name():                view(records.Clients),
	records.ClientTransferRequests.Name(): view(records.ClientTransferRequests),
	records.CommissionBasic.Name():        view(records.CommissionBasic),
	records.CommissionNatal.Name():        view(records.CommissionNatal),
	records.CommissionCustom.Name():       view(records.CommissionCustom),
	records.Accounts.Name():               view(records.Accounts),
	records.Cards.Name():                  view(records.Cards),
	records.Transactions.Name():           view(records.Transactions),
	records.Categories.Name():             view(records.Categories),
	records.Goals.Name():                  view(records.Goals),
	records.Challenges.Name():             view(records.Challenges),
	records.ChallengeCells.Name():         view(records.ChallengeCells),
	records.Receivables.Name():            view(records.Receivables),
	records.WAContacts.Name():             view(records.WAContacts),
	records.WATags.Name():                 view(records.WATags),
	records.WACampaigns.Name():            view(records.WACampaigns),
	records.WAQueue.Name():                view(records.WAQueue),
	records.WAManualLogs.Name():           view(records.WAManualLogs),
	records.WACampaignStats.Name():        view(records.WACampaignStats),
	records.Config.Name():                 view(records.Config),
	records.InternalMessages.Name():       view(records.InternalMessages),
	records.AuditLog.Name():               view(records.AuditLog),
}

// Table returns the untyped view of a registered table.
func (s *SyncService) Table(name string) (Table, error) {
	mk, ok := views[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownTable, name)
	}
	return mk(s), nil
}
