package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bizdash/bizsync/internal/client/analytics"
	"github.com/bizdash/bizsync/internal/client/models"
	"github.com/bizdash/bizsync/internal/client/services"
	"github.com/bizdash/bizsync/internal/filex"
	"github.com/bizdash/bizsync/internal/records"
)

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

var getMultiline = GetMultiline

func (a *App) Tables(ctx context.Context) error {
	for _, n := range records.Names() {
		a.printf("%s\n", n)
	}
	return nil
}

func (a *App) table(args []string, n int, form string) (services.Table, error) {
	if len(args) < n {
		return nil, usage(form)
	}
	return a.syncService.Table(args[0])
}

// List prints the live records of a table.
func (a *App) List(ctx context.Context, args []string) error {
	t, err := a.table(args, 1, "list <table>")
	if err != nil {
		return err
	}

	res, err := t.Fetch(ctx)
	if err != nil {
		return err
	}
	if res.Source == services.SourceCache {
		a.printf("(offline, showing cached data: %v)\n", res.RemoteErr)
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPDATED\tSUMMARY")
	for _, d := range res.Records {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.UpdatedAt.Local().Format(time.DateTime), summary(d))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("%d record(s)\n", len(res.Records))
	return nil
}

// summary picks the first human readable field of a document.
func summary(d records.Document) string {
	for _, f := range []string{"name", "clientName", "title", "subject", "key", "action", "description"} {
		if v, ok := d.Field(f); ok && v != "" {
			return v
		}
	}
	return ""
}

func (a *App) Show(ctx context.Context, args []string) error {
	t, err := a.table(args, 2, "show <table> <key>")
	if err != nil {
		return err
	}
	d, err := t.Get(ctx, args[1])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	a.printf("%s\n", out)
	return nil
}

// Put reads a JSON object and saves it. Without an "id" field a new record
// is created.
func (a *App) Put(ctx context.Context, args []string) error {
	t, err := a.table(args, 1, "put <table>")
	if err != nil {
		return err
	}

	body, err := getMultiline(a.reader, "Enter the record as JSON", a.out)
	if err != nil {
		return err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return err
	}

	saved, err := t.Put(ctx, doc)
	var pending *services.PendingWriteError
	if errors.As(err, &pending) && pending.Queued {
		a.printf("Server did not confirm the write, queued as #%d\n", pending.OutboxID)
		return nil
	}
	if err != nil {
		return err
	}
	a.printf("Saved %s\n", saved.ID)
	return nil
}

func parseDocument(body string) (records.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return records.Document{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	doc := records.Document{Data: json.RawMessage(body)}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &doc.ID); err != nil {
			return records.Document{}, fmt.Errorf("%w: id must be a string", errUsage)
		}
	}
	if raw, ok := fields["userId"]; ok {
		_ = json.Unmarshal(raw, &doc.UserID)
	}
	return doc, nil
}

func (a *App) mutate(ctx context.Context, args []string, form, done string, op func(services.Table, context.Context, string) error) error {
	t, err := a.table(args, 2, form)
	if err != nil {
		return err
	}
	err = op(t, ctx, args[1])
	var pending *services.PendingWriteError
	if errors.As(err, &pending) && pending.Queued {
		a.printf("Server did not confirm the change, queued as #%d\n", pending.OutboxID)
		return nil
	}
	if err != nil {
		return err
	}
	a.printf("%s %s\n", done, args[1])
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	return a.mutate(ctx, args, "delete <table> <key>", "Deleted", services.Table.SoftDelete)
}

func (a *App) Restore(ctx context.Context, args []string) error {
	return a.mutate(ctx, args, "restore <table> <key>", "Restored", services.Table.Restore)
}

func (a *App) Purge(ctx context.Context, args []string) error {
	return a.mutate(ctx, args, "purge <table> <key>", "Purged", services.Table.Purge)
}

func (a *App) printEntries(entries []*models.OutboxEntry) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTABLE\tOP\tRECORD\tRETRIES\tQUEUED\tLAST ERROR")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.Table, e.Operation, e.RecordID, e.RetryCount,
			e.Created().Local().Format(time.DateTime), e.LastError)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("%d entr(ies)\n", len(entries))
	return nil
}

func (a *App) Pending(ctx context.Context) error {
	entries, err := a.syncService.Pending(ctx)
	if err != nil {
		return err
	}
	return a.printEntries(entries)
}

func (a *App) Failed(ctx context.Context) error {
	entries, err := a.syncService.Failed(ctx)
	if err != nil {
		return err
	}
	return a.printEntries(entries)
}

func (a *App) Retry(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("retry <#>")
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return usage("retry <#>")
	}
	if err := a.syncService.Retry(ctx, id); err != nil {
		return err
	}
	a.printf("Requeued #%d\n", id)
	a.flusher.Trigger()
	return nil
}

func (a *App) Flush(ctx context.Context) error {
	rep, err := a.flusher.FlushOnce(ctx)
	if err != nil {
		return err
	}
	a.printf("attempted %d, synced %d, retrying %d, failed %d, skipped %d\n",
		rep.Attempted, rep.Synced, rep.Retrying, rep.Failed, rep.Skipped)
	if rep.Paused {
		a.printf("flush paused: server unavailable or in maintenance\n")
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	m := a.syncService.Metrics()
	pending, err := a.syncService.CountPending(ctx)
	if err != nil {
		return err
	}
	mode := a.watcher.Mode()
	if mode == ModeUnknown {
		mode = "unknown"
	}
	a.printf("mode: %s\npending writes: %d\nreads: %d  writes: %d  flushed: %d\nremote read failures: %d  remote write failures: %d  local failures: %d\n",
		mode, pending, m.Reads, m.Writes, m.Flushed, m.RemoteReadFailures, m.RemoteWriteFailures, m.LocalFailures)
	return nil
}

func (a *App) Duplicates(ctx context.Context) error {
	res, err := services.For(a.syncService, records.Clients).Fetch(ctx)
	if err != nil {
		return err
	}
	pairs := analytics.FindDuplicates(res.Records)
	for _, p := range pairs {
		a.printf("%s (%s)  ~  %s (%s)  [%s, distance %d]\n", p.A.Name, p.A.ID, p.B.Name, p.B.ID, p.Reason, p.Distance)
	}
	a.printf("%d possible duplicate(s)\n", len(pairs))
	return nil
}

func (a *App) ABC(ctx context.Context) error {
	res, err := services.For(a.syncService, records.Sales).Fetch(ctx)
	if err != nil {
		return err
	}
	rep := analytics.ABC(res.Records)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CLASS\tCLIENT\tSALES\tTOTAL\tSHARE %\tCUMULATIVE %")
	for _, it := range rep.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", it.Class, it.ClientName, it.Sales,
			it.Total.StringFixed(2), it.Share.StringFixed(2), it.Cumulative.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("total %s; A %d, B %d, C %d\n", rep.Total.StringFixed(2),
		rep.Count(analytics.ClassA), rep.Count(analytics.ClassB), rep.Count(analytics.ClassC))
	return nil
}

func (a *App) Inbox(ctx context.Context) error {
	msgs, err := a.syncService.Inbox(ctx)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		flag := " "
		if !m.Read {
			flag = "*"
		}
		a.printf("%s %s  from %s: %s\n", flag, m.ID, m.SenderID, m.Subject)
	}
	a.printf("%d message(s)\n", len(msgs))
	return nil
}

// Export uploads a snapshot, or writes it to a file when a path is given.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) > 0 {
		snap, err := a.snapshots.Dump(ctx)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		if err := filex.WriteFileAtomic(args[0], data); err != nil {
			return err
		}
		a.printf("Snapshot written to %s\n", args[0])
		return nil
	}

	key, err := a.snapshots.Export(ctx)
	if err != nil {
		return err
	}
	a.printf("Snapshot uploaded as %s\n", key)
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	if err := a.syncService.Reset(ctx); err != nil {
		return err
	}
	a.printf("Local cache cleared\n")
	return nil
}
