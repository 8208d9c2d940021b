package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/config"
	"github.com/bizdash/bizsync/internal/client/localstore"
	"github.com/bizdash/bizsync/internal/client/repositories/metadata"
	"github.com/bizdash/bizsync/internal/client/repositories/outbox"
	"github.com/bizdash/bizsync/internal/client/services"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/metrics"
	"github.com/bizdash/bizsync/internal/netx"
)

// App holds the wired client.
type App struct {
	config  *config.Config
	logger  logging.Logger
	store   *localstore.Store
	remote  client.Client
	session *services.Session

	authService services.AuthService
	syncService *services.SyncService
	snapshots   *services.SnapshotService
	flusher     *services.Flusher
	watcher     *Watcher

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, err := localstore.Open(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	remote, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	session := services.NewSession()
	meta := metadata.NewSQLiteRepository(store.DB())

	syncService := services.NewSyncService(services.SyncDeps{
		Store:   store,
		Outbox:  outbox.NewSQLiteRepository(store.DB()),
		Remote:  remote,
		Session: session,
		Guard:   services.NewMaintenanceGuard(remote, meta, logger),
		Metrics: metrics.NewCollector(),
		Logger:  logger,
		Backoff: services.Backoff{Base: c.BaseBackoff, Max: c.MaxBackoff, MaxRetries: c.MaxRetries},
	})
	flusher := services.NewFlusher(syncService,
		services.WithInterval(c.FlushInterval),
		services.WithRetention(c.SyncedRetention),
		services.WithBatch(c.FlushBatch),
	)

	a := &App{
		config:      c,
		logger:      logger.With("module", "cli"),
		store:       store,
		remote:      remote,
		session:     session,
		authService: services.NewAuthService(remote, meta, store, session, logger),
		syncService: syncService,
		snapshots:   services.NewSnapshotService(store, remote, netx.NewUploader(), session, logger),
		flusher:     flusher,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
	a.watcher = NewWatcher(remote, c.OnlineCheckInterval, a.onModeChange)
	return a, nil
}

func (a *App) Close(ctx context.Context) error {
	cerr := a.authService.Close(ctx)
	if err := a.store.Close(); err != nil {
		return err
	}
	return cerr
}

func (a *App) isLoggedIn() bool {
	_, err := a.session.Current()
	return err == nil
}

func (a *App) onModeChange(from, to Mode) {
	fmt.Fprintf(a.out, "Switched to %s mode\n", to)
	if to == ModeOnline && from != ModeOnline {
		a.flusher.Trigger()
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
