// Package server wires the sync server together: configuration, logging,
// PostgreSQL, the gRPC sync service, the REST admin API and background
// housekeeping. It shuts everything down gracefully on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/server/config"
	gs "github.com/bizdash/bizsync/internal/server/grpc"
	"github.com/bizdash/bizsync/internal/server/httpapi"
	"github.com/bizdash/bizsync/internal/server/repositories/repomanager"
	"github.com/bizdash/bizsync/internal/server/services"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const tokenPurgeInterval = time.Hour

// openDB is a seam for tests.
var openDB = repomanager.Open

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	users     *services.UserService
	documents *services.DocumentService
	system    *services.SystemService
	snapshots *services.SnapshotService
}

// NewApp connects to the database, retrying while it comes up, and runs
// migrations. Log output goes to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, w)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		db, err = openDB(ctx, c.DatabaseDSN)
		if err != nil {
			logger.Warn(ctx, "database not ready", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	system := services.NewSystemService(db, rm)
	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		users:       services.NewUserService(db, rm, c),
		documents:   services.NewDocumentService(db, rm, system, logger),
		system:      system,
		snapshots:   services.NewSnapshotService(c),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// purgeTokens drops expired refresh tokens every interval until ctx is done.
func (app *App) purgeTokens(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := app.users.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "purge refresh tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "purged refresh tokens", "count", n)
			}
		}
	}
}

// Run serves until ctx is cancelled or a signal arrives. A failing server
// stops the others.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.config.SecretKey, gs.Services{
		Users:     app.users,
		Documents: app.documents,
		System:    app.system,
		Snapshots: app.snapshots,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return grpcServer.Run(gctx) })

	if app.config.EndpointAddrHTTP != "" {
		httpServer, err := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, httpapi.Options{
			Secret:    app.config.SecretKey,
			RateLimit: app.config.RateLimit,
			System:    app.system,
			Documents: app.documents,
			Users:     app.users,
			Logger:    app.logger,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return httpServer.Run(gctx) })
	}

	g.Go(func() error { return app.purgeTokens(gctx, tokenPurgeInterval) })

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return err
}
