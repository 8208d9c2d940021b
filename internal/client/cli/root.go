package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/bizdash/bizsync/internal/client/config"
	"github.com/bizdash/bizsync/internal/flagx"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Execute builds the root command for args and runs it.
func Execute(ctx context.Context, args []string) error {
	cfg := config.New()
	if path := flagx.ConfigFile(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	}

	root := NewRootCommand(cfg)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand returns the bizsync command tree. Flags write straight
// into cfg, so values already loaded from a file act as defaults.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "bizsync",
		Short:         "Offline-first client for the bizsync document store",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, (*App).Interactive)
		},
	}
	root.PersistentFlags().StringP("config", "c", "", "path to config file (JSON or YAML)")
	cfg.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "flush",
			Short: "Log in and replay queued writes once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfg, func(a *App, ctx context.Context) error {
					if err := a.Login(ctx); err != nil {
						return err
					}
					return a.Flush(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "pending",
			Short: "List queued writes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfg, (*App).Pending)
			},
		},
		&cobra.Command{
			Use:   "failed",
			Short: "List writes that gave up",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfg, (*App).Failed)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear the local cache (queued writes are kept)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(cmd.Context(), cfg, (*App).Reset)
			},
		},
	)
	return root
}

func withApp(ctx context.Context, cfg *config.Config, fn func(*App, context.Context) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "close failed", "error", err)
		}
	}()
	return fn(app, ctx)
}

func (a *App) status() string {
	s := ""
	if id, err := a.session.Current(); err == nil {
		s = id.Username + " "
	}
	if m := a.watcher.Mode(); m != ModeUnknown {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Interactive runs the REPL with the watcher and flusher in the
// background. It returns when the user exits or ctx is cancelled.
func (a *App) Interactive(ctx context.Context) error {
	a.printf("Welcome to bizsync (type 'help' for commands)\n")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.watcher.Run(gctx) })
	g.Go(func() error { return a.flusher.Run(gctx) })

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		if err := a.Login(gctx); err != nil {
			report(err)
		}
		runREPL(gctx, a, a.status, bufio.NewScanner(a.reader))
	}()

	select {
	case <-replDone:
	case <-ctx.Done():
	}
	cancel()
	return g.Wait()
}
