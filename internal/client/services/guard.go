package services

import (
	"context"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/repositories/metadata"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/logging"
)

// Guard is the pre-flight check run before any write is attempted.
type Guard interface {
	CheckWrite(ctx context.Context, id Identity) error
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context, id Identity) error

func (f GuardFunc) CheckWrite(ctx context.Context, id Identity) error { return f(ctx, id) }

// AllowAll never blocks.
var AllowAll Guard = GuardFunc(func(context.Context, Identity) error { return nil })

// MaintenanceGuard blocks non-admin writes while the server is in
// maintenance mode. The last status seen is cached in metadata and used
// when the server cannot be reached; with nothing cached writes are
// allowed.
type MaintenanceGuard struct {
	remote client.Client
	meta   metadata.Repository
	logger logging.Logger
}

func NewMaintenanceGuard(remote client.Client, meta metadata.Repository, logger logging.Logger) *MaintenanceGuard {
	return &MaintenanceGuard{remote: remote, meta: meta, logger: logger.With("module", "maintenance_guard")}
}

func (g *MaintenanceGuard) CheckWrite(ctx context.Context, id Identity) error {
	if id.IsAdmin() {
		return nil
	}

	on, err := g.remote.SystemStatus(ctx)
	if err == nil {
		if serr := metadata.SetBool(ctx, g.meta, metadata.KeyMaintenance, on); serr != nil {
			g.logger.Warn(ctx, "cannot cache system status", "error", serr)
		}
		if on {
			return common.ErrMaintenance
		}
		return nil
	}

	g.logger.Debug(ctx, "system status unavailable, using cached value", "error", err)

	cached, ok, cerr := metadata.GetBool(ctx, g.meta, metadata.KeyMaintenance)
	if cerr != nil {
		g.logger.Warn(ctx, "cannot read cached system status", "error", cerr)
		return nil
	}
	if ok && cached {
		return common.ErrMaintenance
	}
	return nil
}
