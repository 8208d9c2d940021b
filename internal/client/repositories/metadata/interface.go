// Package metadata stores small client-side key/value facts: the logged in
// identity, the refresh token and the last known server status.
package metadata

import (
	"context"
)

// Well known keys.
const (
	KeyUsername     = "session.username"
	KeyUserID       = "session.user_id"
	KeyRole         = "session.role"
	KeyRefreshToken = "session.refresh_token"
	KeyPasswordHash = "session.password_hash"
	KeyMaintenance  = "system.maintenance"
	KeyLastFetch    = "sync.last_fetch"
)

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
