// Package refreshtokens stores the rotating refresh tokens issued at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/bizdash/bizsync/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token models.RefreshToken) error
	// Consume removes token and returns what it held, so a token can be
	// exchanged once even under concurrent refreshes. Unknown tokens yield
	// common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
	// DeleteExpired drops every token that expired before now and returns
	// how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
