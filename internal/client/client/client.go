package client

import (
	"context"

	"github.com/bizdash/bizsync/internal/records"
)

// LoginResult is what a successful login reveals about the user.
type LoginResult struct {
	UserID       string
	Role         string
	RefreshToken string
}

type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Ping(ctx context.Context) error
	SystemStatus(ctx context.Context) (bool, error)
	Query(ctx context.Context, table string) ([]records.Document, error)
	Upsert(ctx context.Context, table string, doc records.Document) error
	Delete(ctx context.Context, table, id string) error
	PresignSnapshot(ctx context.Context) (key string, url string, err error)

	// RefreshToken and SetRefreshToken let the caller persist the session
	// between runs.
	RefreshToken() string
	SetRefreshToken(token string)
}
