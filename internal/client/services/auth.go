package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/repositories/metadata"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/cryptox"
	"github.com/bizdash/bizsync/internal/logging"
)

// AuthService covers login, registration and the locally cached credentials
// used to work offline.
type AuthService interface {
	// Login tries the server first and falls back to the cached credentials
	// when it cannot be reached. offline reports which path succeeded.
	Login(ctx context.Context, username string, password []byte) (id Identity, offline bool, err error)
	OnlineLogin(ctx context.Context, username string, password []byte) (Identity, error)
	OfflineLogin(ctx context.Context, username string, password []byte) (Identity, error)
	Register(ctx context.Context, username string, password []byte) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearOfflineData(ctx context.Context) error
}

// LocalResetter wipes cached entity data.
type LocalResetter interface {
	ClearAll(ctx context.Context) error
}

type authService struct {
	client  client.Client
	meta    metadata.Repository
	local   LocalResetter
	session *Session
	logger  logging.Logger
}

func NewAuthService(c client.Client, meta metadata.Repository, local LocalResetter, session *Session, logger logging.Logger) AuthService {
	return &authService{client: c, meta: meta, local: local, session: session, logger: logger.With("module", "auth_service")}
}

func (a *authService) Login(ctx context.Context, username string, password []byte) (Identity, bool, error) {
	id, err := a.OnlineLogin(ctx, username, password)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return Identity{}, false, err
	}

	a.logger.Info(ctx, "server unreachable, trying offline login", "username", username)
	id, err = a.OfflineLogin(ctx, username, password)
	if err != nil {
		return Identity{}, false, err
	}
	return id, true, nil
}

// OnlineLogin authenticates against the server and caches what offline
// login needs. Cached records of a previous user are dropped.
func (a *authService) OnlineLogin(ctx context.Context, username string, password []byte) (Identity, error) {
	res, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return Identity{}, fmt.Errorf("login error: %w", err)
	}

	prev, err := metadata.GetString(ctx, a.meta, metadata.KeyUserID)
	if err != nil {
		return Identity{}, err
	}
	if prev != "" && prev != res.UserID {
		a.logger.Info(ctx, "different user logged in, dropping cached records", "previous", prev)
		if err := a.local.ClearAll(ctx); err != nil {
			return Identity{}, fmt.Errorf("reset local data: %w", err)
		}
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return Identity{}, err
	}
	if err := a.meta.Set(ctx, metadata.KeyPasswordHash, hash); err != nil {
		return Identity{}, fmt.Errorf("offline data saving error: %w", err)
	}
	if err := metadata.SetStrings(ctx, a.meta, map[string]string{
		metadata.KeyUsername:     username,
		metadata.KeyUserID:       res.UserID,
		metadata.KeyRole:         res.Role,
		metadata.KeyRefreshToken: res.RefreshToken,
	}); err != nil {
		return Identity{}, fmt.Errorf("offline data saving error: %w", err)
	}

	id := Identity{UserID: res.UserID, Username: username, Role: res.Role}
	a.session.Set(id)
	return id, nil
}

// OfflineLogin checks the password against the cached hash. The cached
// refresh token is handed back to the client so calls can resume once the
// server is back.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) (Identity, error) {
	saved, err := metadata.GetString(ctx, a.meta, metadata.KeyUsername)
	if err != nil {
		return Identity{}, err
	}
	if saved == "" {
		return Identity{}, client.ErrLocalDataNotAvailable
	}
	if saved != username {
		return Identity{}, client.ErrUnauthorized
	}

	hash, err := a.meta.Get(ctx, metadata.KeyPasswordHash)
	if err != nil {
		return Identity{}, err
	}
	if len(hash) == 0 {
		return Identity{}, client.ErrLocalDataNotAvailable
	}
	if err := cryptox.CheckPassword(hash, password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return Identity{}, client.ErrUnauthorized
		}
		return Identity{}, err
	}

	userID, err := metadata.GetString(ctx, a.meta, metadata.KeyUserID)
	if err != nil {
		return Identity{}, err
	}
	role, err := metadata.GetString(ctx, a.meta, metadata.KeyRole)
	if err != nil {
		return Identity{}, err
	}
	token, err := metadata.GetString(ctx, a.meta, metadata.KeyRefreshToken)
	if err != nil {
		return Identity{}, err
	}
	if token != "" {
		a.client.SetRefreshToken(token)
	}

	id := Identity{UserID: userID, Username: username, Role: role}
	a.session.Set(id)
	return id, nil
}

func (a *authService) Register(ctx context.Context, username string, password []byte) (string, error) {
	return a.client.Register(ctx, username, string(password))
}

// Logout ends the session and forgets the refresh token. Offline
// credentials stay so the same user can log in again without the server.
func (a *authService) Logout(ctx context.Context) error {
	a.session.Clear()
	a.client.SetRefreshToken("")
	return a.meta.Delete(ctx, metadata.KeyRefreshToken)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

func (a *authService) ClearOfflineData(ctx context.Context) error {
	return a.meta.Clear(ctx)
}
