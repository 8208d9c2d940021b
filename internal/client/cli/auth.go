package cli

import (
	"context"

	"github.com/bizdash/bizsync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.Wipe(password)

	id, err := a.authService.Register(ctx, userName, password)
	if err != nil {
		return err
	}

	a.printf("Registered %s (%s)\n", userName, id)
	return nil
}

// Login authenticates online, falling back to the cached credentials when
// the server cannot be reached.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.Wipe(password)

	id, offline, err := a.authService.Login(ctx, userName, password)
	if err != nil {
		a.logger.Warn(ctx, "login failed", "username", userName, "error", err)
		return err
	}

	if offline {
		a.printf("Logged in offline as %s\n", id.Username)
	} else {
		a.printf("Logged in as %s\n", id.Username)
		a.flusher.Trigger()
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}
