package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// ErrLocalDataNotAvailable is returned by offline login when no user has
// ever logged in online on this machine.
var ErrLocalDataNotAvailable = errors.New("no offline credentials stored")
