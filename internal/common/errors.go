// Package common holds what client and server both speak: sentinel errors,
// role names and wire header names. Match errors with errors.Is.
package common

import "errors"

// Storage and generic service errors.
var (
	ErrorNotFound     = errors.New("not found")
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
)

// Document errors.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrInvalidRecord = errors.New("invalid record")
	// ErrOwnerConflict: the id is already held by another user's record.
	ErrOwnerConflict = errors.New("record belongs to another owner")
	// ErrMaintenance rejects a write before it touches storage.
	ErrMaintenance = errors.New("system is in maintenance mode")
)

// Account and token errors.
var (
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
