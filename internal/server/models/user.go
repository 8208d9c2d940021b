// Package models holds the rows the server persists.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	Role         string
	CreatedAt    time.Time
}
