package rpc

import (
	"time"

	"github.com/bizdash/bizsync/internal/records"
)

type RegisterUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterUserResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID       string `json:"userId"`
	Role         string `json:"role"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SystemStatusRequest struct{}

type SystemStatusResponse struct {
	Maintenance bool      `json:"maintenance"`
	ServerTime  time.Time `json:"serverTime"`
}

type QueryRequest struct {
	Table string `json:"table"`
}

type QueryResponse struct {
	Documents []records.Document `json:"documents"`
}

type UpsertRequest struct {
	Table    string           `json:"table"`
	Document records.Document `json:"document"`
}

type UpsertResponse struct{}

type DeleteRequest struct {
	Table string `json:"table"`
	ID    string `json:"id"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

type PresignSnapshotRequest struct{}

type PresignSnapshotResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
