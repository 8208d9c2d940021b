package users

import (
	"context"

	"github.com/bizdash/bizsync/internal/server/models"
)

type Repository interface {
	// Create fills user.ID. A taken username yields common.ErrUserExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetRole(ctx context.Context, id, role string) error
}
