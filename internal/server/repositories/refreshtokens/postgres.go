package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/dbx"
	"github.com/bizdash/bizsync/internal/server/models"
)

const (
	insertSQL = `INSERT INTO refresh_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`

	consumeSQL = `DELETE FROM refresh_tokens WHERE token = $1 RETURNING user_id, expires_at`

	purgeSQL = `DELETE FROM refresh_tokens WHERE expires_at < $1`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t models.RefreshToken) error {
	if _, err := r.db.ExecContext(ctx, insertSQL, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("insert refresh token for %s: %w", t.UserID, err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	t := models.RefreshToken{Token: token}
	err := r.db.QueryRowContext(ctx, consumeSQL, token).Scan(&t.UserID, &t.ExpiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrorNotFound
	case err != nil:
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, purgeSQL, now)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
