package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/dbx"
	"github.com/bizdash/bizsync/internal/records"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Query(ctx context.Context, collection, userID string) ([]records.Document, error) {
	query := `
		SELECT id, user_id, deleted, doc, updated_at
		FROM documents
		WHERE collection = $1 AND user_id = $2 AND deleted = false
		ORDER BY updated_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, collection, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []records.Document{}
	for rows.Next() {
		var d records.Document
		var data []byte
		if err := rows.Scan(&d.ID, &d.UserID, &d.Deleted, &data, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		d.Data = data
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// Upsert relies on the WHERE of the conflict clause: a row owned by another
// user is left alone and RETURNING yields nothing. The merge keeps keys the
// payload does not carry; records encode every field, so a cleared value
// arrives as null or "" and replaces the stored one.
func (r *PostgresRepository) Upsert(ctx context.Context, collection string, doc records.Document) error {
	query := `
		INSERT INTO documents (collection, id, user_id, deleted, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, id) DO UPDATE
		SET doc = documents.doc || EXCLUDED.doc,
		    deleted = EXCLUDED.deleted,
		    updated_at = EXCLUDED.updated_at
		WHERE documents.user_id = EXCLUDED.user_id
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		collection, doc.ID, doc.UserID, doc.Deleted, []byte(doc.Data), doc.UpdatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrOwnerConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id, userID string) error {
	var gone string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2 AND user_id = $3 RETURNING id`,
		collection, id, userID).Scan(&gone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("db error: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		collection, id).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if exists {
		return common.ErrOwnerConflict
	}
	return common.ErrorNotFound
}

func (r *PostgresRepository) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT collection, count(*)
		FROM documents
		WHERE deleted = false
		GROUP BY collection
	`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var c string
		var n int64
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[c] = n
	}
	return out, rows.Err()
}
