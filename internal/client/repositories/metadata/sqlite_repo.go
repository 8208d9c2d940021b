package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bizdash/bizsync/internal/dbx"
)

const upsertSQL = `INSERT INTO metadata (key, value) VALUES %s
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// SQLiteRepository keeps metadata rows in the local store. It works on a
// plain handle or inside a transaction.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("metadata get %q: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.setMany(ctx, map[string][]byte{key: value})
}

// setMany writes all pairs with one statement so a partial session is never
// stored.
func (r *SQLiteRepository) setMany(ctx context.Context, kv map[string][]byte) error {
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	placeholders := make([]string, len(keys))
	args := make([]any, 0, 2*len(keys))
	for i, k := range keys {
		placeholders[i] = "(?, ?)"
		v := kv[k]
		if v == nil {
			v = []byte{}
		}
		args = append(args, k, v)
	}

	query := fmt.Sprintf(upsertSQL, strings.Join(placeholders, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("metadata set %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key); err != nil {
		return fmt.Errorf("metadata delete %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("metadata clear: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM metadata ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("metadata list: %w", err)
	}
	defer rows.Close()

	out := map[string][]byte{}
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("metadata list scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// GetString is Get for text values; absent keys yield "".
func GetString(ctx context.Context, r Repository, key string) (string, error) {
	v, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SetStrings stores several text values. On a SQLiteRepository the write is a
// single statement.
func SetStrings(ctx context.Context, r Repository, kv map[string]string) error {
	if s, ok := r.(*SQLiteRepository); ok {
		raw := make(map[string][]byte, len(kv))
		for k, v := range kv {
			raw[k] = []byte(v)
		}
		return s.setMany(ctx, raw)
	}
	for k, v := range kv {
		if err := r.Set(ctx, k, []byte(v)); err != nil {
			return err
		}
	}
	return nil
}

// GetBool reads a boolean. ok is false when the key is absent.
func GetBool(ctx context.Context, r Repository, key string) (value bool, ok bool, err error) {
	v, err := r.Get(ctx, key)
	if err != nil || v == nil {
		return false, false, err
	}
	b, err := strconv.ParseBool(string(v))
	if err != nil {
		return false, false, fmt.Errorf("metadata[%s] is not a bool: %w", key, err)
	}
	return b, true, nil
}

func SetBool(ctx context.Context, r Repository, key string, value bool) error {
	return r.Set(ctx, key, []byte(strconv.FormatBool(value)))
}
