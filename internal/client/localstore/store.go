package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/dbx"
	"github.com/bizdash/bizsync/internal/records"
)

// Filter selects documents during a full scan. A nil Filter keeps all.
type Filter func(records.Document) bool

type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func lookup(table string) (records.Schema, error) {
	return records.Lookup(table)
}

func scanDoc(raw string) (records.Document, error) {
	var doc records.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return records.Document{}, fmt.Errorf("corrupt local document: %w", err)
	}
	return doc, nil
}

// Get returns the document stored under key or common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, table, key string) (records.Document, error) {
	if _, err := lookup(table); err != nil {
		return records.Document{}, err
	}

	var raw string
	q := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, table)
	err := s.db.QueryRowContext(ctx, q, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Document{}, common.ErrorNotFound
	}
	if err != nil {
		return records.Document{}, fmt.Errorf("failed to get %s[%s]: %w", table, key, err)
	}
	return scanDoc(raw)
}

// GetAll scans the table in insertion order, keeps documents accepted by
// filter and stops after limit matches. limit <= 0 means no limit.
func (s *Store) GetAll(ctx context.Context, table string, filter Filter, limit int) ([]records.Document, error) {
	if _, err := lookup(table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s ORDER BY rowid`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	out := []records.Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		doc, err := scanDoc(raw)
		if err != nil {
			return nil, err
		}
		if filter != nil && !filter(doc) {
			continue
		}
		out = append(out, doc)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}
	return out, nil
}

// Put inserts or fully replaces the document under its schema key.
func (s *Store) Put(ctx context.Context, table string, doc records.Document) error {
	return put(ctx, s.db, table, "", doc)
}

// PutKey is Put with an explicit key.
func (s *Store) PutKey(ctx context.Context, table, key string, doc records.Document) error {
	if key == "" {
		return fmt.Errorf("%w: %s: empty key", common.ErrInvalidRecord, table)
	}
	return put(ctx, s.db, table, key, doc)
}

// BulkPut writes every document in one transaction. Either all of them
// are stored or, on the first failure, none are.
func (s *Store) BulkPut(ctx context.Context, table string, docs []records.Document) error {
	if _, err := lookup(table); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for i, doc := range docs {
			if err := put(ctx, tx, table, "", doc); err != nil {
				return fmt.Errorf("bulk put %s #%d: %w", table, i, err)
			}
		}
		return nil
	})
}

func put(ctx context.Context, db dbx.DBTX, table, key string, doc records.Document) error {
	schema, err := lookup(table)
	if err != nil {
		return err
	}
	if key == "" {
		if key, err = schema.KeyOf(doc); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %s[%s]: %v", common.ErrInvalidRecord, table, key, err)
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, deleted, updated_at, doc) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at,
			doc = excluded.doc
	`, table)
	_, err = db.ExecContext(ctx, q, key, doc.UserID, doc.Deleted, formatTime(doc.UpdatedAt), string(raw))
	if err != nil {
		return fmt.Errorf("failed to put %s[%s]: %w", table, key, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Delete removes the document under key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, table, key string) error {
	if _, err := lookup(table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), key); err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", table, key, err)
	}
	return nil
}

// Clear empties one table.
func (s *Store) Clear(ctx context.Context, table string) error {
	if _, err := lookup(table); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// ClearAll empties every entity table in one transaction. The outbox and
// metadata tables are left alone.
func (s *Store) ClearAll(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range records.Names() {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// ByIndex returns documents whose secondary index equals value.
func (s *Store) ByIndex(ctx context.Context, table, index, value string) ([]records.Document, error) {
	schema, err := lookup(table)
	if err != nil {
		return nil, err
	}
	col, ok := schema.Index(index)
	if !ok {
		return nil, fmt.Errorf("%s has no index %q", table, index)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE %s = ? ORDER BY rowid`, table, col), value)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", table, index, err)
	}
	defer rows.Close()

	out := []records.Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		doc, err := scanDoc(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}
	return out, nil
}

// Count returns the number of rows in a table, deleted ones included.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if _, err := lookup(table); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
