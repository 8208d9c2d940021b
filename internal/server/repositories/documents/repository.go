// Package documents is the server-side document store: one row per record,
// keyed by (collection, id), with the record payload in a jsonb column.
package documents

import (
	"context"

	"github.com/bizdash/bizsync/internal/records"
)

type Repository interface {
	// Query returns the live documents of one owner in a collection.
	Query(ctx context.Context, collection, userID string) ([]records.Document, error)

	// Upsert merges doc into the stored payload. It returns
	// common.ErrOwnerConflict when the id belongs to someone else.
	Upsert(ctx context.Context, collection string, doc records.Document) error

	// Delete removes the row for good. It returns common.ErrorNotFound for
	// an unknown id and common.ErrOwnerConflict for a foreign one.
	Delete(ctx context.Context, collection, id, userID string) error

	// Counts returns the number of live documents per collection.
	Counts(ctx context.Context) (map[string]int64, error)
}
