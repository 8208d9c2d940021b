package localstore

import (
	"context"

	"github.com/bizdash/bizsync/internal/records"
)

// Collection is a typed view of one table.
type Collection[T records.Record] struct {
	store *Store
	table records.Table[T]
}

// For binds a table of the registry to the store.
func For[T records.Record](s *Store, table records.Table[T]) *Collection[T] {
	return &Collection[T]{store: s, table: table}
}

func (c *Collection[T]) Name() string { return c.table.Name() }

func (c *Collection[T]) Get(ctx context.Context, key string) (T, error) {
	doc, err := c.store.Get(ctx, c.table.Name(), key)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.table.Decode(doc)
}

// GetAll decodes every row and keeps those accepted by filter, up to limit.
func (c *Collection[T]) GetAll(ctx context.Context, filter func(T) bool, limit int) ([]T, error) {
	docs, err := c.store.GetAll(ctx, c.table.Name(), nil, 0)
	if err != nil {
		return nil, err
	}
	return c.decode(docs, filter, limit)
}

func (c *Collection[T]) decode(docs []records.Document, filter func(T) bool, limit int) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		r, err := c.table.Decode(doc)
		if err != nil {
			return nil, err
		}
		if filter != nil && !filter(r) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *Collection[T]) Put(ctx context.Context, r T) error {
	doc, err := records.Encode(r)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.table.Name(), doc)
}

func (c *Collection[T]) PutKey(ctx context.Context, key string, r T) error {
	doc, err := records.Encode(r)
	if err != nil {
		return err
	}
	return c.store.PutKey(ctx, c.table.Name(), key, doc)
}

func (c *Collection[T]) BulkPut(ctx context.Context, rs []T) error {
	docs := make([]records.Document, 0, len(rs))
	for _, r := range rs {
		doc, err := records.Encode(r)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return c.store.BulkPut(ctx, c.table.Name(), docs)
}

func (c *Collection[T]) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.table.Name(), key)
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.table.Name())
}

func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx, c.table.Name())
}

func (c *Collection[T]) ByIndex(ctx context.Context, index, value string) ([]T, error) {
	docs, err := c.store.ByIndex(ctx, c.table.Name(), index, value)
	if err != nil {
		return nil, err
	}
	return c.decode(docs, nil, 0)
}

// Inbox lists the messages addressed to recipient.
func Inbox(ctx context.Context, s *Store, recipient string) ([]*records.InternalMessage, error) {
	return For(s, records.InternalMessages).ByIndex(ctx, records.RecipientIndex, recipient)
}
