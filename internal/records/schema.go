package records

import (
	"fmt"
	"sort"

	"github.com/bizdash/bizsync/internal/common"
)

// Schema describes how a table is stored.
type Schema struct {
	Name string
	// KeyField is the JSON field used as the local primary key. Empty
	// means the record id.
	KeyField string
	// Indexes maps an index name (a JSON field) to its column.
	Indexes map[string]string

	check func(Document) error
}

// Check decodes doc into the table's record type and validates it.
func (s Schema) Check(doc Document) error {
	if s.check == nil {
		return nil
	}
	return s.check(doc)
}

// KeyOf returns the storage key of doc under this schema.
func (s Schema) KeyOf(doc Document) (string, error) {
	if s.KeyField == "" {
		if doc.ID == "" {
			return "", fmt.Errorf("%w: %s: empty id", common.ErrInvalidRecord, s.Name)
		}
		return doc.ID, nil
	}
	key, ok := doc.Field(s.KeyField)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s: missing %s", common.ErrInvalidRecord, s.Name, s.KeyField)
	}
	return key, nil
}

// Index returns the column behind an index name.
func (s Schema) Index(name string) (string, bool) {
	col, ok := s.Indexes[name]
	return col, ok
}

// Table binds a table name to its record type.
type Table[T Record] struct {
	schema Schema
	newFn  func() T
}

func (t Table[T]) Name() string   { return t.schema.Name }
func (t Table[T]) Schema() Schema { return t.schema }

// New allocates an empty record of the table's type.
func (t Table[T]) New() T { return t.newFn() }

// Decode converts a Document into the table's record type.
func (t Table[T]) Decode(doc Document) (T, error) {
	r := t.newFn()
	if err := DecodeInto(doc, r); err != nil {
		var zero T
		return zero, err
	}
	return r, nil
}

var registry = map[string]Schema{}

func define[T Record](s Schema, newFn func() T) Table[T] {
	if _, dup := registry[s.Name]; dup {
		panic("records: duplicate table " + s.Name)
	}
	s.check = func(doc Document) error {
		r := newFn()
		if err := DecodeInto(doc, r); err != nil {
			return err
		}
		return Validate(r)
	}
	registry[s.Name] = s
	return Table[T]{schema: s, newFn: newFn}
}

// Lookup returns the schema of a registered table.
func Lookup(name string) (Schema, error) {
	s, ok := registry[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", common.ErrUnknownTable, name)
	}
	return s, nil
}

// Names lists every registered table, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
