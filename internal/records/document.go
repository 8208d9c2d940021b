package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/common"
)

// Document is the untyped storage and wire form of a record. Data holds
// the full JSON encoding of the record; the other fields are copies kept
// for filtering without decoding.
type Document struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Deleted   bool            `json:"deleted"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

// Encode converts a typed record into a Document.
func Encode(r Record) (Document, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return Document{}, fmt.Errorf("encode record: %w", err)
	}
	m := r.Meta()
	return Document{
		ID:        m.ID,
		UserID:    m.UserID,
		Deleted:   m.Deleted,
		UpdatedAt: m.UpdatedAt,
		Data:      data,
	}, nil
}

// DecodeInto fills r from doc. Envelope fields win over whatever Data says
// so a partially written payload cannot change ownership.
func DecodeInto(doc Document, r Record) error {
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, r); err != nil {
			return fmt.Errorf("%w: decode %s: %v", common.ErrInvalidRecord, doc.ID, err)
		}
	}
	m := r.Meta()
	m.ID = doc.ID
	m.UserID = doc.UserID
	m.Deleted = doc.Deleted
	if !doc.UpdatedAt.IsZero() {
		m.UpdatedAt = doc.UpdatedAt
	}
	return nil
}

// Field returns the JSON field name of the payload as a string.
func (d Document) Field(name string) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(d.Data, &fields); err != nil {
		return "", false
	}
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
