package records

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the fields shared by every entity. Timestamps are set by the
// writer.
type Base struct {
	ID        string     `json:"id" validate:"required"`
	UserID    string     `json:"userId" validate:"required"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Record is implemented by pointers to every entity type.
type Record interface {
	Meta() *Base
}

// NewBase returns a live Base with a fresh random id.
func NewBase(userID string, now time.Time) Base {
	now = now.UTC()
	return Base{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (b *Base) Meta() *Base { return b }

// MarkDeleted flags the record as soft-deleted.
func (b *Base) MarkDeleted(now time.Time) {
	now = now.UTC()
	b.Deleted = true
	b.DeletedAt = &now
	b.UpdatedAt = now
}

// Restore clears the soft-delete flag.
func (b *Base) Restore(now time.Time) {
	b.Deleted = false
	b.DeletedAt = nil
	b.UpdatedAt = now.UTC()
}

// Touch stamps UpdatedAt, and CreatedAt when it was never set.
func (b *Base) Touch(now time.Time) {
	now = now.UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
