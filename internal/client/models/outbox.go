// Package models defines client-side data models used by the bizsync CLI.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/records"
)

// Status is the lifecycle state of an outbox entry.
type Status string

const (
	// StatusPending means the mutation has not been confirmed by the server.
	StatusPending Status = "PENDING"
	// StatusSynced means the server acknowledged the mutation.
	StatusSynced Status = "SYNCED"
	// StatusFailed means retries were exhausted or the server rejected the
	// mutation permanently.
	StatusFailed Status = "FAILED"
)

// Operation is the kind of remote mutation an outbox entry stands for.
type Operation string

const (
	// OpUpsert creates or updates a document (soft deletes included).
	OpUpsert Operation = "upsert"
	// OpPurge removes a document permanently.
	OpPurge Operation = "purge"
)

// OutboxEntry is one row of the sync_queue table: a write-ahead record of
// a local mutation that must reach the remote store.
type OutboxEntry struct {
	// ID is assigned by the local store and grows monotonically.
	ID int64 `json:"id"`

	// Table is the target entity table.
	Table string `json:"table"`

	Operation Operation `json:"operation"`

	// RecordID is the id of the affected record.
	RecordID string `json:"recordId"`

	// Payload is the JSON encoded records.Document to send.
	Payload json.RawMessage `json:"payload"`

	Status     Status `json:"status"`
	RetryCount int    `json:"retryCount"`

	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	// UpdatedAt is the last status change in epoch milliseconds.
	UpdatedAt int64 `json:"updatedAt"`

	// NextAttemptAt is the earliest retry time in epoch milliseconds.
	NextAttemptAt int64 `json:"nextAttemptAt"`

	// LastError is the message of the last failed attempt.
	LastError string `json:"lastError,omitempty"`
}

// NewOutboxEntry builds a pending entry for doc.
func NewOutboxEntry(table string, op Operation, doc records.Document, now time.Time) (*OutboxEntry, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode outbox payload: %w", err)
	}
	ms := now.UnixMilli()
	return &OutboxEntry{
		Table:         table,
		Operation:     op,
		RecordID:      doc.ID,
		Payload:       payload,
		Status:        StatusPending,
		Timestamp:     ms,
		UpdatedAt:     ms,
		NextAttemptAt: ms,
	}, nil
}

// Document decodes the payload.
func (e *OutboxEntry) Document() (records.Document, error) {
	var doc records.Document
	if err := json.Unmarshal(e.Payload, &doc); err != nil {
		return records.Document{}, fmt.Errorf("decode outbox payload #%d: %w", e.ID, err)
	}
	return doc, nil
}

// Created returns Timestamp as a time.Time.
func (e *OutboxEntry) Created() time.Time {
	return time.UnixMilli(e.Timestamp)
}
