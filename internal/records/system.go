package records

import (
	"encoding/json"
	"time"
)

// ConfigEntry is a per-user setting, stored locally under its Key.
type ConfigEntry struct {
	Base
	Key   string          `json:"key" validate:"required"`
	Value json.RawMessage `json:"value"`
}

// InternalMessage is a message between dashboard users.
type InternalMessage struct {
	Base
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId" validate:"required"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Read        bool   `json:"read"`
}

// AuditLogEntry is stored locally under its Timestamp.
type AuditLogEntry struct {
	Base
	Timestamp string `json:"timestamp" validate:"required"`
	Action    string `json:"action"`
	Entity    string `json:"entity"`
	EntityID  string `json:"entityId"`
	Details   string `json:"details"`
}

// NewAuditLogEntry stamps the entry with a sortable timestamp.
func NewAuditLogEntry(userID, action string, now time.Time) *AuditLogEntry {
	return &AuditLogEntry{
		Base:      NewBase(userID, now),
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Action:    action,
	}
}

// RecipientIndex is the index name of internal_messages by recipient.
const RecipientIndex = "recipientId"

var (
	Config           = define(Schema{Name: "config", KeyField: "key"}, func() *ConfigEntry { return &ConfigEntry{} })
	InternalMessages = define(Schema{Name: "internal_messages", Indexes: map[string]string{RecipientIndex: "recipient_id"}}, func() *InternalMessage { return &InternalMessage{} })
	AuditLog         = define(Schema{Name: "audit_log", KeyField: "timestamp"}, func() *AuditLogEntry { return &AuditLogEntry{} })
)
