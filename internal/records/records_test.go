package records

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEncodeDecode_Sale(t *testing.T) {
	s := &Sale{Base: NewBase("u1", now), ClientName: "ACME", Amount: decimal.RequireFromString("100.50")}

	doc, err := Encode(s)
	require.NoError(t, err)
	assert.Equal(t, s.ID, doc.ID)
	assert.Equal(t, "u1", doc.UserID)
	assert.False(t, doc.Deleted)
	assert.True(t, doc.UpdatedAt.Equal(now))

	got, err := Sales.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.ClientName)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("100.5")))
}

func TestDecodeInto_EnvelopeWins(t *testing.T) {
	doc := Document{
		ID:     "s1",
		UserID: "u1",
		Data:   json.RawMessage(`{"id":"other","userId":"intruder","clientName":"X"}`),
	}
	got, err := Sales.Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "X", got.ClientName)
}

func TestDecodeInto_BadJSON(t *testing.T) {
	_, err := Sales.Decode(Document{ID: "s1", Data: json.RawMessage(`{`)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidRecord))
}

func TestSchema_KeyOf(t *testing.T) {
	cfg := &ConfigEntry{Base: NewBase("u1", now), Key: "theme", Value: json.RawMessage(`"dark"`)}
	doc, err := Encode(cfg)
	require.NoError(t, err)

	key, err := Config.Schema().KeyOf(doc)
	require.NoError(t, err)
	assert.Equal(t, "theme", key)

	entry := NewAuditLogEntry("u1", "login", now)
	doc, err = Encode(entry)
	require.NoError(t, err)
	key, err = AuditLog.Schema().KeyOf(doc)
	require.NoError(t, err)
	assert.Equal(t, now.Format(time.RFC3339Nano), key)

	key, err = Sales.Schema().KeyOf(Document{ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", key)

	_, err = Sales.Schema().KeyOf(Document{})
	assert.True(t, errors.Is(err, common.ErrInvalidRecord))

	_, err = Config.Schema().KeyOf(Document{ID: "c1", Data: json.RawMessage(`{}`)})
	assert.True(t, errors.Is(err, common.ErrInvalidRecord))
}

func TestLookupAndNames(t *testing.T) {
	for _, name := range []string{
		"users", "sales", "clients", "client_transfer_requests", "commission_basic",
		"commission_natal", "commission_custom", "config", "accounts", "cards",
		"transactions", "categories", "goals", "challenges", "challenge_cells",
		"receivables", "wa_contacts", "wa_tags", "wa_campaigns", "wa_queue",
		"wa_manual_logs", "wa_campaign_stats", "internal_messages", "audit_log",
	} {
		_, err := Lookup(name)
		assert.NoError(t, err, name)
	}
	assert.Len(t, Names(), 24)

	_, err := Lookup("sync_queue")
	assert.True(t, errors.Is(err, common.ErrUnknownTable))

	col, ok := InternalMessages.Schema().Index(RecipientIndex)
	assert.True(t, ok)
	assert.Equal(t, "recipient_id", col)
}

func TestValidate(t *testing.T) {
	ok := &Client{Base: NewBase("u1", now), Name: "Maria", Email: "maria@example.com"}
	require.NoError(t, Validate(ok))

	tests := []struct {
		name string
		rec  Record
	}{
		{"missing owner", &Sale{Base: Base{ID: "s1"}}},
		{"missing id", &Sale{Base: Base{UserID: "u1"}}},
		{"client without name", &Client{Base: NewBase("u1", now)}},
		{"bad email", &Client{Base: NewBase("u1", now), Name: "x", Email: "nope"}},
		{"bad status", &Sale{Base: NewBase("u1", now), Status: "lost"}},
		{"bad closing day", &Card{Base: NewBase("u1", now), Name: "visa", ClosingDay: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidRecord))
		})
	}
}

func TestBase_SoftDeleteAndRestore(t *testing.T) {
	b := NewBase("u1", now)
	later := now.Add(time.Hour)

	b.MarkDeleted(later)
	assert.True(t, b.Deleted)
	require.NotNil(t, b.DeletedAt)
	assert.True(t, b.UpdatedAt.Equal(later))

	b.Restore(later.Add(time.Minute))
	assert.False(t, b.Deleted)
	assert.Nil(t, b.DeletedAt)
}

func TestEncode_ClearedFieldsStayInPayload(t *testing.T) {
	c := &Client{Base: NewBase("u1", now), Name: "Acme", Phone: "555-0100", Tags: []string{"vip"}}
	c.MarkDeleted(now.Add(time.Minute))
	c.Restore(now.Add(2 * time.Minute))
	c.Phone = ""
	c.Tags = nil

	doc, err := Encode(c)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc.Data, &fields))
	for key, want := range map[string]string{"deletedAt": "null", "phone": `""`, "tags": "null", "deleted": "false"} {
		got, ok := fields[key]
		require.True(t, ok, key)
		assert.Equal(t, want, string(got), key)
	}
}

func TestCommissionRule_Applies(t *testing.T) {
	r := &CommissionRule{MinAmount: decimal.NewFromInt(100), MaxAmount: decimal.NewFromInt(500)}
	assert.False(t, r.Applies(decimal.NewFromInt(99)))
	assert.True(t, r.Applies(decimal.NewFromInt(100)))
	assert.True(t, r.Applies(decimal.NewFromInt(500)))
	assert.False(t, r.Applies(decimal.NewFromInt(501)))

	open := &CommissionRule{MinAmount: decimal.NewFromInt(10)}
	assert.True(t, open.Applies(decimal.NewFromInt(1_000_000)))
}

func TestGoal_Progress(t *testing.T) {
	g := &Goal{Target: decimal.NewFromInt(200), Current: decimal.NewFromInt(50)}
	assert.Equal(t, "25", g.Progress().String())
	assert.True(t, (&Goal{}).Progress().IsZero())
}

func TestSchema_Check(t *testing.T) {
	s, err := Lookup("clients")
	require.NoError(t, err)

	ok := Document{ID: "c1", UserID: "u1", Data: json.RawMessage(`{"name":"Ana"}`)}
	require.NoError(t, s.Check(ok))

	missingName := Document{ID: "c1", UserID: "u1", Data: json.RawMessage(`{}`)}
	require.ErrorIs(t, s.Check(missingName), common.ErrInvalidRecord)

	noOwner := Document{ID: "c1", Data: json.RawMessage(`{"name":"Ana"}`)}
	require.ErrorIs(t, s.Check(noOwner), common.ErrInvalidRecord)

	broken := Document{ID: "c1", UserID: "u1", Data: json.RawMessage(`[1]`)}
	require.ErrorIs(t, s.Check(broken), common.ErrInvalidRecord)
}
