package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/localstore"
	"github.com/bizdash/bizsync/internal/client/repositories/metadata"
	"github.com/bizdash/bizsync/internal/client/repositories/outbox"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/metrics"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/stretchr/testify/require"
)

// memRemote is an in-memory stand-in for the server. Queries are scoped to
// the caller the way the real server scopes them to the token owner.
type memRemote struct {
	mu   sync.Mutex
	docs map[string]map[string]records.Document

	caller string

	QueryErr    error
	UpsertErr   error
	DeleteErr   error
	StatusErr   error
	PingErr     error
	LoginErr    error
	RegisterErr error
	PresignErr  error
	Maintenance bool

	LoginRet   *client.LoginResult
	PresignKey string
	PresignURL string

	upserts      int
	deletes      int
	statusCalls  int
	refreshToken string
	lastPassword string
}

func newMemRemote(caller string) *memRemote {
	return &memRemote{caller: caller, docs: map[string]map[string]records.Document{}}
}

func (m *memRemote) Close() error { return nil }

func (m *memRemote) Register(_ context.Context, username, password string) (string, error) {
	m.lastPassword = password
	if m.RegisterErr != nil {
		return "", m.RegisterErr
	}
	return "id-" + username, nil
}

func (m *memRemote) Login(_ context.Context, username, password string) (*client.LoginResult, error) {
	m.lastPassword = password
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	m.refreshToken = m.LoginRet.RefreshToken
	m.caller = m.LoginRet.UserID
	return m.LoginRet, nil
}

func (m *memRemote) Ping(context.Context) error { return m.PingErr }

func (m *memRemote) SystemStatus(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++
	return m.Maintenance, m.StatusErr
}

func (m *memRemote) Query(_ context.Context, table string) ([]records.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	out := []records.Document{}
	for _, d := range m.docs[table] {
		if d.UserID == m.caller && !d.Deleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRemote) Upsert(_ context.Context, table string, doc records.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if m.docs[table] == nil {
		m.docs[table] = map[string]records.Document{}
	}
	if cur, ok := m.docs[table][doc.ID]; ok && cur.UserID != doc.UserID {
		return common.ErrOwnerConflict
	}
	m.docs[table][doc.ID] = doc
	m.upserts++
	return nil
}

func (m *memRemote) Delete(_ context.Context, table, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if _, ok := m.docs[table][id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.docs[table], id)
	m.deletes++
	return nil
}

func (m *memRemote) PresignSnapshot(context.Context) (string, string, error) {
	return m.PresignKey, m.PresignURL, m.PresignErr
}

func (m *memRemote) RefreshToken() string         { return m.refreshToken }
func (m *memRemote) SetRefreshToken(token string) { m.refreshToken = token }

func (m *memRemote) seed(table string, doc records.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[table] == nil {
		m.docs[table] = map[string]records.Document{}
	}
	m.docs[table][doc.ID] = doc
}

func (m *memRemote) has(table, id string) (records.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[table][id]
	return d, ok
}

func (m *memRemote) setUpsertErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertErr = err
}

func (m *memRemote) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	store   *localstore.Store
	outbox  *outbox.SQLiteRepository
	meta    *metadata.SQLiteRepository
	remote  *memRemote
	session *Session
	clock   *testClock
	metrics *metrics.Collector
	svc     *SyncService
}

const (
	alice = "u-alice"
	bob   = "u-bob"
)

func newEnv(t *testing.T, opts ...func(*SyncDeps)) *env {
	t.Helper()
	store, err := localstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := &env{
		store:   store,
		outbox:  outbox.NewSQLiteRepository(store.DB()),
		meta:    metadata.NewSQLiteRepository(store.DB()),
		remote:  newMemRemote(alice),
		session: NewSession(),
		clock:   newClock(),
		metrics: metrics.NewCollector(),
	}
	e.session.Set(Identity{UserID: alice, Username: "alice", Role: common.RoleUser})

	deps := SyncDeps{
		Store:   e.store,
		Outbox:  e.outbox,
		Remote:  e.remote,
		Session: e.session,
		Metrics: e.metrics,
		Now:     e.clock.Now,
		Backoff: Backoff{Base: time.Second, Max: time.Minute, MaxRetries: 3},
	}
	for _, o := range opts {
		o(&deps)
	}
	e.svc = NewSyncService(deps)
	return e
}

func newClient(name string) *records.Client {
	return &records.Client{Name: name, Phone: "555-0100"}
}
