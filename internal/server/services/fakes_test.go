package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/dbx"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/server/models"
	"github.com/bizdash/bizsync/internal/server/repositories/documents"
	"github.com/bizdash/bizsync/internal/server/repositories/refreshtokens"
	"github.com/bizdash/bizsync/internal/server/repositories/settings"
	"github.com/bizdash/bizsync/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

type memUsers struct {
	mu     sync.Mutex
	byName map[string]*models.User
	getErr error
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[u.UserName]; ok {
		return nil, common.ErrUserExists
	}
	u.ID = "u" + strconv.Itoa(len(m.byName)+1)
	cp := *u
	m.byName[u.UserName] = &cp
	return u, nil
}

func (m *memUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) SetRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byName {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return common.ErrorNotFound
}

type memTokens struct {
	mu         sync.Mutex
	tokens     map[string]models.RefreshToken
	createErr  error
	consumeErr error
}

func (m *memTokens) Create(_ context.Context, t models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.tokens[t.Token] = t
	return nil
}

// put seeds a token the way a previous login would have.
func (m *memTokens) put(userID, token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = models.RefreshToken{Token: token, UserID: userID, ExpiresAt: expiresAt}
}

func (m *memTokens) has(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok
}

func (m *memTokens) get(token string) (models.RefreshToken, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	return t, ok
}

func (m *memTokens) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumeErr != nil {
		return nil, m.consumeErr
	}
	t, ok := m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(m.tokens, token)
	return &t, nil
}

func (m *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

type memDocs struct {
	mu   sync.Mutex
	rows map[string]records.Document
}

func docKey(collection, id string) string { return collection + "/" + id }

func (m *memDocs) Query(_ context.Context, collection, userID string) ([]records.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []records.Document{}
	for k, d := range m.rows {
		if strings.HasPrefix(k, collection+"/") && d.UserID == userID && !d.Deleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocs) Upsert(_ context.Context, collection string, doc records.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.rows[docKey(collection, doc.ID)]; ok && old.UserID != doc.UserID {
		return common.ErrOwnerConflict
	}
	m.rows[docKey(collection, doc.ID)] = doc
	return nil
}

func (m *memDocs) Delete(_ context.Context, collection, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[docKey(collection, id)]
	if !ok {
		return common.ErrorNotFound
	}
	if d.UserID != userID {
		return common.ErrOwnerConflict
	}
	delete(m.rows, docKey(collection, id))
	return nil
}

func (m *memDocs) Counts(context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int64{}
	for k, d := range m.rows {
		if !d.Deleted {
			collection, _, _ := strings.Cut(k, "/")
			out[collection]++
		}
	}
	return out, nil
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
}

func (m *memSettings) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (m *memSettings) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

type fakeRepoManager struct {
	users    *memUsers
	tokens   *memTokens
	docs     *memDocs
	settings *memSettings
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:    &memUsers{byName: map[string]*models.User{}},
		tokens:   &memTokens{tokens: map[string]models.RefreshToken{}},
		docs:     &memDocs{rows: map[string]records.Document{}},
		settings: &memSettings{values: map[string]string{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.tokens }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository         { return m.docs }
func (m *fakeRepoManager) Settings(dbx.DBTX) settings.Repository           { return m.settings }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
