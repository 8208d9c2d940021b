package grpc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/server/auth"
	"github.com/bizdash/bizsync/internal/server/models"
	"github.com/bizdash/bizsync/internal/server/services"
)

const testSecret = "secret"

type fakeUsers struct {
	accessTTL time.Duration
	refreshes atomic.Int32
}

func (f *fakeUsers) Register(_ context.Context, username, _ string) (*models.User, error) {
	if username == "taken" {
		return nil, common.ErrUserExists
	}
	return &models.User{ID: "u1", UserName: username, Role: common.RoleUser}, nil
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (*services.Session, error) {
	if password != "pw" {
		return nil, common.ErrorUnauthorized
	}
	u := &models.User{ID: "u1", UserName: username, Role: common.RoleUser}
	tok, err := auth.GenerateToken(auth.Identity{UserID: u.ID, Role: u.Role}, []byte(testSecret), f.accessTTL)
	if err != nil {
		return nil, err
	}
	return &services.Session{User: u, Tokens: &services.TokenPair{AccessToken: tok, RefreshToken: "r1"}}, nil
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	if token != "r1" {
		return nil, common.ErrInvalidToken
	}
	f.refreshes.Add(1)
	tok, err := auth.GenerateToken(auth.Identity{UserID: "u1", Role: common.RoleUser}, []byte(testSecret), time.Hour)
	if err != nil {
		return nil, err
	}
	return &services.TokenPair{AccessToken: tok, RefreshToken: "r2"}, nil
}

type fakeDocs struct {
	mu          sync.Mutex
	maintenance bool
	rows        map[string]records.Document
	lastCaller  auth.Identity
}

func (f *fakeDocs) Query(_ context.Context, caller auth.Identity, table string) ([]records.Document, error) {
	if _, err := records.Lookup(table); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCaller = caller
	out := []records.Document{}
	for _, d := range f.rows {
		if d.UserID == caller.UserID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDocs) Upsert(_ context.Context, caller auth.Identity, table string, doc records.Document) error {
	if _, err := records.Lookup(table); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.maintenance {
		return common.ErrMaintenance
	}
	if old, ok := f.rows[doc.ID]; ok && old.UserID != caller.UserID {
		return common.ErrOwnerConflict
	}
	doc.UserID = caller.UserID
	f.rows[doc.ID] = doc
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, caller auth.Identity, table, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeSystem struct{ maintenance bool }

func (f fakeSystem) Status(context.Context, bool) (*services.SystemStatus, error) {
	return &services.SystemStatus{Maintenance: f.maintenance, ServerTime: time.Now()}, nil
}

type fakeSnapshots struct{ err error }

func (f fakeSnapshots) PresignPut(_ context.Context, userID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	return "snapshots/" + userID + "/x.json", "http://s3.local/put", nil
}
