// Package services contains the application services of the bizsync
// client: the read-through/write-through SyncService with its typed
// Entities facade, the outbox Flusher, authentication and snapshot
// export.
package services

import (
	"errors"
	"sync"

	"github.com/bizdash/bizsync/internal/common"
)

var ErrNoSession = errors.New("not logged in")

// Identity is the user the client acts for.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool { return i.Role == common.RoleAdmin }

// Session holds the current identity. It is shared by every service and is
// safe for concurrent use.
type Session struct {
	mu  sync.RWMutex
	id  Identity
	set bool
}

func NewSession() *Session { return &Session{} }

func (s *Session) Set(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.set = id.UserID != ""
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = Identity{}
	s.set = false
}

// Current returns the identity or ErrNoSession.
func (s *Session) Current() (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return Identity{}, ErrNoSession
	}
	return s.id, nil
}
