// Package session tracks who is logged in. A Session belongs to exactly one caller
// (the REPL, or one HTTP client identified by its token); identities are never shared.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/vaccine-scheduler-go/scheduler"
)

// Session holds at most one Identity.
type Session struct {
	mu       sync.Mutex
	identity scheduler.Identity
}

// New creates an anonymous Session.
func New() *Session {
	return &Session{}
}

// Current returns the logged-in identity, or the zero Identity.
func (s *Session) Current() scheduler.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.identity
}

// Login sets the identity. It fails with ErrAlreadyAuthenticated if one is present.
func (s *Session) Login(identity scheduler.Identity) error {
	if identity.IsZero() {
		return fmt.Errorf("%w: identity must not be empty", scheduler.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.identity.IsZero() {
		return scheduler.ErrAlreadyAuthenticated
	}

	s.identity = identity

	return nil
}

// Logout clears the identity. It fails with ErrNotAuthenticated if there is none.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity.IsZero() {
		return scheduler.ErrNotAuthenticated
	}

	s.identity = scheduler.Identity{}

	return nil
}

// Token identifies a Session in a Manager.
type Token = uuid.UUID

// Manager keeps one Session per token for multi-client mode.
type Manager struct {
	mu       sync.RWMutex
	sessions map[Token]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[Token]*Session)}
}

// Create opens a new anonymous Session under a random token.
func (m *Manager) Create() (Token, *Session) {
	token := uuid.New()
	s := New()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[token] = s

	return token, s
}

// Get returns the Session for token, ErrNotFound if there is none.
func (m *Manager) Get(token Token) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%w: session", scheduler.ErrNotFound)
	}

	return s, nil
}

// Delete drops the Session, ErrNotFound if there is none.
func (m *Manager) Delete(token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[token]; !ok {
		return fmt.Errorf("%w: session", scheduler.ErrNotFound)
	}

	delete(m.sessions, token)

	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
