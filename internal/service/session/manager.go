package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for ids the manager does not hold.
var ErrSessionNotFound = errors.New("session not found")

// Manager keeps independent sessions in memory, keyed by id.
type Manager struct {
	deps   Deps
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty manager. Background turns run under a context
// that is cancelled by Close.
func NewManager(deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:     deps,
		logger:   logger.Named("sessions"),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Create provisions a session on the selection screen.
func (m *Manager) Create() *Session {
	s := newSession(m.ctx, m.deps)

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session created", zap.String("session", s.ID), zap.Int("active", count))
	return s
}

// Get retrieves a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove drops a session and ends its event subscriptions. Pending turns
// are left to finish on their own.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.markClosed()
	s.OnBack()
	s.events.Close()
	m.logger.Info("session removed", zap.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close cancels background turns and waits for them to return.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
