// Package session keeps identity sessions between requests.
package session

import (
	"context"
	"sync"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

// ErrNotFound is returned for unknown or deleted sessions.
var ErrNotFound = sentinel.ErrNotFound

// InMemory keeps sessions for the lifetime of the process.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]models.Session)}
}

func (s *InMemory) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

func (s *InMemory) Find(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

// Delete is idempotent.
func (s *InMemory) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// DeleteByAccount drops every session of an account, e.g. after its admin
// flag changes so stale privileges do not linger.
func (s *InMemory) DeleteByAccount(_ context.Context, accountID id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid, sess := range s.sessions {
		if sess.AccountID == accountID {
			delete(s.sessions, sid)
		}
	}
	return nil
}
