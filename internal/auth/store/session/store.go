package session

import (
	"context"

	"floodrelief/internal/auth/models"
	id "floodrelief/pkg/domain"
)

// Store persists sessions. Find returns ErrNotFound for unknown ids and
// Delete never fails on a missing session.
type Store interface {
	Save(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByAccount(ctx context.Context, accountID id.AccountID) error
}

var (
	_ Store = (*InMemory)(nil)
	_ Store = (*RedisStore)(nil)
)
