package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

type sessionKey struct {
	orgID uuid.UUID
	token string
}

// SessionStore implements store.SessionStore using in-memory storage. This
// implementation is for testing and development only - data is lost on
// restart.
type SessionStore struct {
	mu sync.RWMutex

	sessions map[sessionKey]*models.UserSession
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[sessionKey]*models.UserSession),
	}
}

// Create records the first observation of a session token for a tenant.
func (s *SessionStore) Create(ctx context.Context, scope models.TenantScope, session *models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *session
	clone.OrgID = scope.OrgID()
	s.sessions[sessionKey{orgID: scope.OrgID(), token: session.Token}] = &clone

	return nil
}

// GetByToken retrieves the tenant's record for a session token.
func (s *SessionStore) GetByToken(ctx context.Context, scope models.TenantScope, token string) (*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionKey{orgID: scope.OrgID(), token: token}]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	clone := *session
	return &clone, nil
}

// Update overwrites the mutable fields of a session record.
func (s *SessionStore) Update(ctx context.Context, scope models.TenantScope, session *models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{orgID: scope.OrgID(), token: session.Token}
	existing, exists := s.sessions[key]
	if !exists {
		return store.ErrSessionNotFound
	}

	clone := *session
	clone.OrgID = scope.OrgID()
	clone.SessionID = existing.SessionID
	clone.StartedAt = existing.StartedAt

	s.sessions[key] = &clone

	return nil
}

// Invalidate transitions the record for a token to a terminal status.
func (s *SessionStore) Invalidate(ctx context.Context, scope models.TenantScope, token string, status models.SessionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[sessionKey{orgID: scope.OrgID(), token: token}]
	if !exists {
		return store.ErrSessionNotFound
	}

	session.Status = status
	session.RevokedAt = &at

	return nil
}

// ExpireBefore transitions all active records whose expiry passed before the
// cutoff to expired.
func (s *SessionStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, session := range s.sessions {
		if session.Status == models.SessionStatusActive && session.ExpiresAt.Before(cutoff) {
			session.Status = models.SessionStatusExpired
			at := cutoff
			session.RevokedAt = &at
			count++
		}
	}

	return count, nil
}
