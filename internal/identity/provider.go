package identity

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Errors returned by session providers.
var (
	ErrNoSession      = errors.New("no active session")
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
)

// Session is the external identity provider's view of an authenticated
// session. The authorization core treats it as read-only input; the
// tenant-scoped projection lives in the session store.
type Session struct {
	Token       string
	SessionID   uuid.UUID
	UserID      uuid.UUID
	ActiveOrgID uuid.UUID
	MFAVerified bool
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ExpiresAt   time.Time
}

// LastActive returns the session update time, falling back to creation time.
func (s *Session) LastActive() time.Time {
	if !s.UpdatedAt.IsZero() {
		return s.UpdatedAt
	}
	return s.CreatedAt
}

// Provider is the boundary to the external identity provider. Token issuance
// is delegated entirely to it; this core only consumes sessions and requests
// revocation.
type Provider interface {
	// GetSession extracts and validates the active session from request
	// headers. Returns ErrNoSession when no credential is present, and
	// ErrInvalidSession/ErrExpiredSession for unusable credentials.
	GetSession(ctx context.Context, headers http.Header) (*Session, error)

	// RevokeSession invalidates the session token at the provider.
	RevokeSession(ctx context.Context, token string) error

	// ExpireSessionByToken marks the token expired at the provider. Used
	// by the best-effort revocation path on idle-timeout violations.
	ExpireSessionByToken(ctx context.Context, token string) error

	// SetActiveOrganization re-issues the session bound to a different
	// active organization, revoking the old token. Returns the new token.
	SetActiveOrganization(ctx context.Context, token string, orgID uuid.UUID) (string, error)
}
