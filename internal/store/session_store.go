package store

import (
	"context"
	"errors"
	"time"

	"github.com/wolfeidau/tenantguard/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore defines the interface for tenant-scoped session records. Every
// method takes a TenantScope so the tenant boundary is carried explicitly into
// the store; an implementation must never return a record belonging to a
// different organization than the scope.
//
// Records are never deleted, only status-transitioned.
type SessionStore interface {
	// Create records the first observation of a session token for a tenant.
	Create(ctx context.Context, scope models.TenantScope, session *models.UserSession) error

	// GetByToken retrieves the tenant's record for a session token.
	// Returns ErrSessionNotFound if the token has not been observed for
	// this tenant.
	GetByToken(ctx context.Context, scope models.TenantScope, token string) (*models.UserSession, error)

	// Update overwrites the mutable observability fields of a session
	// record (status, IP, UA, last-access, metadata). Last-writer-wins.
	Update(ctx context.Context, scope models.TenantScope, session *models.UserSession) error

	// Invalidate transitions the record for a token to the given terminal
	// status, stamping RevokedAt.
	// Returns ErrSessionNotFound if the token has not been observed.
	Invalidate(ctx context.Context, scope models.TenantScope, token string, status models.SessionStatus, at time.Time) error

	// ExpireBefore transitions all active records whose external expiry
	// passed before the cutoff to expired. Maintenance sweep; not tenant
	// scoped.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int, error)
}
