package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a tenant-scoped session record.
// Records are never deleted, only transitioned.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusExpired SessionStatus = "expired"
	SessionStatusRevoked SessionStatus = "revoked"
)

// UserSession is the tenant-scoped projection of an external identity-provider
// session. It is created on first observation of a session token for a tenant
// and updated on every subsequent validated request.
type UserSession struct {
	SessionID    uuid.UUID // UUIDv7
	OrgID        uuid.UUID
	UserID       uuid.UUID
	Token        string
	Status       SessionStatus
	IPAddress    string
	UserAgent    string
	StartedAt    time.Time
	ExpiresAt    time.Time
	LastAccessAt time.Time
	RevokedAt    *time.Time

	// Snapshot of the tenant context observed when the session was last seen.
	Metadata SessionMetadata
}

// SessionMetadata captures the active-org/residency/classification snapshot
// stored alongside a session record.
type SessionMetadata struct {
	ActiveOrgID        uuid.UUID          `json:"active_org_id"`
	DataResidency      DataResidency      `json:"data_residency"`
	DataClassification DataClassification `json:"data_classification"`
}
