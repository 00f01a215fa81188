package models

import (
	"time"

	"github.com/google/uuid"
)

// EventSeverity classifies security events for triage.
type EventSeverity string

const (
	SeverityLow      EventSeverity = "low"
	SeverityMedium   EventSeverity = "medium"
	SeverityHigh     EventSeverity = "high"
	SeverityCritical EventSeverity = "critical"
)

// SecurityEvent records an authentication or authorization-relevant occurrence
// (denial, revocation, policy violation) for a tenant.
type SecurityEvent struct {
	EventID     uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	UserID      uuid.UUID
	EventType   string
	Severity    EventSeverity
	Description string
	IPAddress   string
	UserAgent   string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// AuditEvent records a successful, attributable operation. Correlation IDs
// link every event produced by one logical request.
type AuditEvent struct {
	EventID       uuid.UUID // UUIDv7
	OrgID         uuid.UUID
	UserID        uuid.UUID
	Action        string
	Resource      string
	CorrelationID string
	AuditSource   string
	AuditBatchID  string
	Metadata      map[string]string
	CreatedAt     time.Time
}
