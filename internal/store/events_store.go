package store

import (
	"context"

	"github.com/wolfeidau/tenantguard/internal/models"
)

// SecurityEventStore is the sink for security events. Writes on the failure
// path are best-effort; callers must discard errors rather than let them mask
// a primary authorization error.
type SecurityEventStore interface {
	LogEvent(ctx context.Context, event *models.SecurityEvent) error
}

// AuditStore records successful, attributable operations.
type AuditStore interface {
	RecordEvent(ctx context.Context, event *models.AuditEvent) error
}
