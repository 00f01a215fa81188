// Package securityevent delivers security events to the configured sink with
// bounded retries. Delivery is always best-effort: a failure here is logged
// and discarded so it can never mask the authorization error that triggered
// the event.
package securityevent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// Well-known event types emitted by the authorization core.
const (
	EventSessionRevoked    = "session_revoked"
	EventSessionExpired    = "session_expired"
	EventAccessDenied      = "access_denied"
	EventPolicyViolation   = "policy_violation"
	EventSetupGateBlocked  = "setup_gate_blocked"
)

// Recorder writes security events through a store.SecurityEventStore with
// exponential-backoff retries bounded by maxElapsed.
type Recorder struct {
	sink       store.SecurityEventStore
	maxElapsed time.Duration
}

// NewRecorder creates a recorder. A zero maxElapsed defaults to 5 seconds.
func NewRecorder(sink store.SecurityEventStore, maxElapsed time.Duration) *Recorder {
	if maxElapsed <= 0 {
		maxElapsed = 5 * time.Second
	}
	return &Recorder{sink: sink, maxElapsed: maxElapsed}
}

// Record fills in the event ID and timestamp and delivers the event. Errors
// are logged, never returned.
func (r *Recorder) Record(ctx context.Context, event *models.SecurityEvent) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.Must(uuid.NewV7())
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, r.sink.LogEvent(ctx, event)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(r.maxElapsed),
	)
	if err != nil {
		log.Warn().
			Err(err).
			Str("event_type", event.EventType).
			Str("org_id", event.OrgID.String()).
			Msg("Dropped security event after retries")
	}
}

// LogSink writes events to the process log only. Used in development when no
// event store is configured.
type LogSink struct{}

func (LogSink) LogEvent(ctx context.Context, event *models.SecurityEvent) error {
	log.Info().
		Str("event_type", event.EventType).
		Str("severity", string(event.Severity)).
		Str("org_id", event.OrgID.String()).
		Str("user_id", event.UserID.String()).
		Str("description", event.Description).
		Msg("security event")
	return nil
}
