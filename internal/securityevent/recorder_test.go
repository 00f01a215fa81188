package securityevent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// flakySink fails the first N deliveries, then accepts.
type flakySink struct {
	failures int
	events   []*models.SecurityEvent
}

func (s *flakySink) LogEvent(ctx context.Context, event *models.SecurityEvent) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func TestRecorderFillsIdentity(t *testing.T) {
	sink := &flakySink{}
	recorder := NewRecorder(sink, time.Second)

	event := &models.SecurityEvent{
		OrgID:     uuid.Must(uuid.NewV7()),
		EventType: EventAccessDenied,
		Severity:  models.SeverityMedium,
	}
	recorder.Record(context.Background(), event)

	require.Len(t, sink.events, 1)
	require.NotEqual(t, uuid.Nil, event.EventID)
	require.False(t, event.CreatedAt.IsZero())
}

func TestRecorderRetriesTransientFailure(t *testing.T) {
	sink := &flakySink{failures: 1}
	recorder := NewRecorder(sink, 5*time.Second)

	recorder.Record(context.Background(), &models.SecurityEvent{
		OrgID:     uuid.Must(uuid.NewV7()),
		EventType: EventSessionRevoked,
	})

	require.Len(t, sink.events, 1, "a transient sink failure is retried")
}

func TestRecorderDropsAfterExhaustion(t *testing.T) {
	sink := &flakySink{failures: 1000}
	recorder := NewRecorder(sink, 10*time.Millisecond)

	// Must return, not block or panic, once retries are exhausted.
	recorder.Record(context.Background(), &models.SecurityEvent{
		OrgID:     uuid.Must(uuid.NewV7()),
		EventType: EventAccessDenied,
	})

	require.Empty(t, sink.events)
}
