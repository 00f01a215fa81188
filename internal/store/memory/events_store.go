package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// SecurityEventStore implements store.SecurityEventStore using in-memory
// storage. Tests read events back via Events.
type SecurityEventStore struct {
	mu sync.RWMutex

	events []*models.SecurityEvent
}

// NewSecurityEventStore creates a new in-memory security event store.
func NewSecurityEventStore() *SecurityEventStore {
	return &SecurityEventStore{}
}

// LogEvent appends a security event.
func (s *SecurityEventStore) LogEvent(ctx context.Context, event *models.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *event
	if clone.EventID == uuid.Nil {
		clone.EventID = uuid.Must(uuid.NewV7())
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.events = append(s.events, &clone)

	return nil
}

// Events returns a snapshot of all recorded events.
func (s *SecurityEventStore) Events() []*models.SecurityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*models.SecurityEvent, 0, len(s.events))
	for _, event := range s.events {
		clone := *event
		events = append(events, &clone)
	}

	return events
}

// AuditStore implements store.AuditStore using in-memory storage.
type AuditStore struct {
	mu sync.RWMutex

	events []*models.AuditEvent
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// RecordEvent appends an audit event.
func (s *AuditStore) RecordEvent(ctx context.Context, event *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *event
	if clone.EventID == uuid.Nil {
		clone.EventID = uuid.Must(uuid.NewV7())
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.events = append(s.events, &clone)

	return nil
}

// Events returns a snapshot of all recorded events.
func (s *AuditStore) Events() []*models.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*models.AuditEvent, 0, len(s.events))
	for _, event := range s.events {
		clone := *event
		events = append(events, &clone)
	}

	return events
}
