package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// SecurityEventStore implements store.SecurityEventStore using PostgreSQL.
type SecurityEventStore struct {
	pool *pgxpool.Pool
}

// NewSecurityEventStore creates a new PostgreSQL-backed security event store.
func NewSecurityEventStore(pool *pgxpool.Pool) *SecurityEventStore {
	return &SecurityEventStore{
		pool: pool,
	}
}

// LogEvent inserts a security event.
func (s *SecurityEventStore) LogEvent(ctx context.Context, event *models.SecurityEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode event metadata: %w", err)
	}

	query := `
		INSERT INTO security_events (
			event_id, org_id, user_id, event_type, severity,
			description, ip_address, user_agent, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err = s.pool.Exec(ctx, query,
		event.EventID,
		event.OrgID,
		nullableUUID(event.UserID),
		event.EventType,
		event.Severity,
		event.Description,
		event.IPAddress,
		event.UserAgent,
		metadata,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to log security event: %w", mapPostgresError(err))
	}

	return nil
}

// AuditStore implements store.AuditStore using PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates a new PostgreSQL-backed audit store.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{
		pool: pool,
	}
}

// RecordEvent inserts an audit event.
func (s *AuditStore) RecordEvent(ctx context.Context, event *models.AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode event metadata: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			event_id, org_id, user_id, action, resource,
			correlation_id, audit_source, audit_batch_id, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err = s.pool.Exec(ctx, query,
		event.EventID,
		event.OrgID,
		nullableUUID(event.UserID),
		event.Action,
		event.Resource,
		event.CorrelationID,
		event.AuditSource,
		event.AuditBatchID,
		metadata,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", mapPostgresError(err))
	}

	return nil
}
