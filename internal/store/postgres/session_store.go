package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// SessionStore implements store.SessionStore using PostgreSQL. Every
// tenant-scoped query filters by the scope's org_id; a record belonging to a
// different tenant is indistinguishable from a missing one.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new PostgreSQL-backed session store.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{
		pool: pool,
	}
}

// Create records the first observation of a session token for a tenant.
func (s *SessionStore) Create(ctx context.Context, scope models.TenantScope, session *models.UserSession) error {
	metadata, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}

	query := `
		INSERT INTO user_sessions (
			session_id, org_id, user_id, token, status,
			ip_address, user_agent,
			started_at, expires_at, last_access_at, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6::inet, $7, $8, $9, $10, $11
		)
	`

	// Convert empty IP address to nil for proper INET handling
	var ipAddress any
	if session.IPAddress != "" {
		ipAddress = session.IPAddress
	}

	_, err = s.pool.Exec(ctx, query,
		session.SessionID,
		scope.OrgID(),
		session.UserID,
		session.Token,
		session.Status,
		ipAddress,
		session.UserAgent,
		session.StartedAt,
		session.ExpiresAt,
		session.LastAccessAt,
		metadata,
	)

	if err != nil {
		return fmt.Errorf("failed to create session record: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("session_id", session.SessionID.String()).
		Str("org_id", scope.OrgID().String()).
		Msg("Created session record")

	return nil
}

// GetByToken retrieves the tenant's record for a session token.
func (s *SessionStore) GetByToken(ctx context.Context, scope models.TenantScope, token string) (*models.UserSession, error) {
	query := `
		SELECT
			session_id, org_id, user_id, token, status,
			host(ip_address), user_agent,
			started_at, expires_at, last_access_at, revoked_at, metadata
		FROM user_sessions
		WHERE org_id = $1 AND token = $2
	`

	var session models.UserSession
	var ipAddress *string
	var metadata []byte

	err := s.pool.QueryRow(ctx, query, scope.OrgID(), token).Scan(
		&session.SessionID,
		&session.OrgID,
		&session.UserID,
		&session.Token,
		&session.Status,
		&ipAddress,
		&session.UserAgent,
		&session.StartedAt,
		&session.ExpiresAt,
		&session.LastAccessAt,
		&session.RevokedAt,
		&metadata,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session record: %w", mapPostgresError(err))
	}

	if ipAddress != nil {
		session.IPAddress = *ipAddress
	}

	if err := json.Unmarshal(metadata, &session.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode session metadata: %w", err)
	}

	return &session, nil
}

// Update overwrites the mutable observability fields of a session record.
func (s *SessionStore) Update(ctx context.Context, scope models.TenantScope, session *models.UserSession) error {
	metadata, err := json.Marshal(session.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}

	query := `
		UPDATE user_sessions SET
			status = $3,
			ip_address = $4::inet,
			user_agent = $5,
			expires_at = $6,
			last_access_at = $7,
			metadata = $8
		WHERE org_id = $1 AND token = $2
	`

	var ipAddress any
	if session.IPAddress != "" {
		ipAddress = session.IPAddress
	}

	result, err := s.pool.Exec(ctx, query,
		scope.OrgID(),
		session.Token,
		session.Status,
		ipAddress,
		session.UserAgent,
		session.ExpiresAt,
		session.LastAccessAt,
		metadata,
	)

	if err != nil {
		return fmt.Errorf("failed to update session record: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}

	return nil
}

// Invalidate transitions the record for a token to a terminal status.
func (s *SessionStore) Invalidate(ctx context.Context, scope models.TenantScope, token string, status models.SessionStatus, at time.Time) error {
	query := `
		UPDATE user_sessions SET
			status = $3,
			revoked_at = $4
		WHERE org_id = $1 AND token = $2
	`

	result, err := s.pool.Exec(ctx, query, scope.OrgID(), token, status, at)
	if err != nil {
		return fmt.Errorf("failed to invalidate session record: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrSessionNotFound
	}

	log.Debug().
		Str("org_id", scope.OrgID().String()).
		Str("status", string(status)).
		Msg("Invalidated session record")

	return nil
}

// ExpireBefore transitions all active records whose expiry passed before the
// cutoff to expired (cleanup sweep).
func (s *SessionStore) ExpireBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE user_sessions SET
			status = 'expired',
			revoked_at = $1
		WHERE status = 'active' AND expires_at < $1
	`

	result, err := s.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire session records: %w", mapPostgresError(err))
	}

	count := int(result.RowsAffected())

	if count > 0 {
		log.Info().
			Int("count", count).
			Msg("Expired stale session records")
	}

	return count, nil
}
