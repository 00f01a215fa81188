package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// SettingsStore implements store.SettingsStore using PostgreSQL.
type SettingsStore struct {
	pool *pgxpool.Pool
}

// NewSettingsStore creates a new PostgreSQL-backed settings store.
func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{
		pool: pool,
	}
}

// Get retrieves the organization's security settings.
func (s *SettingsStore) Get(ctx context.Context, orgID uuid.UUID) (*models.OrgSecuritySettings, error) {
	query := `
		SELECT org_id, session_timeout_minutes, mfa_required, ip_allowlist_enabled, ip_allowlist
		FROM org_security_settings
		WHERE org_id = $1
	`

	var settings models.OrgSecuritySettings
	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&settings.OrgID,
		&settings.SessionTimeoutMinutes,
		&settings.MFARequired,
		&settings.IPAllowlistEnabled,
		&settings.IPAllowlist,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get security settings: %w", mapPostgresError(err))
	}

	return &settings, nil
}

// Put stores the organization's security settings.
func (s *SettingsStore) Put(ctx context.Context, settings *models.OrgSecuritySettings) error {
	query := `
		INSERT INTO org_security_settings (
			org_id, session_timeout_minutes, mfa_required, ip_allowlist_enabled, ip_allowlist, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, now()
		)
		ON CONFLICT (org_id) DO UPDATE SET
			session_timeout_minutes = EXCLUDED.session_timeout_minutes,
			mfa_required = EXCLUDED.mfa_required,
			ip_allowlist_enabled = EXCLUDED.ip_allowlist_enabled,
			ip_allowlist = EXCLUDED.ip_allowlist,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		settings.OrgID,
		settings.SessionTimeoutMinutes,
		settings.MFARequired,
		settings.IPAllowlistEnabled,
		settings.IPAllowlist,
	)

	if err != nil {
		return fmt.Errorf("failed to put security settings: %w", mapPostgresError(err))
	}

	return nil
}
