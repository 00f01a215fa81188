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

// EmployeeStore implements store.EmployeeStore using PostgreSQL.
type EmployeeStore struct {
	pool *pgxpool.Pool
}

// NewEmployeeStore creates a new PostgreSQL-backed employee store.
func NewEmployeeStore(pool *pgxpool.Pool) *EmployeeStore {
	return &EmployeeStore{
		pool: pool,
	}
}

// GetByUser retrieves the employee profile for a user within the scoped
// tenant.
func (s *EmployeeStore) GetByUser(ctx context.Context, scope models.TenantScope, userID uuid.UUID) (*models.EmployeeProfile, error) {
	query := `
		SELECT profile_id, org_id, user_id, first_name, last_name, email, created_at, updated_at
		FROM employee_profiles
		WHERE org_id = $1 AND user_id = $2
	`

	var profile models.EmployeeProfile
	err := s.pool.QueryRow(ctx, query, scope.OrgID(), userID).Scan(
		&profile.ProfileID,
		&profile.OrgID,
		&profile.UserID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get employee profile: %w", mapPostgresError(err))
	}

	return &profile, nil
}

// Put stores an employee profile, replacing any existing record for the
// user.
func (s *EmployeeStore) Put(ctx context.Context, profile *models.EmployeeProfile) error {
	query := `
		INSERT INTO employee_profiles (
			profile_id, org_id, user_id, first_name, last_name, email, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, now(), now()
		)
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			updated_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		profile.ProfileID,
		profile.OrgID,
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		profile.Email,
	)

	if err != nil {
		return fmt.Errorf("failed to put employee profile: %w", mapPostgresError(err))
	}

	return nil
}

// AccountStore implements store.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates a new PostgreSQL-backed account store.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		pool: pool,
	}
}

// HasCredentialPassword reports whether the auth user has a credential-based
// password configured. An unknown user has none.
func (s *AccountStore) HasCredentialPassword(ctx context.Context, authUserID uuid.UUID) (bool, error) {
	query := `
		SELECT has_credential_password
		FROM auth_accounts
		WHERE user_id = $1
	`

	var hasPassword bool
	err := s.pool.QueryRow(ctx, query, authUserID).Scan(&hasPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get account credential state: %w", mapPostgresError(err))
	}

	return hasPassword, nil
}

// SetPassword records whether the auth user has a password configured.
func (s *AccountStore) SetPassword(ctx context.Context, authUserID uuid.UUID, hasPassword bool) error {
	query := `
		INSERT INTO auth_accounts (user_id, has_credential_password, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			has_credential_password = EXCLUDED.has_credential_password,
			updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, authUserID, hasPassword); err != nil {
		return fmt.Errorf("failed to set account credential state: %w", mapPostgresError(err))
	}

	return nil
}
