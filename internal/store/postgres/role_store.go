package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// RoleStore implements store.RoleStore using PostgreSQL. Global role
// templates are stored with a NULL org_id and visible to every tenant.
type RoleStore struct {
	pool *pgxpool.Pool
}

// NewRoleStore creates a new PostgreSQL-backed role store.
func NewRoleStore(pool *pgxpool.Pool) *RoleStore {
	return &RoleStore{
		pool: pool,
	}
}

// Get retrieves a role template visible to the organization.
func (s *RoleStore) Get(ctx context.Context, orgID, roleID uuid.UUID) (*models.RoleTemplate, error) {
	query := `
		SELECT role_id, org_id, key, name, scope, permissions, inherits_role_ids, created_at, updated_at
		FROM role_templates
		WHERE role_id = $1 AND (org_id = $2 OR org_id IS NULL)
	`

	role, err := scanRole(s.pool.QueryRow(ctx, query, roleID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", mapPostgresError(err))
	}

	return role, nil
}

// ListByOrganization returns the organization's role templates plus the
// global templates.
func (s *RoleStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.RoleTemplate, error) {
	query := `
		SELECT role_id, org_id, key, name, scope, permissions, inherits_role_ids, created_at, updated_at
		FROM role_templates
		WHERE org_id = $1 OR org_id IS NULL
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var roles []*models.RoleTemplate
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// Create creates a new role template.
func (s *RoleStore) Create(ctx context.Context, role *models.RoleTemplate) error {
	if err := role.Validate(); err != nil {
		return err
	}

	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	query := `
		INSERT INTO role_templates (
			role_id, org_id, key, name, scope, permissions, inherits_role_ids, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, now(), now()
		)
	`

	_, err = s.pool.Exec(ctx, query,
		role.RoleID,
		nullableUUID(role.OrgID),
		role.Key,
		role.Name,
		role.Scope,
		permissions,
		role.InheritsRoleIDs,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrRoleAlreadyExists
		}
		return fmt.Errorf("failed to create role: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("role_id", role.RoleID.String()).
		Str("key", role.Key).
		Msg("Created role template")

	return nil
}

// Update updates an existing role template.
func (s *RoleStore) Update(ctx context.Context, role *models.RoleTemplate) error {
	if err := role.Validate(); err != nil {
		return err
	}

	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}

	role.UpdatedAt = time.Now()

	query := `
		UPDATE role_templates SET
			name = $3,
			permissions = $4,
			inherits_role_ids = $5,
			updated_at = $6
		WHERE role_id = $1 AND (org_id = $2 OR org_id IS NULL)
	`

	result, err := s.pool.Exec(ctx, query,
		role.RoleID,
		nullableUUID(role.OrgID),
		role.Name,
		permissions,
		role.InheritsRoleIDs,
		role.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update role: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrRoleNotFound
	}

	log.Debug().
		Str("role_id", role.RoleID.String()).
		Msg("Updated role template")

	return nil
}

func scanRole(row pgx.Row) (*models.RoleTemplate, error) {
	var role models.RoleTemplate
	var orgID *uuid.UUID
	var permissions []byte

	err := row.Scan(
		&role.RoleID,
		&orgID,
		&role.Key,
		&role.Name,
		&role.Scope,
		&permissions,
		&role.InheritsRoleIDs,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if orgID != nil {
		role.OrgID = *orgID
	}

	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	return &role, nil
}

// nullableUUID maps the zero UUID to NULL.
func nullableUUID(orgID uuid.UUID) any {
	if orgID == uuid.Nil {
		return nil
	}
	return orgID
}

// MembershipStore implements store.MembershipStore using PostgreSQL.
type MembershipStore struct {
	pool *pgxpool.Pool
}

// NewMembershipStore creates a new PostgreSQL-backed membership store.
func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{
		pool: pool,
	}
}

// GetByUser returns the membership binding a user to the organization.
func (s *MembershipStore) GetByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT org_id, user_id, role_id, role_key, created_at
		FROM memberships
		WHERE org_id = $1 AND user_id = $2
	`

	var membership models.Membership
	err := s.pool.QueryRow(ctx, query, orgID, userID).Scan(
		&membership.OrgID,
		&membership.UserID,
		&membership.RoleID,
		&membership.RoleKey,
		&membership.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", mapPostgresError(err))
	}

	return &membership, nil
}

// Create binds a user to a role within an organization. An existing binding
// for the user is replaced.
func (s *MembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (org_id, user_id, role_id, role_key, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org_id, user_id) DO UPDATE SET
			role_id = EXCLUDED.role_id,
			role_key = EXCLUDED.role_key
	`

	_, err := s.pool.Exec(ctx, query,
		membership.OrgID,
		membership.UserID,
		membership.RoleID,
		membership.RoleKey,
	)

	if err != nil {
		return fmt.Errorf("failed to create membership: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", membership.OrgID.String()).
		Str("user_id", membership.UserID.String()).
		Str("role_key", membership.RoleKey).
		Msg("Created membership")

	return nil
}
