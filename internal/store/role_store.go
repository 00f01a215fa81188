package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// Sentinel errors for role store operations
var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrRoleAlreadyExists  = errors.New("role already exists")
	ErrMembershipNotFound = errors.New("membership not found")
)

// RoleStore defines the interface for role template storage. A role ID only
// resolves within its owning organization; lookups across tenants return
// ErrRoleNotFound.
type RoleStore interface {
	// Get retrieves a role template belonging to the organization.
	// Returns ErrRoleNotFound if the role doesn't exist in this org.
	Get(ctx context.Context, orgID, roleID uuid.UUID) (*models.RoleTemplate, error)

	// ListByOrganization returns all role templates for an organization,
	// including the global templates visible to every tenant.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.RoleTemplate, error)

	// Create creates a new role template.
	// Returns ErrRoleAlreadyExists if the (org, key) pair is taken.
	Create(ctx context.Context, role *models.RoleTemplate) error

	// Update updates an existing role template.
	// Returns ErrRoleNotFound if the role doesn't exist in this org.
	Update(ctx context.Context, role *models.RoleTemplate) error
}

// MembershipStore resolves the acting role of a user within an organization.
type MembershipStore interface {
	// GetByUser returns the membership binding a user to the organization.
	// Returns ErrMembershipNotFound if the user has no role in this org.
	GetByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error)

	// Create binds a user to a role within an organization.
	Create(ctx context.Context, membership *models.Membership) error
}
