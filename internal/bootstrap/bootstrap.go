// Package bootstrap provisions a new tenant: the organization record, the
// default role template hierarchy, the owner's membership, and the default
// ABAC policy set.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// Config holds the stores bootstrap writes to.
type Config struct {
	Organizations store.OrganizationStore
	Roles         store.RoleStore
	Memberships   store.MembershipStore
	Policies      store.PolicyStore
}

// Validate checks that all required stores are present.
func (c *Config) Validate() error {
	if c.Organizations == nil {
		return fmt.Errorf("organization store is required")
	}
	if c.Roles == nil {
		return fmt.Errorf("role store is required")
	}
	if c.Memberships == nil {
		return fmt.Errorf("membership store is required")
	}
	if c.Policies == nil {
		return fmt.Errorf("policy store is required")
	}
	return nil
}

// TenantInput describes the tenant to provision.
type TenantInput struct {
	Name               string
	Slug               string
	DataResidency      models.DataResidency
	DataClassification models.DataClassification
	OwnerUserID        uuid.UUID
}

// Validate checks the input against the closed enumerations.
func (in *TenantInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("tenant name is required")
	}
	if in.Slug == "" {
		return fmt.Errorf("tenant slug is required")
	}
	if !in.DataResidency.Valid() {
		return fmt.Errorf("invalid data residency %q", in.DataResidency)
	}
	if !in.DataClassification.Valid() {
		return fmt.Errorf("invalid data classification %q", in.DataClassification)
	}
	if in.OwnerUserID == uuid.Nil {
		return fmt.Errorf("owner user id is required")
	}
	return nil
}

// Tenant is the result of a successful bootstrap.
type Tenant struct {
	Organization *models.Organization
	RolesByKey   map[string]*models.RoleTemplate
}

// Bootstrap provisions a tenant. It is not atomic across stores; rerunning
// after a partial failure with a fresh slug is the recovery path.
func Bootstrap(ctx context.Context, cfg Config, in TenantInput) (*Tenant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	org := &models.Organization{
		OrgID:              uuid.Must(uuid.NewV7()),
		Name:               in.Name,
		Slug:               in.Slug,
		DataResidency:      in.DataResidency,
		DataClassification: in.DataClassification,
	}

	if err := cfg.Organizations.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	roles, err := seedRoles(ctx, cfg.Roles, org.OrgID)
	if err != nil {
		return nil, err
	}

	owner := roles[models.RoleKeyOwner]
	err = cfg.Memberships.Create(ctx, &models.Membership{
		OrgID:   org.OrgID,
		UserID:  in.OwnerUserID,
		RoleID:  owner.RoleID,
		RoleKey: owner.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	policies, err := DefaultPolicies()
	if err != nil {
		return nil, err
	}
	if err := cfg.Policies.Replace(ctx, org.OrgID, policies); err != nil {
		return nil, fmt.Errorf("failed to seed default policies: %w", err)
	}

	log.Info().
		Str("org_id", org.OrgID.String()).
		Str("slug", org.Slug).
		Msg("Bootstrapped tenant")

	return &Tenant{Organization: org, RolesByKey: roles}, nil
}

// EnsurePlatformAdmin seeds the global platform_admin role if it does not
// exist yet. Safe to call on every startup.
func EnsurePlatformAdmin(ctx context.Context, roles store.RoleStore) error {
	existing, err := roles.ListByOrganization(ctx, uuid.Nil)
	if err != nil {
		return fmt.Errorf("failed to list global roles: %w", err)
	}
	for _, role := range existing {
		if role.Key == models.RoleKeyPlatformAdmin {
			return nil
		}
	}

	role := platformAdminTemplate()
	if err := roles.Create(ctx, role); err != nil {
		return fmt.Errorf("failed to seed platform admin role: %w", err)
	}

	log.Info().Str("role_id", role.RoleID.String()).Msg("Seeded platform admin role")
	return nil
}
