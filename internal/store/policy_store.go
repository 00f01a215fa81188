package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// PolicyStore defines the interface for ABAC policy storage. Policies are
// seeded with defaults at tenant bootstrap and replaced wholesale by
// privileged actors.
type PolicyStore interface {
	// ListByOrganization returns all policies for an organization.
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.AbacPolicy, error)

	// Replace swaps the organization's full policy set. Every policy must
	// validate against the closed resource/action enumerations.
	Replace(ctx context.Context, orgID uuid.UUID, policies []*models.AbacPolicy) error
}
