package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/client"
)

type BootstrapCmd struct {
	ConnectionFlags `embed:""`

	Name           string `help:"Organization name" required:""`
	Slug           string `help:"Organization slug" required:""`
	Residency      string `help:"Data residency (eu, us, uk, apac)" required:""`
	Classification string `help:"Data classification (public, internal, confidential, restricted)" required:""`
	Owner          string `help:"Owner user ID (UUID)" required:""`
}

func (c *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	ownerID, err := uuid.Parse(c.Owner)
	if err != nil {
		return fmt.Errorf("invalid owner user id: %w", err)
	}

	result, err := c.client(globals).BootstrapTenant(ctx, client.BootstrapTenantInput{
		Name:               c.Name,
		Slug:               c.Slug,
		DataResidency:      c.Residency,
		DataClassification: c.Classification,
		OwnerUserID:        ownerID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created tenant %s (%s)\n", result.Slug, result.OrgID)
	for key, roleID := range result.Roles {
		fmt.Printf("  role %-12s %s\n", key, roleID)
	}

	return nil
}
