package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
)

func TestPolicyStoreReplace(t *testing.T) {
	ctx := context.Background()
	s := NewPolicyStore()
	orgID := uuid.Must(uuid.NewV7())

	policies, err := s.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Empty(t, policies)

	require.NoError(t, s.Replace(ctx, orgID, []*models.AbacPolicy{
		{
			Name:     "deny-export",
			Effect:   models.EffectDeny,
			Resource: models.ResourceDocuments,
			Actions:  []models.Action{models.ActionExport},
			Enabled:  true,
		},
		{
			Name:     "deny-audit-mutation",
			Effect:   models.EffectDeny,
			Resource: models.ResourceAuditLog,
			Actions:  []models.Action{models.ActionDelete},
			Enabled:  true,
		},
	}))

	policies, err = s.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, policies, 2)
	for _, policy := range policies {
		require.NotEqual(t, uuid.Nil, policy.PolicyID, "missing IDs are assigned on replace")
		require.Equal(t, orgID, policy.OrgID)
		require.False(t, policy.CreatedAt.IsZero())
	}

	// Replacement is the full set, not a merge.
	require.NoError(t, s.Replace(ctx, orgID, []*models.AbacPolicy{
		{Name: "only-one", Effect: models.EffectAllow, Enabled: true},
	}))

	policies, err = s.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, "only-one", policies[0].Name)
}

func TestPolicyStoreReplaceValidates(t *testing.T) {
	ctx := context.Background()
	s := NewPolicyStore()
	orgID := uuid.Must(uuid.NewV7())

	require.NoError(t, s.Replace(ctx, orgID, []*models.AbacPolicy{
		{Name: "keep-me", Effect: models.EffectDeny, Enabled: true},
	}))

	err := s.Replace(ctx, orgID, []*models.AbacPolicy{
		{Name: "bad", Effect: models.PolicyEffect("maybe")},
	})
	require.ErrorIs(t, err, models.ErrUnknownEffect)

	// A failed replace leaves the previous set intact.
	policies, err := s.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	require.Equal(t, "keep-me", policies[0].Name)
}
