package bootstrap

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
	"github.com/wolfeidau/tenantguard/internal/store/memory"
)

func testConfig() Config {
	return Config{
		Organizations: memory.NewOrganizationStore(),
		Roles:         memory.NewRoleStore(),
		Memberships:   memory.NewMembershipStore(),
		Policies:      memory.NewPolicyStore(),
	}
}

func testInput() TenantInput {
	return TenantInput{
		Name:               "Acme",
		Slug:               "acme",
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationConfidential,
		OwnerUserID:        uuid.Must(uuid.NewV7()),
	}
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	in := testInput()

	tenant, err := Bootstrap(ctx, cfg, in)
	require.NoError(t, err)

	require.Equal(t, "acme", tenant.Organization.Slug)
	require.Equal(t, models.ResidencyEU, tenant.Organization.DataResidency)
	require.NotEqual(t, uuid.Nil, tenant.Organization.OrgID)

	// The default hierarchy: owner -> admin -> manager -> employee.
	require.Len(t, tenant.RolesByKey, 4)
	owner := tenant.RolesByKey[models.RoleKeyOwner]
	admin := tenant.RolesByKey[models.RoleKeyAdmin]
	manager := tenant.RolesByKey[models.RoleKeyManager]
	employee := tenant.RolesByKey[models.RoleKeyEmployee]

	require.Equal(t, []uuid.UUID{admin.RoleID}, owner.InheritsRoleIDs)
	require.Equal(t, []uuid.UUID{manager.RoleID}, admin.InheritsRoleIDs)
	require.Equal(t, []uuid.UUID{employee.RoleID}, manager.InheritsRoleIDs)
	require.Empty(t, employee.InheritsRoleIDs)

	// The owner's membership is bound to the owner role.
	membership, err := cfg.Memberships.GetByUser(ctx, tenant.Organization.OrgID, in.OwnerUserID)
	require.NoError(t, err)
	require.Equal(t, owner.RoleID, membership.RoleID)
	require.Equal(t, models.RoleKeyOwner, membership.RoleKey)

	// The default policy set is seeded.
	policies, err := cfg.Policies.ListByOrganization(ctx, tenant.Organization.OrgID)
	require.NoError(t, err)
	require.NotEmpty(t, policies)
}

func TestBootstrapDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	_, err := Bootstrap(ctx, cfg, testInput())
	require.NoError(t, err)

	in := testInput()
	_, err = Bootstrap(ctx, cfg, in)
	require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
}

func TestBootstrapValidation(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	tests := []struct {
		name   string
		mutate func(*TenantInput)
	}{
		{name: "missing name", mutate: func(in *TenantInput) { in.Name = "" }},
		{name: "missing slug", mutate: func(in *TenantInput) { in.Slug = "" }},
		{name: "invalid residency", mutate: func(in *TenantInput) { in.DataResidency = "mars" }},
		{name: "invalid classification", mutate: func(in *TenantInput) { in.DataClassification = "secret" }},
		{name: "missing owner", mutate: func(in *TenantInput) { in.OwnerUserID = uuid.Nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput()
			tt.mutate(&in)
			_, err := Bootstrap(ctx, cfg, in)
			require.Error(t, err)
		})
	}
}

func TestDefaultPolicies(t *testing.T) {
	policies, err := DefaultPolicies()
	require.NoError(t, err)
	require.NotEmpty(t, policies)

	byName := map[string]*models.AbacPolicy{}
	for _, policy := range policies {
		require.NoError(t, policy.Validate())
		require.True(t, policy.Enabled)
		byName[policy.Name] = policy
	}

	restricted := byName["deny-restricted-document-export"]
	require.NotNil(t, restricted)
	require.Equal(t, models.EffectDeny, restricted.Effect)
	require.Equal(t, models.ResourceDocuments, restricted.Resource)
	require.Equal(t, "restricted", restricted.Match["data_classification"])
	require.True(t, restricted.Matches(models.ResourceDocuments, models.ActionExport, map[string]string{
		"data_classification": "restricted",
	}))
}

func TestEnsurePlatformAdmin(t *testing.T) {
	ctx := context.Background()
	roles := memory.NewRoleStore()

	require.NoError(t, EnsurePlatformAdmin(ctx, roles))
	// Idempotent on repeat startups.
	require.NoError(t, EnsurePlatformAdmin(ctx, roles))

	globals, err := roles.ListByOrganization(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, globals, 1)

	admin := globals[0]
	require.Equal(t, models.RoleKeyPlatformAdmin, admin.Key)
	require.Equal(t, models.RoleScopeGlobal, admin.Scope)
	require.True(t, admin.Permissions.Has(models.ResourceOrgSettings, models.ActionManage))
	require.True(t, admin.Permissions.Has(models.ResourceAuditLog, models.ActionRead))
}
