package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
)

func testAuthorizationContext(t *testing.T) *AuthorizationContext {
	t.Helper()

	org := &models.Organization{
		OrgID:              uuid.Must(uuid.NewV7()),
		Name:               "Acme",
		Slug:               "acme",
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationConfidential,
	}

	return &AuthorizationContext{
		OrgID:  org.OrgID,
		UserID: uuid.Must(uuid.NewV7()),
		Permissions: models.PermissionMap{
			models.ResourceHRLeave: {models.ActionRead, models.ActionApprove},
		},
		DataResidency:      org.DataResidency,
		DataClassification: org.DataClassification,
		TenantScope:        models.NewTenantScope(org, "api", ""),
	}
}

func TestEnsureOrgAccess(t *testing.T) {
	actx := testAuthorizationContext(t)

	require.NoError(t, EnsureOrgAccess(actx, PermissionGuard{
		Resource: models.ResourceHRLeave,
		Actions:  []models.Action{models.ActionRead, models.ActionApprove},
	}))

	err := EnsureOrgAccess(actx, PermissionGuard{
		Resource: models.ResourceHRLeave,
		Actions:  []models.Action{models.ActionDelete},
	})
	require.Equal(t, ReasonForbidden, ReasonOf(err))

	var authzErr *Error
	require.ErrorAs(t, err, &authzErr)
	require.Equal(t, models.ResourceHRLeave, authzErr.Resource)
	require.Equal(t, models.ActionDelete, authzErr.Action)
}

func TestEnsureOrgAccessNilContext(t *testing.T) {
	err := EnsureOrgAccess(nil, PermissionGuard{})
	require.Equal(t, ReasonUnauthenticated, ReasonOf(err))
}

func TestEnsureOrgAccessTenantConstraints(t *testing.T) {
	actx := testAuthorizationContext(t)

	require.NoError(t, EnsureOrgAccess(actx, PermissionGuard{
		ExpectedResidency:      models.ResidencyEU,
		ExpectedClassification: models.ClassificationConfidential,
	}))

	err := EnsureOrgAccess(actx, PermissionGuard{ExpectedResidency: models.ResidencyUS})
	require.Equal(t, ReasonResidencyMismatch, ReasonOf(err))

	err = EnsureOrgAccess(actx, PermissionGuard{ExpectedClassification: models.ClassificationRestricted})
	require.Equal(t, ReasonClassificationMismatch, ReasonOf(err))
}

func TestAuthorizationContextValidate(t *testing.T) {
	actx := testAuthorizationContext(t)
	require.NoError(t, actx.Validate())

	// A scope built from a different organization must be rejected.
	other := &models.Organization{
		OrgID:              uuid.Must(uuid.NewV7()),
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationConfidential,
	}
	actx.TenantScope = models.NewTenantScope(other, "api", "")
	require.Error(t, actx.Validate())

	// Residency drift between scope and context is rejected too.
	actx = testAuthorizationContext(t)
	actx.DataResidency = models.ResidencyUS
	require.Error(t, actx.Validate())

	actx = testAuthorizationContext(t)
	actx.DataClassification = models.ClassificationPublic
	require.Error(t, actx.Validate())
}

func TestAuthorizationContextRoundTrip(t *testing.T) {
	actx := testAuthorizationContext(t)

	ctx := WithAuthorization(context.Background(), actx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Same(t, actx, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}
