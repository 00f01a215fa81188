package authz

import "github.com/wolfeidau/tenantguard/internal/models"

// PermissionGuard re-states the constraints a domain service needs to hold
// mid-operation, after the initial context resolution.
type PermissionGuard struct {
	Resource models.Resource
	Actions  []models.Action

	ExpectedResidency      models.DataResidency
	ExpectedClassification models.DataClassification
}

// EnsureOrgAccess re-validates a guard against an already-resolved
// authorization context. It is pure: no stores are consulted, so it is safe
// to call from tight loops between data accesses.
func EnsureOrgAccess(authz *AuthorizationContext, guard PermissionGuard) error {
	if authz == nil {
		return errUnauthenticated()
	}

	for _, action := range guard.Actions {
		if !authz.Permissions.Has(guard.Resource, action) {
			return errForbidden(guard.Resource, action)
		}
	}

	if guard.ExpectedResidency != "" && guard.ExpectedResidency != authz.TenantScope.DataResidency() {
		return errResidencyMismatch(guard.ExpectedResidency, authz.TenantScope.DataResidency())
	}
	if guard.ExpectedClassification != "" && guard.ExpectedClassification != authz.TenantScope.DataClassification() {
		return errClassificationMismatch(guard.ExpectedClassification, authz.TenantScope.DataClassification())
	}

	return nil
}
