package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// AuthorizationContext is the immutable, request-scoped result of a resolved
// access check. Every downstream repository call threads the embedded tenant
// scope as its tenant boundary.
type AuthorizationContext struct {
	OrgID  uuid.UUID
	UserID uuid.UUID

	RoleID   uuid.UUID
	RoleKey  string
	RoleName string
	RoleScope models.RoleScope

	Permissions models.PermissionMap

	DataResidency      models.DataResidency
	DataClassification models.DataClassification

	AuditSource   string
	AuditBatchID  string
	CorrelationID string

	TenantScope models.TenantScope
}

// Validate enforces the tenant-scope integrity invariant: the scope's org,
// residency, and classification must be identical to the context's own fields.
func (a *AuthorizationContext) Validate() error {
	if a.TenantScope.OrgID() != a.OrgID {
		return fmt.Errorf("tenant scope org %s does not match context org %s", a.TenantScope.OrgID(), a.OrgID)
	}
	if a.TenantScope.DataResidency() != a.DataResidency {
		return fmt.Errorf("tenant scope residency drift: %s vs %s", a.TenantScope.DataResidency(), a.DataResidency)
	}
	if a.TenantScope.DataClassification() != a.DataClassification {
		return fmt.Errorf("tenant scope classification drift: %s vs %s", a.TenantScope.DataClassification(), a.DataClassification)
	}
	return nil
}

type contextKey string

const authorizationContextKey contextKey = "authorization_context"

// WithAuthorization stores a resolved authorization context on the request
// context.
func WithAuthorization(ctx context.Context, authz *AuthorizationContext) context.Context {
	return context.WithValue(ctx, authorizationContextKey, authz)
}

// FromContext extracts the authorization context placed by the middleware.
func FromContext(ctx context.Context) (*AuthorizationContext, bool) {
	authz, ok := ctx.Value(authorizationContextKey).(*AuthorizationContext)
	return authz, ok
}
