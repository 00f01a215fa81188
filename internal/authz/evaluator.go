package authz

import (
	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// PolicyRequest carries the contextual attributes the ABAC overlay is
// evaluated against.
type PolicyRequest struct {
	Resource   models.Resource
	Action     models.Action
	Attributes map[string]string
}

// ResolveEffectivePermissions computes the RBAC permission map for a role by
// walking its inheritance graph. The computation is pure: roles are the
// already-loaded templates for the organization, keyed by role ID, so callers
// control loading and cache invalidation.
//
// The stored inheritance relation may contain cycles; the visited set makes
// revisits no-ops, bounding the walk to O(number of roles). Union is
// commutative and idempotent, so traversal order never affects the result.
func ResolveEffectivePermissions(roles map[uuid.UUID]*models.RoleTemplate, roleID uuid.UUID) (models.PermissionMap, error) {
	root, ok := roles[roleID]
	if !ok {
		return nil, errRoleNotFound("role does not belong to this organization")
	}

	effective := make(models.PermissionMap)
	visited := make(map[uuid.UUID]struct{})
	stack := []*models.RoleTemplate{root}

	for len(stack) > 0 {
		role := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[role.RoleID]; seen {
			continue
		}
		visited[role.RoleID] = struct{}{}

		effective.Merge(role.Permissions)

		for _, inheritedID := range role.InheritsRoleIDs {
			inherited, ok := roles[inheritedID]
			if !ok {
				// Dangling inheritance reference; the declared
				// permissions of known roles still apply.
				continue
			}
			stack = append(stack, inherited)
		}
	}

	return effective, nil
}

// ApplyPolicies applies the ABAC overlay for the requested resource, action,
// and attributes on top of the RBAC union. Matching allow policies add the
// requested action; matching deny policies remove it. Deny wins over both an
// RBAC grant and an allow policy on the same resource and action.
//
// The input map is not mutated.
func ApplyPolicies(rbac models.PermissionMap, policies []*models.AbacPolicy, req PolicyRequest) models.PermissionMap {
	effective := rbac.Clone()
	if req.Resource == "" || req.Action == "" {
		return effective
	}

	denied := false
	for _, policy := range policies {
		if !policy.Matches(req.Resource, req.Action, req.Attributes) {
			continue
		}
		switch policy.Effect {
		case models.EffectAllow:
			effective.Grant(req.Resource, req.Action)
		case models.EffectDeny:
			denied = true
		}
	}

	if denied {
		effective.Revoke(req.Resource, req.Action)
	}

	return effective
}

// rolesByID indexes a role list by ID for traversal.
func rolesByID(roles []*models.RoleTemplate) map[uuid.UUID]*models.RoleTemplate {
	indexed := make(map[uuid.UUID]*models.RoleTemplate, len(roles))
	for _, role := range roles {
		indexed[role.RoleID] = role
	}
	return indexed
}
