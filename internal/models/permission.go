package models

import (
	"fmt"
	"slices"
)

// Resource identifies a protected resource type. The set is closed so that a
// typo in a role template or policy fails validation at configuration time
// instead of silently granting or denying access.
type Resource string

const (
	ResourceHRLeave       Resource = "hr.leave"
	ResourceHRAbsence     Resource = "hr.absence"
	ResourceHRPerformance Resource = "hr.performance"
	ResourceHRCompliance  Resource = "hr.compliance"
	ResourceHREmployee    Resource = "hr.employee"
	ResourceOrgSettings   Resource = "org.settings"
	ResourceOrgMembers    Resource = "org.members"
	ResourceOrgRoles      Resource = "org.roles"
	ResourceOrgPolicies   Resource = "org.policies"
	ResourceOrgSessions   Resource = "org.sessions"
	ResourceBillingPlan   Resource = "billing.plan"
	ResourceBillingInvoice Resource = "billing.invoice"
	ResourceDocuments     Resource = "documents.file"
	ResourceAuditLog      Resource = "audit.log"
)

// Action identifies what may be done to a resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
	ActionExport  Action = "export"
	ActionManage  Action = "manage"
)

var knownResources = map[Resource]struct{}{
	ResourceHRLeave:        {},
	ResourceHRAbsence:      {},
	ResourceHRPerformance:  {},
	ResourceHRCompliance:   {},
	ResourceHREmployee:     {},
	ResourceOrgSettings:    {},
	ResourceOrgMembers:     {},
	ResourceOrgRoles:       {},
	ResourceOrgPolicies:    {},
	ResourceOrgSessions:    {},
	ResourceBillingPlan:    {},
	ResourceBillingInvoice: {},
	ResourceDocuments:      {},
	ResourceAuditLog:       {},
}

var knownActions = map[Action]struct{}{
	ActionRead:    {},
	ActionCreate:  {},
	ActionUpdate:  {},
	ActionDelete:  {},
	ActionApprove: {},
	ActionExport:  {},
	ActionManage:  {},
}

// Valid reports whether the resource is a member of the closed set.
func (r Resource) Valid() bool {
	_, ok := knownResources[r]
	return ok
}

// Valid reports whether the action is a member of the closed set.
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// PermissionMap maps a resource to the set of permitted actions. Action slices
// are kept deduplicated and sorted so maps built in different traversal orders
// compare equal.
type PermissionMap map[Resource][]Action

// Validate checks every resource and action against the closed enumerations.
func (pm PermissionMap) Validate() error {
	for resource, actions := range pm {
		if !resource.Valid() {
			return fmt.Errorf("unknown resource %q: %w", resource, ErrUnknownResource)
		}
		for _, action := range actions {
			if !action.Valid() {
				return fmt.Errorf("unknown action %q on resource %q: %w", action, resource, ErrUnknownAction)
			}
		}
	}
	return nil
}

// Has reports whether the map permits action on resource.
func (pm PermissionMap) Has(resource Resource, action Action) bool {
	return slices.Contains(pm[resource], action)
}

// Grant adds actions for a resource, keeping the slice sorted and deduplicated.
// Union is commutative and idempotent, so merge order never affects the result.
func (pm PermissionMap) Grant(resource Resource, actions ...Action) {
	existing := pm[resource]
	for _, action := range actions {
		if !slices.Contains(existing, action) {
			existing = append(existing, action)
		}
	}
	slices.Sort(existing)
	pm[resource] = existing
}

// Revoke removes actions for a resource, dropping the resource entry entirely
// when no actions remain.
func (pm PermissionMap) Revoke(resource Resource, actions ...Action) {
	existing := pm[resource]
	existing = slices.DeleteFunc(existing, func(a Action) bool {
		return slices.Contains(actions, a)
	})
	if len(existing) == 0 {
		delete(pm, resource)
		return
	}
	pm[resource] = existing
}

// Merge unions another permission map into this one.
func (pm PermissionMap) Merge(other PermissionMap) {
	for resource, actions := range other {
		pm.Grant(resource, actions...)
	}
}

// Includes reports whether every resource/action pair in required is present.
// On the first missing pair it returns false along with that pair.
func (pm PermissionMap) Includes(required PermissionMap) (bool, Resource, Action) {
	for resource, actions := range required {
		for _, action := range actions {
			if !pm.Has(resource, action) {
				return false, resource, action
			}
		}
	}
	return true, "", ""
}

// Clone returns a deep copy.
func (pm PermissionMap) Clone() PermissionMap {
	out := make(PermissionMap, len(pm))
	for resource, actions := range pm {
		out[resource] = slices.Clone(actions)
	}
	return out
}
