package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// seedRoles creates the default role hierarchy for a tenant. Each role
// inherits the one below it: owner -> admin -> manager -> employee.
func seedRoles(ctx context.Context, roles store.RoleStore, orgID uuid.UUID) (map[string]*models.RoleTemplate, error) {
	employee := &models.RoleTemplate{
		RoleID: uuid.Must(uuid.NewV7()),
		OrgID:  orgID,
		Key:    models.RoleKeyEmployee,
		Name:   "Employee",
		Scope:  models.RoleScopeOrg,
		Permissions: models.PermissionMap{
			models.ResourceHRLeave:   {models.ActionRead, models.ActionCreate},
			models.ResourceHRAbsence: {models.ActionRead, models.ActionCreate},
			models.ResourceHREmployee: {models.ActionRead},
			models.ResourceDocuments:  {models.ActionRead},
		},
	}

	manager := &models.RoleTemplate{
		RoleID: uuid.Must(uuid.NewV7()),
		OrgID:  orgID,
		Key:    models.RoleKeyManager,
		Name:   "Manager",
		Scope:  models.RoleScopeOrg,
		Permissions: models.PermissionMap{
			models.ResourceHRLeave:       {models.ActionApprove},
			models.ResourceHRAbsence:     {models.ActionApprove},
			models.ResourceHRPerformance: {models.ActionRead, models.ActionCreate, models.ActionUpdate},
			models.ResourceHREmployee:    {models.ActionUpdate},
			models.ResourceDocuments:     {models.ActionCreate, models.ActionUpdate},
		},
		InheritsRoleIDs: []uuid.UUID{employee.RoleID},
	}

	admin := &models.RoleTemplate{
		RoleID: uuid.Must(uuid.NewV7()),
		OrgID:  orgID,
		Key:    models.RoleKeyAdmin,
		Name:   "Administrator",
		Scope:  models.RoleScopeOrg,
		Permissions: models.PermissionMap{
			models.ResourceOrgSettings:  {models.ActionRead, models.ActionUpdate},
			models.ResourceOrgMembers:   {models.ActionRead, models.ActionManage},
			models.ResourceOrgRoles:     {models.ActionRead, models.ActionManage},
			models.ResourceOrgPolicies:  {models.ActionRead, models.ActionManage},
			models.ResourceOrgSessions:  {models.ActionRead, models.ActionManage},
			models.ResourceHRCompliance: {models.ActionRead, models.ActionExport},
			models.ResourceAuditLog:     {models.ActionRead},
			models.ResourceDocuments:    {models.ActionDelete, models.ActionExport},
		},
		InheritsRoleIDs: []uuid.UUID{manager.RoleID},
	}

	owner := &models.RoleTemplate{
		RoleID: uuid.Must(uuid.NewV7()),
		OrgID:  orgID,
		Key:    models.RoleKeyOwner,
		Name:   "Owner",
		Scope:  models.RoleScopeOrg,
		Permissions: models.PermissionMap{
			models.ResourceBillingPlan:    {models.ActionRead, models.ActionManage},
			models.ResourceBillingInvoice: {models.ActionRead, models.ActionExport},
			models.ResourceOrgSettings:    {models.ActionManage},
			models.ResourceHRCompliance:   {models.ActionManage},
		},
		InheritsRoleIDs: []uuid.UUID{admin.RoleID},
	}

	seeded := map[string]*models.RoleTemplate{}
	for _, role := range []*models.RoleTemplate{employee, manager, admin, owner} {
		if err := roles.Create(ctx, role); err != nil {
			return nil, fmt.Errorf("failed to seed role %s: %w", role.Key, err)
		}
		seeded[role.Key] = role
	}

	return seeded, nil
}

// platformAdminTemplate is the global support role: every action on every
// resource. Platform admins bypass the employee-profile setup gate but not
// the session security checks.
func platformAdminTemplate() *models.RoleTemplate {
	permissions := models.PermissionMap{}
	for _, resource := range []models.Resource{
		models.ResourceHRLeave,
		models.ResourceHRAbsence,
		models.ResourceHRPerformance,
		models.ResourceHRCompliance,
		models.ResourceHREmployee,
		models.ResourceOrgSettings,
		models.ResourceOrgMembers,
		models.ResourceOrgRoles,
		models.ResourceOrgPolicies,
		models.ResourceOrgSessions,
		models.ResourceBillingPlan,
		models.ResourceBillingInvoice,
		models.ResourceDocuments,
		models.ResourceAuditLog,
	} {
		permissions.Grant(resource,
			models.ActionRead,
			models.ActionCreate,
			models.ActionUpdate,
			models.ActionDelete,
			models.ActionApprove,
			models.ActionExport,
			models.ActionManage,
		)
	}

	return &models.RoleTemplate{
		RoleID:      uuid.Must(uuid.NewV7()),
		Key:         models.RoleKeyPlatformAdmin,
		Name:        "Platform Administrator",
		Scope:       models.RoleScopeGlobal,
		Permissions: permissions,
	}
}
