package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoleScope indicates whether a role template is platform-wide or belongs to a
// single organization.
type RoleScope string

const (
	RoleScopeGlobal RoleScope = "global"
	RoleScopeOrg    RoleScope = "org"
)

// Well-known role keys seeded at tenant bootstrap. RoleKeyPlatformAdmin is the
// only global role; it bypasses the employee-profile setup gate.
const (
	RoleKeyPlatformAdmin = "platform_admin"
	RoleKeyOwner         = "owner"
	RoleKeyAdmin         = "admin"
	RoleKeyManager       = "manager"
	RoleKeyEmployee      = "employee"
)

// RoleTemplate declares a named set of permissions for an organization.
// InheritsRoleIDs may form cycles in stored data; resolution treats revisits
// as no-ops so traversal always terminates.
type RoleTemplate struct {
	RoleID          uuid.UUID // UUIDv7
	OrgID           uuid.UUID
	Key             string
	Name            string
	Scope           RoleScope
	Permissions     PermissionMap
	InheritsRoleIDs []uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks the template's permissions against the closed enumerations.
func (r *RoleTemplate) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("role key is required")
	}
	if r.Scope != RoleScopeGlobal && r.Scope != RoleScopeOrg {
		return fmt.Errorf("invalid role scope %q", r.Scope)
	}
	if err := r.Permissions.Validate(); err != nil {
		return fmt.Errorf("role %s: %w", r.Key, err)
	}
	return nil
}

// Membership binds a user to a role within an organization.
type Membership struct {
	OrgID     uuid.UUID
	UserID    uuid.UUID
	RoleID    uuid.UUID
	RoleKey   string
	CreatedAt time.Time
}
