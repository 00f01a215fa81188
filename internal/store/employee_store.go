package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// Sentinel errors for employee profile operations
var (
	ErrProfileNotFound = errors.New("employee profile not found")
)

// EmployeeStore reads employee profiles for the workspace setup gate. The HR
// domain owns the records.
type EmployeeStore interface {
	// GetByUser retrieves the employee profile for a user within the
	// scoped tenant.
	// Returns ErrProfileNotFound if no profile exists.
	GetByUser(ctx context.Context, scope models.TenantScope, userID uuid.UUID) (*models.EmployeeProfile, error)
}

// AccountStore reads credential state from the auth-account system.
type AccountStore interface {
	// HasCredentialPassword reports whether the auth user has a
	// credential-based password configured.
	HasCredentialPassword(ctx context.Context, authUserID uuid.UUID) (bool, error)
}
