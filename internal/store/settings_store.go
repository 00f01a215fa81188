package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// Sentinel errors for settings store operations
var (
	ErrSettingsNotFound = errors.New("security settings not found")
)

// SettingsStore reads the per-tenant security settings record. The record is
// owned by org administration; this core never writes it.
type SettingsStore interface {
	// Get retrieves the organization's security settings.
	// Returns ErrSettingsNotFound when the tenant has never configured
	// them; callers fall back to defaults.
	Get(ctx context.Context, orgID uuid.UUID) (*models.OrgSecuritySettings, error)
}
