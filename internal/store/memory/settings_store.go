package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// SettingsStore implements store.SettingsStore using in-memory storage, with a
// Put method so tests and the dev server can seed settings.
type SettingsStore struct {
	mu sync.RWMutex

	settings map[uuid.UUID]*models.OrgSecuritySettings
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		settings: make(map[uuid.UUID]*models.OrgSecuritySettings),
	}
}

// Get retrieves the organization's security settings.
func (s *SettingsStore) Get(ctx context.Context, orgID uuid.UUID) (*models.OrgSecuritySettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, exists := s.settings[orgID]
	if !exists {
		return nil, store.ErrSettingsNotFound
	}

	clone := *settings
	clone.IPAllowlist = slices.Clone(settings.IPAllowlist)
	return &clone, nil
}

// Put stores the organization's security settings.
func (s *SettingsStore) Put(ctx context.Context, settings *models.OrgSecuritySettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *settings
	clone.IPAllowlist = slices.Clone(settings.IPAllowlist)
	s.settings[settings.OrgID] = &clone

	return nil
}
