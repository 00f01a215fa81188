package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

type profileKey struct {
	orgID  uuid.UUID
	userID uuid.UUID
}

// EmployeeStore implements store.EmployeeStore using in-memory storage, with a
// Put method so tests and the dev server can seed profiles.
type EmployeeStore struct {
	mu sync.RWMutex

	profiles map[profileKey]*models.EmployeeProfile
}

// NewEmployeeStore creates a new in-memory employee store.
func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{
		profiles: make(map[profileKey]*models.EmployeeProfile),
	}
}

// GetByUser retrieves the employee profile for a user within the scoped
// tenant.
func (s *EmployeeStore) GetByUser(ctx context.Context, scope models.TenantScope, userID uuid.UUID) (*models.EmployeeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, exists := s.profiles[profileKey{orgID: scope.OrgID(), userID: userID}]
	if !exists {
		return nil, store.ErrProfileNotFound
	}

	clone := *profile
	return &clone, nil
}

// Put stores an employee profile.
func (s *EmployeeStore) Put(ctx context.Context, profile *models.EmployeeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *profile
	s.profiles[profileKey{orgID: profile.OrgID, userID: profile.UserID}] = &clone

	return nil
}

// AccountStore implements store.AccountStore using in-memory storage, with a
// SetPassword method so tests and the dev server can seed credential state.
type AccountStore struct {
	mu sync.RWMutex

	passwords map[uuid.UUID]bool
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		passwords: make(map[uuid.UUID]bool),
	}
}

// HasCredentialPassword reports whether the auth user has a credential-based
// password configured.
func (s *AccountStore) HasCredentialPassword(ctx context.Context, authUserID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.passwords[authUserID], nil
}

// SetPassword records whether the auth user has a password configured.
func (s *AccountStore) SetPassword(ctx context.Context, authUserID uuid.UUID, hasPassword bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.passwords[authUserID] = hasPassword
}
