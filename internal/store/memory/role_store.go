package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// RoleStore implements store.RoleStore using in-memory storage. Global role
// templates are stored under the zero org ID and visible to every tenant.
// This implementation is for testing and development only - data is lost on
// restart.
type RoleStore struct {
	mu sync.RWMutex

	roles map[uuid.UUID]*models.RoleTemplate
	byOrg map[uuid.UUID][]uuid.UUID
}

// NewRoleStore creates a new in-memory role store.
func NewRoleStore() *RoleStore {
	return &RoleStore{
		roles: make(map[uuid.UUID]*models.RoleTemplate),
		byOrg: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Get retrieves a role template visible to the organization.
func (s *RoleStore) Get(ctx context.Context, orgID, roleID uuid.UUID) (*models.RoleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, exists := s.roles[roleID]
	if !exists || (role.OrgID != orgID && role.OrgID != uuid.Nil) {
		return nil, store.ErrRoleNotFound
	}

	return cloneRole(role), nil
}

// ListByOrganization returns the organization's role templates plus the
// global templates.
func (s *RoleStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.RoleTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byOrg[orgID]
	if orgID != uuid.Nil {
		ids = append(slices.Clone(ids), s.byOrg[uuid.Nil]...)
	}

	roles := make([]*models.RoleTemplate, 0, len(ids))
	for _, id := range ids {
		roles = append(roles, cloneRole(s.roles[id]))
	}

	return roles, nil
}

// Create creates a new role template.
func (s *RoleStore) Create(ctx context.Context, role *models.RoleTemplate) error {
	if err := role.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roles[role.RoleID]; exists {
		return store.ErrRoleAlreadyExists
	}
	for _, id := range s.byOrg[role.OrgID] {
		if s.roles[id].Key == role.Key {
			return store.ErrRoleAlreadyExists
		}
	}

	clone := cloneRole(role)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	clone.UpdatedAt = clone.CreatedAt

	s.roles[role.RoleID] = clone
	s.byOrg[role.OrgID] = append(s.byOrg[role.OrgID], role.RoleID)

	return nil
}

// Update updates an existing role template.
func (s *RoleStore) Update(ctx context.Context, role *models.RoleTemplate) error {
	if err := role.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.roles[role.RoleID]
	if !exists || existing.OrgID != role.OrgID {
		return store.ErrRoleNotFound
	}

	clone := cloneRole(role)
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now()

	s.roles[role.RoleID] = clone

	return nil
}

func cloneRole(role *models.RoleTemplate) *models.RoleTemplate {
	clone := *role
	clone.Permissions = role.Permissions.Clone()
	clone.InheritsRoleIDs = slices.Clone(role.InheritsRoleIDs)
	return &clone
}

// MembershipStore implements store.MembershipStore using in-memory storage.
type MembershipStore struct {
	mu sync.RWMutex

	memberships map[uuid.UUID]map[uuid.UUID]*models.Membership // org_id -> user_id -> Membership
}

// NewMembershipStore creates a new in-memory membership store.
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{
		memberships: make(map[uuid.UUID]map[uuid.UUID]*models.Membership),
	}
}

// GetByUser returns the membership binding a user to the organization.
func (s *MembershipStore) GetByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, exists := s.memberships[orgID][userID]
	if !exists {
		return nil, store.ErrMembershipNotFound
	}

	clone := *membership
	return &clone, nil
}

// Create binds a user to a role within an organization.
func (s *MembershipStore) Create(ctx context.Context, membership *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memberships[membership.OrgID] == nil {
		s.memberships[membership.OrgID] = make(map[uuid.UUID]*models.Membership)
	}

	clone := *membership
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	s.memberships[membership.OrgID][membership.UserID] = &clone

	return nil
}
