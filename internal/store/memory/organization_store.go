package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory
// storage. This implementation is for testing and development only - data is
// lost on restart.
type OrganizationStore struct {
	mu sync.RWMutex

	orgs   map[uuid.UUID]*models.Organization
	bySlug map[string]uuid.UUID
}

// NewOrganizationStore creates a new in-memory organization store.
func NewOrganizationStore() *OrganizationStore {
	return &OrganizationStore{
		orgs:   make(map[uuid.UUID]*models.Organization),
		bySlug: make(map[string]uuid.UUID),
	}
}

// Create creates a new organization in memory.
func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orgs[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}
	if _, exists := s.bySlug[org.Slug]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	clone := *org
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	clone.UpdatedAt = clone.CreatedAt

	s.orgs[org.OrgID] = &clone
	s.bySlug[org.Slug] = org.OrgID

	return nil
}

// Get retrieves an organization by ID.
func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, exists := s.orgs[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// GetBySlug retrieves an organization by slug.
func (s *OrganizationStore) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orgID, exists := s.bySlug[slug]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *s.orgs[orgID]
	return &clone, nil
}

// Update updates an existing organization.
func (s *OrganizationStore) Update(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orgs[org.OrgID]
	if !exists {
		return store.ErrOrganizationNotFound
	}

	delete(s.bySlug, existing.Slug)

	clone := *org
	clone.CreatedAt = existing.CreatedAt
	clone.UpdatedAt = time.Now()

	s.orgs[org.OrgID] = &clone
	s.bySlug[org.Slug] = org.OrgID

	return nil
}
