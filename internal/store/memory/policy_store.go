package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// PolicyStore implements store.PolicyStore using in-memory storage.
type PolicyStore struct {
	mu sync.RWMutex

	policies map[uuid.UUID][]*models.AbacPolicy // org_id -> policies
}

// NewPolicyStore creates a new in-memory policy store.
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{
		policies: make(map[uuid.UUID][]*models.AbacPolicy),
	}
}

// ListByOrganization returns all ABAC policies for an organization.
func (s *PolicyStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.AbacPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policies := make([]*models.AbacPolicy, 0, len(s.policies[orgID]))
	for _, policy := range s.policies[orgID] {
		policies = append(policies, clonePolicy(policy))
	}

	return policies, nil
}

// Replace swaps the organization's full policy set.
func (s *PolicyStore) Replace(ctx context.Context, orgID uuid.UUID, policies []*models.AbacPolicy) error {
	now := time.Now()

	clones := make([]*models.AbacPolicy, 0, len(policies))
	for _, policy := range policies {
		if err := policy.Validate(); err != nil {
			return err
		}

		clone := clonePolicy(policy)
		clone.OrgID = orgID
		if clone.PolicyID == uuid.Nil {
			clone.PolicyID = uuid.Must(uuid.NewV7())
		}
		if clone.CreatedAt.IsZero() {
			clone.CreatedAt = now
		}
		clone.UpdatedAt = now

		clones = append(clones, clone)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies[orgID] = clones

	return nil
}

func clonePolicy(policy *models.AbacPolicy) *models.AbacPolicy {
	clone := *policy
	clone.Actions = slices.Clone(policy.Actions)
	if policy.Match != nil {
		clone.Match = make(map[string]string, len(policy.Match))
		for k, v := range policy.Match {
			clone.Match[k] = v
		}
	}
	return &clone
}
