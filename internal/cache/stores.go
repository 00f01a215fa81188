package cache

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// RoleStore decorates a store.RoleStore with cached ListByOrganization reads.
// Writes pass through and invalidate the org's role tag.
type RoleStore struct {
	inner store.RoleStore
	orgs  store.OrganizationStore
	cache *RecordCache
}

var _ store.RoleStore = (*RoleStore)(nil)

// NewRoleStore creates the caching decorator. The organization store is only
// used to resolve classification/residency tags when filling the cache.
func NewRoleStore(inner store.RoleStore, orgs store.OrganizationStore, cache *RecordCache) *RoleStore {
	return &RoleStore{inner: inner, orgs: orgs, cache: cache}
}

func (s *RoleStore) Get(ctx context.Context, orgID, roleID uuid.UUID) (*models.RoleTemplate, error) {
	return s.inner.Get(ctx, orgID, roleID)
}

func (s *RoleStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.RoleTemplate, error) {
	key := ScopeRoles + ":" + orgID.String()

	var cached []*models.RoleTemplate
	hit, err := s.cache.get(ctx, key, &cached)
	if err != nil {
		// A broken cache degrades to the inner store, never to a stale
		// or missing answer.
		log.Warn().Err(err).Msg("Role cache read failed, falling through")
	}
	if hit {
		return cached, nil
	}

	roles, err := s.inner.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.set(ctx, key, roles, s.tags(ctx, orgID)); err != nil {
		log.Warn().Err(err).Msg("Role cache fill failed")
	}

	return roles, nil
}

func (s *RoleStore) Create(ctx context.Context, role *models.RoleTemplate) error {
	if err := s.inner.Create(ctx, role); err != nil {
		return err
	}
	s.invalidate(ctx, role.OrgID)
	return nil
}

func (s *RoleStore) Update(ctx context.Context, role *models.RoleTemplate) error {
	if err := s.inner.Update(ctx, role); err != nil {
		return err
	}
	s.invalidate(ctx, role.OrgID)
	return nil
}

func (s *RoleStore) tags(ctx context.Context, orgID uuid.UUID) Tags {
	tags := Tags{OrgID: orgID, Scope: ScopeRoles}
	if org, err := s.orgs.Get(ctx, orgID); err == nil {
		tags.Classification = org.DataClassification
		tags.Residency = org.DataResidency
	}
	return tags
}

func (s *RoleStore) invalidate(ctx context.Context, orgID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, Tags{OrgID: orgID, Scope: ScopeRoles}); err != nil {
		log.Warn().Err(err).Str("org_id", orgID.String()).Msg("Role cache invalidation failed")
	}
}

// PolicyStore decorates a store.PolicyStore with cached reads and write-side
// invalidation.
type PolicyStore struct {
	inner store.PolicyStore
	orgs  store.OrganizationStore
	cache *RecordCache
}

var _ store.PolicyStore = (*PolicyStore)(nil)

// NewPolicyStore creates the caching decorator.
func NewPolicyStore(inner store.PolicyStore, orgs store.OrganizationStore, cache *RecordCache) *PolicyStore {
	return &PolicyStore{inner: inner, orgs: orgs, cache: cache}
}

func (s *PolicyStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.AbacPolicy, error) {
	key := ScopePolicies + ":" + orgID.String()

	var cached []*models.AbacPolicy
	hit, err := s.cache.get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("Policy cache read failed, falling through")
	}
	if hit {
		return cached, nil
	}

	policies, err := s.inner.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	tags := Tags{OrgID: orgID, Scope: ScopePolicies}
	if org, err := s.orgs.Get(ctx, orgID); err == nil {
		tags.Classification = org.DataClassification
		tags.Residency = org.DataResidency
	}
	if err := s.cache.set(ctx, key, policies, tags); err != nil {
		log.Warn().Err(err).Msg("Policy cache fill failed")
	}

	return policies, nil
}

func (s *PolicyStore) Replace(ctx context.Context, orgID uuid.UUID, policies []*models.AbacPolicy) error {
	if err := s.inner.Replace(ctx, orgID, policies); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, Tags{OrgID: orgID, Scope: ScopePolicies}); err != nil {
		log.Warn().Err(err).Str("org_id", orgID.String()).Msg("Policy cache invalidation failed")
	}
	return nil
}
