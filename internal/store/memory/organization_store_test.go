package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

func TestOrganizationStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewOrganizationStore()

	org := &models.Organization{
		OrgID:              uuid.Must(uuid.NewV7()),
		Name:               "Acme",
		Slug:               "acme",
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationConfidential,
	}
	require.NoError(t, s.Create(ctx, org))

	got, err := s.Get(ctx, org.OrgID)
	require.NoError(t, err)
	require.Equal(t, "acme", got.Slug)
	require.False(t, got.CreatedAt.IsZero())

	bySlug, err := s.GetBySlug(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, org.OrgID, bySlug.OrgID)

	_, err = s.Get(ctx, uuid.Must(uuid.NewV7()))
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	_, err = s.GetBySlug(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)
}

func TestOrganizationStoreDuplicateSlug(t *testing.T) {
	ctx := context.Background()
	s := NewOrganizationStore()

	require.NoError(t, s.Create(ctx, &models.Organization{
		OrgID: uuid.Must(uuid.NewV7()),
		Name:  "Acme",
		Slug:  "acme",
	}))

	err := s.Create(ctx, &models.Organization{
		OrgID: uuid.Must(uuid.NewV7()),
		Name:  "Acme Two",
		Slug:  "acme",
	})
	require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
}

func TestOrganizationStoreUpdateReindexesSlug(t *testing.T) {
	ctx := context.Background()
	s := NewOrganizationStore()

	org := &models.Organization{
		OrgID: uuid.Must(uuid.NewV7()),
		Name:  "Acme",
		Slug:  "acme",
	}
	require.NoError(t, s.Create(ctx, org))

	org.Slug = "acme-corp"
	require.NoError(t, s.Update(ctx, org))

	_, err := s.GetBySlug(ctx, "acme")
	require.ErrorIs(t, err, store.ErrOrganizationNotFound)

	got, err := s.GetBySlug(ctx, "acme-corp")
	require.NoError(t, err)
	require.Equal(t, org.OrgID, got.OrgID)
}
