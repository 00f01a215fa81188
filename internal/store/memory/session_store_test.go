package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

func testScope(orgID uuid.UUID) models.TenantScope {
	return models.NewTenantScope(&models.Organization{
		OrgID:              orgID,
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationInternal,
	}, "api", "")
}

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	scope := testScope(uuid.Must(uuid.NewV7()))
	now := time.Now()

	record := &models.UserSession{
		SessionID:    uuid.Must(uuid.NewV7()),
		UserID:       uuid.Must(uuid.NewV7()),
		Token:        "token-1",
		Status:       models.SessionStatusActive,
		StartedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
		LastAccessAt: now,
	}
	require.NoError(t, s.Create(ctx, scope, record))

	got, err := s.GetByToken(ctx, scope, "token-1")
	require.NoError(t, err)
	require.Equal(t, scope.OrgID(), got.OrgID, "the scope stamps the org on the record")
	require.Equal(t, models.SessionStatusActive, got.Status)

	// Updates keep the record identity and start time.
	got.IPAddress = "10.0.0.9"
	got.SessionID = uuid.Must(uuid.NewV7())
	require.NoError(t, s.Update(ctx, scope, got))

	updated, err := s.GetByToken(ctx, scope, "token-1")
	require.NoError(t, err)
	require.Equal(t, record.SessionID, updated.SessionID)
	require.Equal(t, record.StartedAt.Unix(), updated.StartedAt.Unix())
	require.Equal(t, "10.0.0.9", updated.IPAddress)

	// Invalidation transitions; it never deletes.
	require.NoError(t, s.Invalidate(ctx, scope, "token-1", models.SessionStatusRevoked, now))

	revoked, err := s.GetByToken(ctx, scope, "token-1")
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)
}

func TestSessionStoreScopedByTenant(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	scopeA := testScope(uuid.Must(uuid.NewV7()))
	scopeB := testScope(uuid.Must(uuid.NewV7()))

	require.NoError(t, s.Create(ctx, scopeA, &models.UserSession{
		SessionID: uuid.Must(uuid.NewV7()),
		Token:     "shared-token",
		Status:    models.SessionStatusActive,
	}))

	_, err := s.GetByToken(ctx, scopeB, "shared-token")
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionStoreUpdateMissing(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	scope := testScope(uuid.Must(uuid.NewV7()))

	err := s.Update(ctx, scope, &models.UserSession{Token: "ghost"})
	require.ErrorIs(t, err, store.ErrSessionNotFound)

	err = s.Invalidate(ctx, scope, "ghost", models.SessionStatusRevoked, time.Now())
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionStoreExpireBefore(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	scope := testScope(uuid.Must(uuid.NewV7()))
	now := time.Now()

	sessions := []*models.UserSession{
		{SessionID: uuid.Must(uuid.NewV7()), Token: "stale", Status: models.SessionStatusActive, ExpiresAt: now.Add(-time.Hour)},
		{SessionID: uuid.Must(uuid.NewV7()), Token: "live", Status: models.SessionStatusActive, ExpiresAt: now.Add(time.Hour)},
		{SessionID: uuid.Must(uuid.NewV7()), Token: "already-revoked", Status: models.SessionStatusRevoked, ExpiresAt: now.Add(-time.Hour)},
	}
	for _, session := range sessions {
		require.NoError(t, s.Create(ctx, scope, session))
	}

	count, err := s.ExpireBefore(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, count, "only active records past expiry transition")

	stale, err := s.GetByToken(ctx, scope, "stale")
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusExpired, stale.Status)

	live, err := s.GetByToken(ctx, scope, "live")
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusActive, live.Status)

	revoked, err := s.GetByToken(ctx, scope, "already-revoked")
	require.NoError(t, err)
	require.Equal(t, models.SessionStatusRevoked, revoked.Status, "terminal states are never overwritten")
}
