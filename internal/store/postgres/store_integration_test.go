//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

func setupPostgresPool(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func createTestOrganization(t *testing.T, ctx context.Context, orgs *OrganizationStore, slug string) *models.Organization {
	org := &models.Organization{
		OrgID:              uuid.Must(uuid.NewV7()),
		Name:               "Test " + slug,
		Slug:               slug,
		DataResidency:      models.ResidencyEU,
		DataClassification: models.ClassificationConfidential,
	}
	require.NoError(t, orgs.Create(ctx, org))
	return org
}

func TestIntegration_OrganizationStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)

	t.Run("create and get", func(t *testing.T) {
		org := createTestOrganization(t, ctx, orgs, "acme")

		got, err := orgs.Get(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, "acme", got.Slug)
		require.Equal(t, models.ResidencyEU, got.DataResidency)
		require.False(t, got.CreatedAt.IsZero())

		bySlug, err := orgs.GetBySlug(ctx, "acme")
		require.NoError(t, err)
		require.Equal(t, org.OrgID, bySlug.OrgID)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		createTestOrganization(t, ctx, orgs, "dup")

		err := orgs.Create(ctx, &models.Organization{
			OrgID:              uuid.Must(uuid.NewV7()),
			Name:               "Dup Two",
			Slug:               "dup",
			DataResidency:      models.ResidencyUS,
			DataClassification: models.ClassificationInternal,
		})
		require.ErrorIs(t, err, store.ErrOrganizationAlreadyExists)
	})

	t.Run("missing organization", func(t *testing.T) {
		_, err := orgs.Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrOrganizationNotFound)
	})

	t.Run("update", func(t *testing.T) {
		org := createTestOrganization(t, ctx, orgs, "renameme")

		org.Name = "Renamed"
		org.Slug = "renamed"
		require.NoError(t, orgs.Update(ctx, org))

		got, err := orgs.GetBySlug(ctx, "renamed")
		require.NoError(t, err)
		require.Equal(t, "Renamed", got.Name)
	})
}

func TestIntegration_RoleStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	roles := NewRoleStore(pool)
	org := createTestOrganization(t, ctx, orgs, "roles-org")

	t.Run("org role round trip", func(t *testing.T) {
		role := &models.RoleTemplate{
			RoleID: uuid.Must(uuid.NewV7()),
			OrgID:  org.OrgID,
			Key:    "employee",
			Name:   "Employee",
			Scope:  models.RoleScopeOrg,
			Permissions: models.PermissionMap{
				models.ResourceHRLeave: {models.ActionRead, models.ActionCreate},
			},
		}
		require.NoError(t, roles.Create(ctx, role))

		got, err := roles.Get(ctx, org.OrgID, role.RoleID)
		require.NoError(t, err)
		require.Equal(t, "employee", got.Key)
		require.True(t, got.Permissions.Has(models.ResourceHRLeave, models.ActionCreate))
	})

	t.Run("duplicate key in org", func(t *testing.T) {
		role := &models.RoleTemplate{
			RoleID:      uuid.Must(uuid.NewV7()),
			OrgID:       org.OrgID,
			Key:         "employee",
			Name:        "Employee Again",
			Scope:       models.RoleScopeOrg,
			Permissions: models.PermissionMap{},
		}
		require.ErrorIs(t, roles.Create(ctx, role), store.ErrRoleAlreadyExists)
	})

	t.Run("global role visible to tenant", func(t *testing.T) {
		global := &models.RoleTemplate{
			RoleID: uuid.Must(uuid.NewV7()),
			Key:    "platform_admin",
			Name:   "Platform Administrator",
			Scope:  models.RoleScopeGlobal,
			Permissions: models.PermissionMap{
				models.ResourceOrgSettings: {models.ActionManage},
			},
		}
		require.NoError(t, roles.Create(ctx, global))

		got, err := roles.Get(ctx, org.OrgID, global.RoleID)
		require.NoError(t, err)
		require.Equal(t, models.RoleScopeGlobal, got.Scope)

		list, err := roles.ListByOrganization(ctx, org.OrgID)
		require.NoError(t, err)

		keys := make(map[string]bool, len(list))
		for _, r := range list {
			keys[r.Key] = true
		}
		require.True(t, keys["employee"])
		require.True(t, keys["platform_admin"])
	})

	t.Run("inheritance ids survive storage", func(t *testing.T) {
		base := &models.RoleTemplate{
			RoleID:      uuid.Must(uuid.NewV7()),
			OrgID:       org.OrgID,
			Key:         "base",
			Name:        "Base",
			Scope:       models.RoleScopeOrg,
			Permissions: models.PermissionMap{},
		}
		require.NoError(t, roles.Create(ctx, base))

		derived := &models.RoleTemplate{
			RoleID:          uuid.Must(uuid.NewV7()),
			OrgID:           org.OrgID,
			Key:             "derived",
			Name:            "Derived",
			Scope:           models.RoleScopeOrg,
			Permissions:     models.PermissionMap{},
			InheritsRoleIDs: []uuid.UUID{base.RoleID},
		}
		require.NoError(t, roles.Create(ctx, derived))

		got, err := roles.Get(ctx, org.OrgID, derived.RoleID)
		require.NoError(t, err)
		require.Equal(t, []uuid.UUID{base.RoleID}, got.InheritsRoleIDs)
	})
}

func TestIntegration_MembershipStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	roles := NewRoleStore(pool)
	members := NewMembershipStore(pool)
	org := createTestOrganization(t, ctx, orgs, "members-org")

	role := &models.RoleTemplate{
		RoleID:      uuid.Must(uuid.NewV7()),
		OrgID:       org.OrgID,
		Key:         "employee",
		Name:        "Employee",
		Scope:       models.RoleScopeOrg,
		Permissions: models.PermissionMap{},
	}
	require.NoError(t, roles.Create(ctx, role))

	userID := uuid.Must(uuid.NewV7())

	_, err := members.GetByUser(ctx, org.OrgID, userID)
	require.ErrorIs(t, err, store.ErrMembershipNotFound)

	require.NoError(t, members.Create(ctx, &models.Membership{
		OrgID:   org.OrgID,
		UserID:  userID,
		RoleID:  role.RoleID,
		RoleKey: role.Key,
	}))

	got, err := members.GetByUser(ctx, org.OrgID, userID)
	require.NoError(t, err)
	require.Equal(t, role.RoleID, got.RoleID)

	// Re-binding the same user upserts the role.
	role2 := &models.RoleTemplate{
		RoleID:      uuid.Must(uuid.NewV7()),
		OrgID:       org.OrgID,
		Key:         "manager",
		Name:        "Manager",
		Scope:       models.RoleScopeOrg,
		Permissions: models.PermissionMap{},
	}
	require.NoError(t, roles.Create(ctx, role2))
	require.NoError(t, members.Create(ctx, &models.Membership{
		OrgID:   org.OrgID,
		UserID:  userID,
		RoleID:  role2.RoleID,
		RoleKey: role2.Key,
	}))

	got, err = members.GetByUser(ctx, org.OrgID, userID)
	require.NoError(t, err)
	require.Equal(t, role2.RoleID, got.RoleID)
}

func TestIntegration_PolicyStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	policies := NewPolicyStore(pool)
	org := createTestOrganization(t, ctx, orgs, "policies-org")

	require.NoError(t, policies.Replace(ctx, org.OrgID, []*models.AbacPolicy{
		{
			Name:     "deny-restricted-export",
			Effect:   models.EffectDeny,
			Resource: models.ResourceDocuments,
			Actions:  []models.Action{models.ActionExport},
			Match:    map[string]string{"data_classification": "restricted"},
			Enabled:  true,
		},
		{
			Name:     "deny-audit-mutation",
			Effect:   models.EffectDeny,
			Resource: models.ResourceAuditLog,
			Actions:  []models.Action{models.ActionCreate, models.ActionUpdate, models.ActionDelete},
			Enabled:  true,
		},
	}))

	list, err := policies.ListByOrganization(ctx, org.OrgID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byName := map[string]*models.AbacPolicy{}
	for _, policy := range list {
		require.NotEqual(t, uuid.Nil, policy.PolicyID)
		byName[policy.Name] = policy
	}
	require.Equal(t, "restricted", byName["deny-restricted-export"].Match["data_classification"])
	require.Len(t, byName["deny-audit-mutation"].Actions, 3)

	// Replacement swaps the full set.
	require.NoError(t, policies.Replace(ctx, org.OrgID, nil))

	list, err = policies.ListByOrganization(ctx, org.OrgID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestIntegration_SessionStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	sessions := NewSessionStore(pool)
	org := createTestOrganization(t, ctx, orgs, "sessions-org")
	scope := models.NewTenantScope(org, "api", "")

	now := time.Now().Truncate(time.Millisecond)
	record := &models.UserSession{
		SessionID:    uuid.Must(uuid.NewV7()),
		UserID:       uuid.Must(uuid.NewV7()),
		Token:        "session-token-1",
		Status:       models.SessionStatusActive,
		IPAddress:    "10.0.0.1",
		UserAgent:    "integration-test",
		StartedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
		LastAccessAt: now,
		Metadata: models.SessionMetadata{
			ActiveOrgID:        org.OrgID,
			DataResidency:      org.DataResidency,
			DataClassification: org.DataClassification,
		},
	}

	t.Run("create and get", func(t *testing.T) {
		require.NoError(t, sessions.Create(ctx, scope, record))

		got, err := sessions.GetByToken(ctx, scope, "session-token-1")
		require.NoError(t, err)
		require.Equal(t, record.SessionID, got.SessionID)
		require.Equal(t, "10.0.0.1", got.IPAddress)
		require.Equal(t, org.OrgID, got.Metadata.ActiveOrgID)
		require.Equal(t, models.ResidencyEU, got.Metadata.DataResidency)
	})

	t.Run("scoped by tenant", func(t *testing.T) {
		other := createTestOrganization(t, ctx, orgs, "other-org")
		otherScope := models.NewTenantScope(other, "api", "")

		_, err := sessions.GetByToken(ctx, otherScope, "session-token-1")
		require.ErrorIs(t, err, store.ErrSessionNotFound)
	})

	t.Run("update", func(t *testing.T) {
		record.IPAddress = "10.0.0.2"
		record.LastAccessAt = now.Add(time.Minute)
		require.NoError(t, sessions.Update(ctx, scope, record))

		got, err := sessions.GetByToken(ctx, scope, "session-token-1")
		require.NoError(t, err)
		require.Equal(t, "10.0.0.2", got.IPAddress)
	})

	t.Run("invalidate", func(t *testing.T) {
		require.NoError(t, sessions.Invalidate(ctx, scope, "session-token-1", models.SessionStatusRevoked, time.Now()))

		got, err := sessions.GetByToken(ctx, scope, "session-token-1")
		require.NoError(t, err)
		require.Equal(t, models.SessionStatusRevoked, got.Status)
		require.NotNil(t, got.RevokedAt)

		require.ErrorIs(t, sessions.Invalidate(ctx, scope, "no-such-token", models.SessionStatusRevoked, time.Now()),
			store.ErrSessionNotFound)
	})

	t.Run("expire before", func(t *testing.T) {
		stale := &models.UserSession{
			SessionID:    uuid.Must(uuid.NewV7()),
			UserID:       uuid.Must(uuid.NewV7()),
			Token:        "stale-token",
			Status:       models.SessionStatusActive,
			StartedAt:    now.Add(-2 * time.Hour),
			ExpiresAt:    now.Add(-time.Hour),
			LastAccessAt: now.Add(-time.Hour),
		}
		require.NoError(t, sessions.Create(ctx, scope, stale))

		count, err := sessions.ExpireBefore(ctx, time.Now())
		require.NoError(t, err)
		require.Equal(t, 1, count)

		got, err := sessions.GetByToken(ctx, scope, "stale-token")
		require.NoError(t, err)
		require.Equal(t, models.SessionStatusExpired, got.Status)
	})
}

func TestIntegration_SettingsAndProfiles(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	settings := NewSettingsStore(pool)
	employees := NewEmployeeStore(pool)
	accounts := NewAccountStore(pool)
	org := createTestOrganization(t, ctx, orgs, "settings-org")
	scope := models.NewTenantScope(org, "api", "")

	t.Run("settings", func(t *testing.T) {
		_, err := settings.Get(ctx, org.OrgID)
		require.ErrorIs(t, err, store.ErrSettingsNotFound)

		require.NoError(t, settings.Put(ctx, &models.OrgSecuritySettings{
			OrgID:                 org.OrgID,
			SessionTimeoutMinutes: 60,
			MFARequired:           true,
			IPAllowlistEnabled:    true,
			IPAllowlist:           []string{"10.0.0.1", "10.0.0.2"},
		}))

		got, err := settings.Get(ctx, org.OrgID)
		require.NoError(t, err)
		require.Equal(t, 60, got.SessionTimeoutMinutes)
		require.True(t, got.MFARequired)
		require.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, got.IPAllowlist)
	})

	t.Run("employee profile", func(t *testing.T) {
		userID := uuid.Must(uuid.NewV7())

		_, err := employees.GetByUser(ctx, scope, userID)
		require.ErrorIs(t, err, store.ErrProfileNotFound)

		require.NoError(t, employees.Put(ctx, &models.EmployeeProfile{
			ProfileID: uuid.Must(uuid.NewV7()),
			OrgID:     org.OrgID,
			UserID:    userID,
			FirstName: "Grace",
			LastName:  "Hopper",
			Email:     "grace@example.com",
		}))

		got, err := employees.GetByUser(ctx, scope, userID)
		require.NoError(t, err)
		require.Equal(t, "Grace", got.FirstName)
	})

	t.Run("account password flag", func(t *testing.T) {
		userID := uuid.Must(uuid.NewV7())

		has, err := accounts.HasCredentialPassword(ctx, userID)
		require.NoError(t, err)
		require.False(t, has, "unknown accounts report no password")

		require.NoError(t, accounts.SetPassword(ctx, userID, true))

		has, err = accounts.HasCredentialPassword(ctx, userID)
		require.NoError(t, err)
		require.True(t, has)
	})
}

func TestIntegration_EventStores(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresPool(t, ctx)
	defer cleanup()

	orgs := NewOrganizationStore(pool)
	events := NewSecurityEventStore(pool)
	auditlog := NewAuditStore(pool)
	org := createTestOrganization(t, ctx, orgs, "events-org")

	require.NoError(t, events.LogEvent(ctx, &models.SecurityEvent{
		EventID:     uuid.Must(uuid.NewV7()),
		OrgID:       org.OrgID,
		UserID:      uuid.Must(uuid.NewV7()),
		EventType:   "access_denied",
		Severity:    models.SeverityMedium,
		Description: "missing manage on org.roles",
		IPAddress:   "10.0.0.1",
		Metadata:    map[string]string{"reason": "forbidden"},
		CreatedAt:   time.Now(),
	}))

	require.NoError(t, auditlog.RecordEvent(ctx, &models.AuditEvent{
		EventID:       uuid.Must(uuid.NewV7()),
		OrgID:         org.OrgID,
		UserID:        uuid.Must(uuid.NewV7()),
		Action:        "role.create",
		Resource:      "org.roles",
		CorrelationID: uuid.Must(uuid.NewV7()).String(),
		AuditSource:   "admin",
		Metadata:      map[string]string{"role_key": "auditor"},
		CreatedAt:     time.Now(),
	}))
}
