package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/models"
)

func TestEnforceSessionSecurityIdleTimeout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	settings := &models.OrgSecuritySettings{SessionTimeoutMinutes: 30}

	// Exactly at the boundary is still active.
	session := &identity.Session{UpdatedAt: now.Add(-30 * time.Minute)}
	require.NoError(t, EnforceSessionSecurity(session, settings, "", now))

	// One second past the boundary expires.
	session = &identity.Session{UpdatedAt: now.Add(-30*time.Minute - time.Second)}
	err := EnforceSessionSecurity(session, settings, "", now)
	require.Equal(t, ReasonSessionExpired, ReasonOf(err))

	var authzErr *Error
	require.ErrorAs(t, err, &authzErr)
	require.Equal(t, PolicyIdleTimeout, authzErr.Policy)
}

func TestEnforceSessionSecurityDefaultTimeout(t *testing.T) {
	now := time.Now()
	settings := &models.OrgSecuritySettings{} // no explicit timeout

	session := &identity.Session{UpdatedAt: now.Add(-7 * time.Hour)}
	require.NoError(t, EnforceSessionSecurity(session, settings, "", now), "under the 480 minute default")

	session = &identity.Session{UpdatedAt: now.Add(-9 * time.Hour)}
	err := EnforceSessionSecurity(session, settings, "", now)
	require.Equal(t, ReasonSessionExpired, ReasonOf(err))
}

func TestEnforceSessionSecurityFallsBackToCreatedAt(t *testing.T) {
	now := time.Now()
	settings := &models.OrgSecuritySettings{SessionTimeoutMinutes: 30}

	// No UpdatedAt; CreatedAt anchors the idle window.
	session := &identity.Session{CreatedAt: now.Add(-time.Hour)}
	err := EnforceSessionSecurity(session, settings, "", now)
	require.Equal(t, ReasonSessionExpired, ReasonOf(err))
}

func TestEnforceSessionSecurityMFA(t *testing.T) {
	now := time.Now()
	settings := &models.OrgSecuritySettings{MFARequired: true}

	session := &identity.Session{UpdatedAt: now, MFAVerified: false}
	err := EnforceSessionSecurity(session, settings, "", now)
	require.Equal(t, ReasonMFARequired, ReasonOf(err))

	session.MFAVerified = true
	require.NoError(t, EnforceSessionSecurity(session, settings, "", now))
}

func TestEnforceSessionSecurityIPAllowlist(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		settings  *models.OrgSecuritySettings
		requestIP string
		sessionIP string
		want      Reason
	}{
		{
			name: "request ip allowlisted",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
				IPAllowlist:        []string{"10.0.0.1", "10.0.0.2"},
			},
			requestIP: "10.0.0.2",
			want:      "",
		},
		{
			name: "allowlist entries are trimmed before comparison",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
				IPAllowlist:        []string{" 10.0.0.1 "},
			},
			requestIP: "10.0.0.1",
			want:      "",
		},
		{
			name: "falls back to session ip when request ip missing",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
				IPAllowlist:        []string{"10.0.0.1"},
			},
			sessionIP: "10.0.0.1",
			want:      "",
		},
		{
			name: "no resolvable ip fails closed",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
				IPAllowlist:        []string{"10.0.0.1"},
			},
			want: ReasonIPRequired,
		},
		{
			name: "ip not in allowlist",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
				IPAllowlist:        []string{"10.0.0.1"},
			},
			requestIP: "192.168.1.5",
			want:      ReasonIPNotAllowlisted,
		},
		{
			name: "enabled flag with empty list is a no-op",
			settings: &models.OrgSecuritySettings{
				IPAllowlistEnabled: true,
			},
			requestIP: "192.168.1.5",
			want:      "",
		},
		{
			name: "disabled allowlist ignores entries",
			settings: &models.OrgSecuritySettings{
				IPAllowlist: []string{"10.0.0.1"},
			},
			requestIP: "192.168.1.5",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &identity.Session{UpdatedAt: now, IPAddress: tt.sessionIP}
			err := EnforceSessionSecurity(session, tt.settings, tt.requestIP, now)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.want, ReasonOf(err))
		})
	}
}

func TestEnforceSessionSecurityCheckOrder(t *testing.T) {
	now := time.Now()

	// All three checks would fail; the idle timeout is reported because it
	// runs first.
	settings := &models.OrgSecuritySettings{
		SessionTimeoutMinutes: 30,
		MFARequired:           true,
		IPAllowlistEnabled:    true,
		IPAllowlist:           []string{"10.0.0.1"},
	}
	session := &identity.Session{UpdatedAt: now.Add(-time.Hour)}

	err := EnforceSessionSecurity(session, settings, "192.168.1.5", now)
	require.Equal(t, ReasonSessionExpired, ReasonOf(err))
}
