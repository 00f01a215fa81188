package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tenantguard/internal/models"
)

func TestComputeSetupState(t *testing.T) {
	named := &models.EmployeeProfile{FirstName: "Ada", LastName: "Lovelace"}

	tests := []struct {
		name        string
		hasPassword bool
		profile     *models.EmployeeProfile
		roleKey     string
		want        SetupState
	}{
		{
			name:        "fully set up",
			hasPassword: true,
			profile:     named,
			roleKey:     models.RoleKeyEmployee,
			want:        SetupState{IsReady: true},
		},
		{
			name:    "missing password",
			profile: named,
			roleKey: models.RoleKeyEmployee,
			want:    SetupState{RequiresPasswordSetup: true},
		},
		{
			name:        "missing profile",
			hasPassword: true,
			roleKey:     models.RoleKeyEmployee,
			want: SetupState{
				RequiresProfileSetup: true,
				MissingProfileFields: []string{"firstName", "lastName"},
			},
		},
		{
			name:        "blank names after trimming",
			hasPassword: true,
			profile:     &models.EmployeeProfile{FirstName: "  ", LastName: "\t"},
			roleKey:     models.RoleKeyEmployee,
			want: SetupState{
				RequiresProfileSetup: true,
				MissingProfileFields: []string{"firstName", "lastName"},
			},
		},
		{
			name:        "one name field is enough",
			hasPassword: true,
			profile:     &models.EmployeeProfile{FirstName: "Ada"},
			roleKey:     models.RoleKeyEmployee,
			want:        SetupState{IsReady: true},
		},
		{
			name:        "platform admin needs no profile",
			hasPassword: true,
			roleKey:     models.RoleKeyPlatformAdmin,
			want:        SetupState{IsReady: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeSetupState(tt.hasPassword, tt.profile, tt.roleKey))
		})
	}
}

func TestEnforceSetupGate(t *testing.T) {
	passwordPending := SetupState{RequiresPasswordSetup: true}
	profilePending := SetupState{
		RequiresProfileSetup: true,
		MissingProfileFields: []string{"firstName"},
	}

	tests := []struct {
		name  string
		state SetupState
		path  string
		want  Reason
	}{
		{name: "ready state passes everywhere", state: SetupState{IsReady: true}, path: "/dashboard", want: ""},
		{name: "password pending blocks the app", state: passwordPending, path: "/dashboard", want: ReasonPasswordSetupRequired},
		{name: "password setup path allowed", state: passwordPending, path: "/setup/password", want: ""},
		{name: "logout always allowed", state: passwordPending, path: "/auth/logout", want: ""},
		{name: "profile pending blocks the app", state: profilePending, path: "/hr/leave", want: ReasonProfileSetupRequired},
		{name: "profile setup path allowed", state: profilePending, path: "/setup/profile", want: ""},
		{name: "hr profile page allowed", state: profilePending, path: "/hr/profile", want: ""},
		{name: "query string is stripped before matching", state: passwordPending, path: "/setup/password?step=2", want: ""},
		{name: "fragment is stripped before matching", state: profilePending, path: "/hr/profile#name", want: ""},
		{name: "non-absolute path skips the gate", state: passwordPending, path: "dashboard", want: ""},
		{name: "empty path skips the gate", state: passwordPending, path: "", want: ""},
		{name: "password is checked before profile", state: SetupState{RequiresPasswordSetup: true, RequiresProfileSetup: true}, path: "/dashboard", want: ReasonPasswordSetupRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnforceSetupGate(tt.state, tt.path)
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.want, ReasonOf(err))
		})
	}
}

func TestEnforceSetupGateReportsMissingFields(t *testing.T) {
	state := SetupState{
		RequiresProfileSetup: true,
		MissingProfileFields: []string{"lastName"},
	}

	err := EnforceSetupGate(state, "/dashboard")
	var authzErr *Error
	require.ErrorAs(t, err, &authzErr)
	require.Equal(t, []string{"lastName"}, authzErr.MissingFields)
}

func TestNormalizePath(t *testing.T) {
	path, ok := NormalizePath("/a/b?x=1#frag")
	require.True(t, ok)
	require.Equal(t, "/a/b", path)

	_, ok = NormalizePath("relative/path")
	require.False(t, ok)

	_, ok = NormalizePath("")
	require.False(t, ok)
}
