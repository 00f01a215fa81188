package authz

import (
	"strings"

	"github.com/wolfeidau/tenantguard/internal/models"
)

// SetupState is the derived (never persisted) workspace setup state for the
// acting subject.
type SetupState struct {
	RequiresPasswordSetup bool
	RequiresProfileSetup  bool
	MissingProfileFields  []string
	IsReady               bool
}

// Default path prefixes a user may visit while setup is incomplete.
var (
	PasswordSetupPrefixes = []string{"/setup/password", "/auth/logout"}
	ProfileSetupPrefixes  = []string{"/setup/profile", "/hr/profile", "/auth/logout"}
)

// ComputeSetupState derives the setup state from credential and profile
// lookups. The profile requirement only applies to non-platform-admin roles;
// a profile is incomplete when missing or when both name fields are blank
// after trimming.
func ComputeSetupState(hasPassword bool, profile *models.EmployeeProfile, roleKey string) SetupState {
	state := SetupState{
		RequiresPasswordSetup: !hasPassword,
	}

	if roleKey != models.RoleKeyPlatformAdmin {
		switch {
		case profile == nil:
			state.RequiresProfileSetup = true
			state.MissingProfileFields = []string{"firstName", "lastName"}
		case !profile.IsNamed():
			state.RequiresProfileSetup = true
			state.MissingProfileFields = missingNameFields(profile)
		}
	}

	state.IsReady = !state.RequiresPasswordSetup && !state.RequiresProfileSetup
	return state
}

// EnforceSetupGate blocks requests outside the allowlisted setup paths while
// mandatory setup is incomplete. Password setup is checked before profile
// setup. A path that cannot be normalized skips the gate entirely: without a
// known path there is nothing to allowlist against.
func EnforceSetupGate(state SetupState, path string) error {
	normalized, ok := NormalizePath(path)
	if !ok {
		return nil
	}

	if state.RequiresPasswordSetup && !hasAnyPrefix(normalized, PasswordSetupPrefixes) {
		return errPasswordSetupRequired()
	}

	if state.RequiresProfileSetup && !hasAnyPrefix(normalized, ProfileSetupPrefixes) {
		return errProfileSetupRequired(state.MissingProfileFields)
	}

	return nil
}

// NormalizePath strips query and fragment and requires an absolute path.
func NormalizePath(path string) (string, bool) {
	if !strings.HasPrefix(path, "/") {
		return "", false
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path, true
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func missingNameFields(profile *models.EmployeeProfile) []string {
	var missing []string
	if strings.TrimSpace(profile.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(profile.LastName) == "" {
		missing = append(missing, "lastName")
	}
	return missing
}
