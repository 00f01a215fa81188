package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/authz"
	"github.com/wolfeidau/tenantguard/internal/bootstrap"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// handleBootstrapTenant provisions a new tenant. Only global-scope roles may
// create tenants; the route's permission guard alone is not enough because
// tenant owners also hold org.settings:manage within their own org.
func (s *Server) handleBootstrapTenant(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if actx.RoleScope != models.RoleScopeGlobal {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	var req struct {
		Name               string    `json:"name"`
		Slug               string    `json:"slug"`
		DataResidency      string    `json:"data_residency"`
		DataClassification string    `json:"data_classification"`
		OwnerUserID        uuid.UUID `json:"owner_user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := bootstrap.Bootstrap(r.Context(), s.bootstrap, bootstrap.TenantInput{
		Name:               req.Name,
		Slug:               req.Slug,
		DataResidency:      models.DataResidency(req.DataResidency),
		DataClassification: models.DataClassification(req.DataClassification),
		OwnerUserID:        req.OwnerUserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			writeError(w, http.StatusConflict, "organization already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to bootstrap tenant")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.recordAudit(r, actx, "tenant.bootstrap", "organization", map[string]string{
		"org_id": tenant.Organization.OrgID.String(),
		"slug":   tenant.Organization.Slug,
	})

	roleIDs := make(map[string]uuid.UUID, len(tenant.RolesByKey))
	for key, role := range tenant.RolesByKey {
		roleIDs[key] = role.RoleID
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"org_id": tenant.Organization.OrgID,
		"slug":   tenant.Organization.Slug,
		"roles":  roleIDs,
	})
}
