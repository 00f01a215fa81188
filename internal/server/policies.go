package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/authz"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// policyResponse is the wire shape of an ABAC policy.
type policyResponse struct {
	PolicyID  uuid.UUID           `json:"policy_id"`
	Name      string              `json:"name"`
	Effect    models.PolicyEffect `json:"effect"`
	Resource  models.Resource     `json:"resource,omitempty"`
	Actions   []models.Action     `json:"actions,omitempty"`
	Match     map[string]string   `json:"match,omitempty"`
	Enabled   bool                `json:"enabled"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type policyRequest struct {
	Name     string              `json:"name"`
	Effect   models.PolicyEffect `json:"effect"`
	Resource models.Resource     `json:"resource"`
	Actions  []models.Action     `json:"actions"`
	Match    map[string]string   `json:"match"`
	Enabled  *bool               `json:"enabled"`
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	policies, err := s.policies.ListByOrganization(r.Context(), actx.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list policies")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	out := make([]policyResponse, 0, len(policies))
	for _, policy := range policies {
		out = append(out, policyResponse{
			PolicyID:  policy.PolicyID,
			Name:      policy.Name,
			Effect:    policy.Effect,
			Resource:  policy.Resource,
			Actions:   policy.Actions,
			Match:     policy.Match,
			Enabled:   policy.Enabled,
			CreatedAt: policy.CreatedAt,
			UpdatedAt: policy.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"policies": out})
}

// handleReplacePolicies swaps the tenant's full policy set. Partial updates
// are deliberately unsupported; the full set is the unit of review.
func (s *Server) handleReplacePolicies(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Policies []policyRequest `json:"policies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	policies := make([]*models.AbacPolicy, 0, len(req.Policies))
	for _, spec := range req.Policies {
		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}

		policy := &models.AbacPolicy{
			PolicyID: uuid.Must(uuid.NewV7()),
			OrgID:    actx.OrgID,
			Name:     spec.Name,
			Effect:   spec.Effect,
			Resource: spec.Resource,
			Actions:  spec.Actions,
			Match:    spec.Match,
			Enabled:  enabled,
		}

		if err := policy.Validate(); err != nil {
			if errors.Is(err, models.ErrUnknownResource) ||
				errors.Is(err, models.ErrUnknownAction) ||
				errors.Is(err, models.ErrUnknownEffect) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		policies = append(policies, policy)
	}

	if err := s.policies.Replace(r.Context(), actx.OrgID, policies); err != nil {
		log.Error().Err(err).Msg("Failed to replace policies")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.recordAudit(r, actx, "policy.replace", string(models.ResourceOrgPolicies), map[string]string{
		"count": strconv.Itoa(len(policies)),
	})

	writeJSON(w, http.StatusOK, map[string]any{"count": len(policies)})
}
