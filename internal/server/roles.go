package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/audit"
	"github.com/wolfeidau/tenantguard/internal/authz"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// roleResponse is the wire shape of a role template.
type roleResponse struct {
	RoleID          uuid.UUID            `json:"role_id"`
	Key             string               `json:"key"`
	Name            string               `json:"name"`
	Scope           models.RoleScope     `json:"scope"`
	Permissions     models.PermissionMap `json:"permissions"`
	InheritsRoleIDs []uuid.UUID          `json:"inherits_role_ids,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toRoleResponse(role *models.RoleTemplate) roleResponse {
	return roleResponse{
		RoleID:          role.RoleID,
		Key:             role.Key,
		Name:            role.Name,
		Scope:           role.Scope,
		Permissions:     role.Permissions,
		InheritsRoleIDs: role.InheritsRoleIDs,
		CreatedAt:       role.CreatedAt,
		UpdatedAt:       role.UpdatedAt,
	}
}

type roleRequest struct {
	Key             string               `json:"key"`
	Name            string               `json:"name"`
	Permissions     models.PermissionMap `json:"permissions"`
	InheritsRoleIDs []uuid.UUID          `json:"inherits_role_ids"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	roles, err := s.roles.ListByOrganization(r.Context(), actx.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list roles")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}

	writeJSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := &models.RoleTemplate{
		RoleID:          uuid.Must(uuid.NewV7()),
		OrgID:           actx.OrgID,
		Key:             req.Key,
		Name:            req.Name,
		Scope:           models.RoleScopeOrg,
		Permissions:     req.Permissions,
		InheritsRoleIDs: req.InheritsRoleIDs,
	}

	if err := s.roles.Create(r.Context(), role); err != nil {
		switch {
		case errors.Is(err, store.ErrRoleAlreadyExists):
			writeError(w, http.StatusConflict, "role key already exists")
		case errors.Is(err, models.ErrUnknownResource), errors.Is(err, models.ErrUnknownAction):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to create role")
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	s.recordAudit(r, actx, "role.create", string(models.ResourceOrgRoles), map[string]string{
		"role_id":  role.RoleID.String(),
		"role_key": role.Key,
	})

	writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actx, ok := authz.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	roleID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid role id")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := s.roles.Get(r.Context(), actx.OrgID, roleID)
	if err != nil {
		if errors.Is(err, store.ErrRoleNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get role")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Global roles are platform-owned and immutable through the tenant API.
	if existing.Scope == models.RoleScopeGlobal {
		writeError(w, http.StatusForbidden, "global roles cannot be modified")
		return
	}

	existing.Name = req.Name
	existing.Permissions = req.Permissions
	existing.InheritsRoleIDs = req.InheritsRoleIDs

	if err := s.roles.Update(r.Context(), existing); err != nil {
		switch {
		case errors.Is(err, store.ErrRoleNotFound):
			writeError(w, http.StatusNotFound, "role not found")
		case errors.Is(err, models.ErrUnknownResource), errors.Is(err, models.ErrUnknownAction):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to update role")
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	s.recordAudit(r, actx, "role.update", string(models.ResourceOrgRoles), map[string]string{
		"role_id":  existing.RoleID.String(),
		"role_key": existing.Key,
	})

	writeJSON(w, http.StatusOK, toRoleResponse(existing))
}

// recordAudit writes an audit event for a successful mutation. Best-effort;
// the mutation has already committed.
func (s *Server) recordAudit(r *http.Request, actx *authz.AuthorizationContext, action, resource string, metadata map[string]string) {
	if s.audit == nil {
		return
	}

	err := s.audit.RecordEvent(r.Context(), &models.AuditEvent{
		EventID:       uuid.Must(uuid.NewV7()),
		OrgID:         actx.OrgID,
		UserID:        actx.UserID,
		Action:        action,
		Resource:      resource,
		CorrelationID: actx.CorrelationID,
		AuditSource:   audit.SourceAdmin,
		AuditBatchID:  actx.AuditBatchID,
		Metadata:      metadata,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to record audit event")
	}
}
