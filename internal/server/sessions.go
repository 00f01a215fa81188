package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/audit"
	"github.com/wolfeidau/tenantguard/internal/authz"
	httpmiddleware "github.com/wolfeidau/tenantguard/internal/httpmiddleware"
	"github.com/wolfeidau/tenantguard/internal/identity"
)

// handleRevokeSession revokes a session token. The resolver enforces the
// permission rules: an empty token revokes the caller's own session, a
// non-empty token requires org.sessions:manage.
func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string    `json:"token"`
		OrgID  uuid.UUID `json:"org_id"`
		Reason string    `json:"reason"`
	}
	if r.Body != nil {
		// An empty body is a self-revocation.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := s.resolver.RevokeSession(r.Context(), authz.RevokeSessionInput{
		Headers:       r.Header,
		OrgID:         req.OrgID,
		Token:         req.Token,
		Reason:        req.Reason,
		ClientIP:      httpmiddleware.ClientIPFromContext(r.Context()),
		UserAgent:     r.UserAgent(),
		CorrelationID: r.Header.Get(audit.CorrelationHeader),
	})
	if err != nil {
		writeAuthzFailure(w, err)
		return
	}

	w.Header().Set(audit.CorrelationHeader, result.Authorization.CorrelationID)

	// Self-revocation also clears the cookie.
	if req.Token == "" {
		http.SetCookie(w, &http.Cookie{
			Name:     identity.SessionCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Unix(0, 0),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
}

// handleSwitchOrganization re-issues the caller's session bound to a
// different active organization. The new organization's membership is
// enforced on the next resolved request.
func (s *Server) handleSwitchOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrgID uuid.UUID `json:"org_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrgID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "org_id is required")
		return
	}

	session, err := s.identity.GetSession(r.Context(), r.Header)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := s.identity.SetActiveOrganization(r.Context(), session.Token, req.OrgID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to switch active organization")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     identity.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
	})

	writeJSON(w, http.StatusOK, map[string]any{"token": token})
}

// writeAuthzFailure maps resolver errors the same way the middleware does.
func writeAuthzFailure(w http.ResponseWriter, err error) {
	reason := authz.ReasonOf(err)

	status := http.StatusForbidden
	message := "Forbidden"
	switch reason {
	case authz.ReasonUnauthenticated, authz.ReasonSessionExpired:
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case authz.ReasonPasswordSetupRequired, authz.ReasonProfileSetupRequired:
		status = http.StatusConflict
		message = "Setup Required"
	case "":
		log.Error().Err(err).Msg("Session revocation failed")
		status = http.StatusInternalServerError
		message = "Internal Server Error"
	}

	writeError(w, status, message)
}
