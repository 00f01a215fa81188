// Package server exposes the admin HTTP API: role and policy management,
// session revocation, tenant provisioning, and the login flow. Every route
// except health and login resolves an authorization context through the
// middleware before the handler runs.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/tenantguard/internal/audit"
	"github.com/wolfeidau/tenantguard/internal/authz"
	"github.com/wolfeidau/tenantguard/internal/bootstrap"
	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// Server wraps the admin API handlers and their collaborators.
type Server struct {
	resolver  *authz.Resolver
	identity  identity.Provider
	roles     store.RoleStore
	policies  store.PolicyStore
	audit     store.AuditStore
	bootstrap bootstrap.Config

	// login is optional; without it the /auth routes are not mounted.
	login *identity.Login
}

// Config wires the server's collaborators.
type Config struct {
	Resolver  *authz.Resolver
	Identity  identity.Provider
	Roles     store.RoleStore
	Policies  store.PolicyStore
	Audit     store.AuditStore
	Bootstrap bootstrap.Config
	Login     *identity.Login
}

// NewServer creates a new admin API server.
func NewServer(cfg Config) *Server {
	return &Server{
		resolver:  cfg.Resolver,
		identity:  cfg.Identity,
		roles:     cfg.Roles,
		policies:  cfg.Policies,
		audit:     cfg.Audit,
		bootstrap: cfg.Bootstrap,
		login:     cfg.Login,
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if s.login != nil {
		mux.HandleFunc("GET /auth/login", s.login.HandleLogin)
		mux.HandleFunc("GET /auth/callback", s.login.HandleCallback)
	}

	mux.Handle("GET /v1/roles", s.guarded(s.handleListRoles,
		models.ResourceOrgRoles, models.ActionRead,
		models.PermissionMap{models.ResourceOrgRoles: {models.ActionRead}}))
	mux.Handle("POST /v1/roles", s.guarded(s.handleCreateRole,
		models.ResourceOrgRoles, models.ActionManage,
		models.PermissionMap{models.ResourceOrgRoles: {models.ActionManage}}))
	mux.Handle("PUT /v1/roles/{id}", s.guarded(s.handleUpdateRole,
		models.ResourceOrgRoles, models.ActionManage,
		models.PermissionMap{models.ResourceOrgRoles: {models.ActionManage}}))

	mux.Handle("GET /v1/policies", s.guarded(s.handleListPolicies,
		models.ResourceOrgPolicies, models.ActionRead,
		models.PermissionMap{models.ResourceOrgPolicies: {models.ActionRead}}))
	mux.Handle("PUT /v1/policies", s.guarded(s.handleReplacePolicies,
		models.ResourceOrgPolicies, models.ActionManage,
		models.PermissionMap{models.ResourceOrgPolicies: {models.ActionManage}}))

	// Revocation authorizes inside the resolver: revoking your own session
	// needs no permission, revoking another's needs org.sessions:manage.
	mux.HandleFunc("POST /v1/sessions/revoke", s.handleRevokeSession)
	mux.HandleFunc("POST /v1/session/org", s.handleSwitchOrganization)

	mux.Handle("POST /v1/tenants", s.guarded(s.handleBootstrapTenant,
		models.ResourceOrgSettings, models.ActionManage,
		models.PermissionMap{models.ResourceOrgSettings: {models.ActionManage}}))

	return mux
}

// guarded wraps a handler with the authorization middleware for one route.
func (s *Server) guarded(h http.HandlerFunc, resource models.Resource, action models.Action, required models.PermissionMap) http.Handler {
	mw := authz.Middleware(s.resolver,
		authz.WithAuditSource(audit.SourceAdmin),
		authz.WithOperation(resource, action),
		authz.WithRequiredPermissions(required),
	)
	return mw(h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
