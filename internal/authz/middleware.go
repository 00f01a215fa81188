package authz

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/audit"
	httpmiddleware "github.com/wolfeidau/tenantguard/internal/httpmiddleware"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// MiddlewareOption customises the per-route access request.
type MiddlewareOption func(*AccessRequest)

// WithRequiredPermissions sets the permissions every request through this
// route must hold.
func WithRequiredPermissions(pm models.PermissionMap) MiddlewareOption {
	return func(req *AccessRequest) {
		req.RequiredPermissions = pm
	}
}

// WithOperation tags the route's resource/action pair for the ABAC overlay.
func WithOperation(resource models.Resource, action models.Action) MiddlewareOption {
	return func(req *AccessRequest) {
		req.Resource = resource
		req.Action = action
	}
}

// WithAuditSource overrides the default audit source for the route.
func WithAuditSource(source string) MiddlewareOption {
	return func(req *AccessRequest) {
		req.AuditSource = source
	}
}

// Middleware resolves the authorization context for every request and injects
// it into the request context. On failure it writes the generic HTTP error for
// the reason; the reason code itself only goes to logs and security events.
func Middleware(resolver *Resolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := AccessRequest{
				Headers:       r.Header,
				AuditSource:   audit.SourceWeb,
				CorrelationID: r.Header.Get(audit.CorrelationHeader),
				ClientIP:      httpmiddleware.ClientIPFromContext(r.Context()),
				UserAgent:     r.UserAgent(),
				Path:          r.URL.Path,
			}
			for _, opt := range opts {
				opt(&req)
			}

			sctx, err := resolver.GetSessionContext(r.Context(), req)
			if err != nil {
				writeAuthzError(w, err)
				return
			}

			ctx := WithAuthorization(r.Context(), sctx.Authorization)
			ctx = audit.WithCorrelationID(ctx, sctx.Authorization.CorrelationID)

			w.Header().Set(audit.CorrelationHeader, sctx.Authorization.CorrelationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthzError maps a failure reason to the generic HTTP response the
// calling layer shows. Details stay server-side.
func writeAuthzError(w http.ResponseWriter, err error) {
	reason := ReasonOf(err)

	status := http.StatusForbidden
	message := "Forbidden"
	switch reason {
	case ReasonUnauthenticated, ReasonSessionExpired:
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case ReasonPasswordSetupRequired, ReasonProfileSetupRequired:
		status = http.StatusConflict
		message = "Setup Required"
	case "":
		log.Error().Err(err).Msg("Authorization resolution failed")
		status = http.StatusInternalServerError
		message = "Internal Server Error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]string{"error": message}
	if reason != "" {
		body["reason"] = string(reason)
	}
	_ = json.NewEncoder(w).Encode(body)
}
