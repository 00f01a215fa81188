package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/wolfeidau/tenantguard/internal/audit"
	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/securityevent"
	"github.com/wolfeidau/tenantguard/internal/store"
)

// syncSession idempotently mirrors the external session into tenant-scoped
// storage: created on first observation of the token for this tenant, updated
// on every subsequent validated request. Observability fields (IP, UA,
// last-access) are last-writer-wins; they are not authorization-critical.
func (r *Resolver) syncSession(ctx context.Context, scope models.TenantScope, session *identity.Session, req AccessRequest) error {
	now := r.now()

	metadata := models.SessionMetadata{
		ActiveOrgID:        scope.OrgID(),
		DataResidency:      scope.DataResidency(),
		DataClassification: scope.DataClassification(),
	}

	record, err := r.cfg.Sessions.GetByToken(ctx, scope, session.Token)
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		sessionID := session.SessionID
		if sessionID == uuid.Nil {
			sessionID = uuid.Must(uuid.NewV7())
		}
		record = &models.UserSession{
			SessionID:    sessionID,
			OrgID:        scope.OrgID(),
			UserID:       session.UserID,
			Token:        session.Token,
			Status:       models.SessionStatusActive,
			IPAddress:    coalesce(req.ClientIP, session.IPAddress),
			UserAgent:    coalesce(req.UserAgent, session.UserAgent),
			StartedAt:    session.CreatedAt,
			ExpiresAt:    session.ExpiresAt,
			LastAccessAt: now,
			Metadata:     metadata,
		}
		if err := r.cfg.Sessions.Create(ctx, scope, record); err != nil {
			return fmt.Errorf("failed to create session record: %w", err)
		}

	case err != nil:
		return fmt.Errorf("failed to load session record: %w", err)

	default:
		record.Status = models.SessionStatusActive
		record.IPAddress = coalesce(req.ClientIP, record.IPAddress)
		record.UserAgent = coalesce(req.UserAgent, record.UserAgent)
		record.ExpiresAt = session.ExpiresAt
		record.LastAccessAt = now
		record.Metadata = metadata
		if err := r.cfg.Sessions.Update(ctx, scope, record); err != nil {
			return fmt.Errorf("failed to update session record: %w", err)
		}
	}

	r.metrics.SessionsSyncedTotal.Add(ctx, 1)
	return nil
}

// RevokeSessionInput identifies the session to revoke. An empty Token revokes
// the caller's own session (logout).
type RevokeSessionInput struct {
	Headers       http.Header
	OrgID         uuid.UUID
	Token         string
	Reason        string
	ClientIP      string
	UserAgent     string
	CorrelationID string
}

// RevokeSessionResult reports the outcome along with the authorization that
// permitted it.
type RevokeSessionResult struct {
	Success       bool
	Authorization *AuthorizationContext
}

// RevokeSession revokes a session token for the tenant: the external token is
// revoked at the identity provider and the tenant-scoped record transitions
// to revoked. Revoking another user's session requires org.sessions:manage;
// revoking your own does not.
func (r *Resolver) RevokeSession(ctx context.Context, input RevokeSessionInput) (*RevokeSessionResult, error) {
	req := AccessRequest{
		Headers:       input.Headers,
		OrgID:         input.OrgID,
		AuditSource:   audit.SourceAdmin,
		CorrelationID: input.CorrelationID,
		ClientIP:      input.ClientIP,
		UserAgent:     input.UserAgent,
		Action:        models.ActionManage,
		Resource:      models.ResourceOrgSessions,
	}
	if input.Token != "" {
		req.RequiredPermissions = models.PermissionMap{
			models.ResourceOrgSessions: {models.ActionManage},
		}
	}

	sctx, err := r.GetSessionContext(ctx, req)
	if err != nil {
		return nil, err
	}

	token := input.Token
	if token == "" {
		token = sctx.Session.Token
	}
	scope := sctx.Authorization.TenantScope

	if err := r.cfg.Identity.RevokeSession(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to revoke external session: %w", err)
	}

	if err := r.cfg.Sessions.Invalidate(ctx, scope, token, models.SessionStatusRevoked, r.now()); err != nil &&
		!errors.Is(err, store.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to invalidate session record: %w", err)
	}

	r.metrics.SessionsRevokedTotal.Add(ctx, 1)
	r.cfg.Events.Record(ctx, &models.SecurityEvent{
		OrgID:       scope.OrgID(),
		UserID:      sctx.Authorization.UserID,
		EventType:   securityevent.EventSessionRevoked,
		Severity:    models.SeverityLow,
		Description: coalesce(input.Reason, "session revoked"),
		IPAddress:   input.ClientIP,
		UserAgent:   input.UserAgent,
		Metadata: map[string]string{
			"fingerprint":    identity.Fingerprint(token),
			"correlation_id": sctx.Authorization.CorrelationID,
		},
	})

	return &RevokeSessionResult{Success: true, Authorization: sctx.Authorization}, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
