package authz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/audit"
	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/models"
	"github.com/wolfeidau/tenantguard/internal/securityevent"
	"github.com/wolfeidau/tenantguard/internal/store"
	"github.com/wolfeidau/tenantguard/internal/telemetry"
)

// AccessRequest describes one access check: where the credential comes from,
// what must be permitted, and the tenant constraints the caller expects.
type AccessRequest struct {
	// Headers carry the session credential.
	Headers http.Header

	// OrgID overrides the session's active organization when set.
	OrgID uuid.UUID

	// RequiredPermissions must all be present in the effective map.
	RequiredPermissions models.PermissionMap

	// RequiredAnyPermissions passes when at least one alternative set is
	// fully satisfied.
	RequiredAnyPermissions []models.PermissionMap

	// ExpectedResidency/ExpectedClassification, when set, must equal the
	// tenant scope's values exactly.
	ExpectedResidency      models.DataResidency
	ExpectedClassification models.DataClassification

	AuditSource   string
	AuditBatchID  string
	CorrelationID string

	// The concrete operation, used by the ABAC overlay.
	Action             models.Action
	Resource           models.Resource
	ResourceAttributes map[string]string

	// Request observability fields.
	ClientIP  string
	UserAgent string

	// Path enables the workspace setup gate; an empty or non-absolute
	// path skips it.
	Path string
}

// SessionContext pairs the external session with the resolved authorization
// context.
type SessionContext struct {
	Session       *identity.Session
	Authorization *AuthorizationContext
}

// ResolverConfig wires the resolver's collaborators. All stores are required;
// Audit is optional.
type ResolverConfig struct {
	Identity      identity.Provider
	Organizations store.OrganizationStore
	Roles         store.RoleStore
	Memberships   store.MembershipStore
	Policies      store.PolicyStore
	Settings      store.SettingsStore
	Employees     store.EmployeeStore
	Accounts      store.AccountStore
	Sessions      store.SessionStore
	Events        *securityevent.Recorder
	Audit         store.AuditStore
}

// Resolver produces authorization contexts for every domain-service call. It
// holds no per-request state and is safe for concurrent use; role and policy
// records are re-read per request so a stale in-process decision can never
// outlive a privilege change.
type Resolver struct {
	cfg     ResolverConfig
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewResolver creates a resolver, validating that every required collaborator
// is present.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	switch {
	case cfg.Identity == nil:
		return nil, fmt.Errorf("identity provider is required")
	case cfg.Organizations == nil:
		return nil, fmt.Errorf("organization store is required")
	case cfg.Roles == nil:
		return nil, fmt.Errorf("role store is required")
	case cfg.Memberships == nil:
		return nil, fmt.Errorf("membership store is required")
	case cfg.Policies == nil:
		return nil, fmt.Errorf("policy store is required")
	case cfg.Settings == nil:
		return nil, fmt.Errorf("settings store is required")
	case cfg.Employees == nil:
		return nil, fmt.Errorf("employee store is required")
	case cfg.Accounts == nil:
		return nil, fmt.Errorf("account store is required")
	case cfg.Sessions == nil:
		return nil, fmt.Errorf("session store is required")
	case cfg.Events == nil:
		return nil, fmt.Errorf("security event recorder is required")
	}

	return &Resolver{
		cfg:     cfg,
		metrics: telemetry.GetMetrics(),
		now:     time.Now,
	}, nil
}

// GetSessionContext resolves the active session and produces an authorization
// context for the request, enforcing permissions, tenant constraints, session
// security, and the workspace setup gate. Every failure is terminal for the
// current request; nothing here retries.
func (r *Resolver) GetSessionContext(ctx context.Context, req AccessRequest) (*SessionContext, error) {
	started := r.now()
	r.metrics.DecisionsTotal.Add(ctx, 1)
	defer func() {
		r.metrics.DecisionDuration.Record(ctx, float64(time.Since(started).Milliseconds()))
	}()

	session, err := r.cfg.Identity.GetSession(ctx, req.Headers)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) ||
			errors.Is(err, identity.ErrInvalidSession) ||
			errors.Is(err, identity.ErrExpiredSession) {
			r.metrics.RecordDenial(ctx, string(ReasonUnauthenticated))
			return nil, errUnauthenticated()
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	orgID := req.OrgID
	if orgID == uuid.Nil {
		orgID = session.ActiveOrgID
	}
	if orgID == uuid.Nil {
		r.metrics.RecordDenial(ctx, string(ReasonForbidden))
		return nil, &Error{Reason: ReasonForbidden, msg: "no active organization"}
	}

	org, err := r.cfg.Organizations.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			// Deliberately indistinguishable from a permission failure
			// so tenant existence never leaks.
			r.metrics.RecordDenial(ctx, string(ReasonForbidden))
			return nil, &Error{Reason: ReasonForbidden, msg: "organization not accessible"}
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	scope := models.NewTenantScope(org, req.AuditSource, req.AuditBatchID)

	authzCtx, err := r.authorize(ctx, scope, org, session, req)
	if err != nil {
		r.denied(ctx, scope, session, req, err)
		return nil, err
	}

	if err := r.enforceSessionHealth(ctx, scope, session, req, authzCtx); err != nil {
		r.denied(ctx, scope, session, req, err)
		return nil, err
	}

	if err := r.syncSession(ctx, scope, session, req); err != nil {
		return nil, err
	}

	return &SessionContext{Session: session, Authorization: authzCtx}, nil
}

// authorize resolves the membership role, computes effective permissions, and
// checks every permission and tenant constraint of the request.
func (r *Resolver) authorize(ctx context.Context, scope models.TenantScope, org *models.Organization, session *identity.Session, req AccessRequest) (*AuthorizationContext, error) {
	membership, err := r.cfg.Memberships.GetByUser(ctx, org.OrgID, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrMembershipNotFound) {
			return nil, &Error{Reason: ReasonForbidden, msg: "no membership in organization"}
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	roleList, err := r.cfg.Roles.ListByOrganization(ctx, org.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	effective, err := ResolveEffectivePermissions(rolesByID(roleList), membership.RoleID)
	if err != nil {
		return nil, err
	}

	policies, err := r.cfg.Policies.ListByOrganization(ctx, org.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	effective = ApplyPolicies(effective, policies, PolicyRequest{
		Resource:   req.Resource,
		Action:     req.Action,
		Attributes: req.ResourceAttributes,
	})

	if ok, resource, action := effective.Includes(req.RequiredPermissions); !ok {
		return nil, errForbidden(resource, action)
	}

	if len(req.RequiredAnyPermissions) > 0 {
		satisfied := false
		var firstResource models.Resource
		var firstAction models.Action
		for i, alternative := range req.RequiredAnyPermissions {
			ok, resource, action := effective.Includes(alternative)
			if ok {
				satisfied = true
				break
			}
			if i == 0 {
				firstResource, firstAction = resource, action
			}
		}
		if !satisfied {
			return nil, errForbidden(firstResource, firstAction)
		}
	}

	if req.ExpectedResidency != "" && req.ExpectedResidency != scope.DataResidency() {
		return nil, errResidencyMismatch(req.ExpectedResidency, scope.DataResidency())
	}
	if req.ExpectedClassification != "" && req.ExpectedClassification != scope.DataClassification() {
		return nil, errClassificationMismatch(req.ExpectedClassification, scope.DataClassification())
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = audit.NewCorrelationID()
	}

	var role *models.RoleTemplate
	for _, candidate := range roleList {
		if candidate.RoleID == membership.RoleID {
			role = candidate
			break
		}
	}
	if role == nil {
		return nil, errRoleNotFound("membership role not in organization role set")
	}

	authzCtx := &AuthorizationContext{
		OrgID:              org.OrgID,
		UserID:             session.UserID,
		RoleID:             role.RoleID,
		RoleKey:            role.Key,
		RoleName:           role.Name,
		RoleScope:          role.Scope,
		Permissions:        effective,
		DataResidency:      org.DataResidency,
		DataClassification: org.DataClassification,
		AuditSource:        req.AuditSource,
		AuditBatchID:       req.AuditBatchID,
		CorrelationID:      correlationID,
		TenantScope:        scope,
	}

	if err := authzCtx.Validate(); err != nil {
		return nil, fmt.Errorf("authorization context integrity: %w", err)
	}

	return authzCtx, nil
}

// enforceSessionHealth runs the session security enforcer and the workspace
// setup gate.
func (r *Resolver) enforceSessionHealth(ctx context.Context, scope models.TenantScope, session *identity.Session, req AccessRequest, authzCtx *AuthorizationContext) error {
	settings, err := r.cfg.Settings.Get(ctx, scope.OrgID())
	if err != nil {
		if !errors.Is(err, store.ErrSettingsNotFound) {
			return fmt.Errorf("failed to load security settings: %w", err)
		}
		settings = &models.OrgSecuritySettings{OrgID: scope.OrgID()}
	}

	if err := EnforceSessionSecurity(session, settings, req.ClientIP, r.now()); err != nil {
		return err
	}

	hasPassword, err := r.cfg.Accounts.HasCredentialPassword(ctx, session.UserID)
	if err != nil {
		return fmt.Errorf("failed to check credential password: %w", err)
	}

	profile, err := r.cfg.Employees.GetByUser(ctx, scope, session.UserID)
	if err != nil && !errors.Is(err, store.ErrProfileNotFound) {
		return fmt.Errorf("failed to load employee profile: %w", err)
	}

	state := ComputeSetupState(hasPassword, profile, authzCtx.RoleKey)
	if err := EnforceSetupGate(state, req.Path); err != nil {
		r.metrics.SetupGateBlocksTotal.Add(ctx, 1)
		return err
	}

	return nil
}

// denied records metrics and the security event for a failed check, and runs
// best-effort revocation when the failure is a session-expiry violation. The
// primary error always continues to propagate unchanged.
func (r *Resolver) denied(ctx context.Context, scope models.TenantScope, session *identity.Session, req AccessRequest, cause error) {
	reason := ReasonOf(cause)
	if reason == "" {
		// Infrastructure failure, not an authorization decision.
		return
	}
	r.metrics.RecordDenial(ctx, string(reason))

	eventType := securityevent.EventAccessDenied
	severity := models.SeverityMedium
	if reason == ReasonSessionExpired {
		eventType = securityevent.EventSessionExpired
		severity = models.SeverityLow
		r.revokeExpired(ctx, scope, session)
	}
	if reason == ReasonPasswordSetupRequired || reason == ReasonProfileSetupRequired {
		eventType = securityevent.EventSetupGateBlocked
		severity = models.SeverityLow
	}

	r.cfg.Events.Record(ctx, &models.SecurityEvent{
		OrgID:       scope.OrgID(),
		UserID:      session.UserID,
		EventType:   eventType,
		Severity:    severity,
		Description: cause.Error(),
		IPAddress:   req.ClientIP,
		UserAgent:   req.UserAgent,
		Metadata: map[string]string{
			"reason":      string(reason),
			"fingerprint": identity.Fingerprint(session.Token),
		},
	})
}

// revokeExpired expires the external token and invalidates the tenant record.
// Every error on this path is logged and discarded so it cannot replace the
// primary authorization error.
func (r *Resolver) revokeExpired(ctx context.Context, scope models.TenantScope, session *identity.Session) {
	if err := r.cfg.Identity.ExpireSessionByToken(ctx, session.Token); err != nil {
		log.Warn().Err(err).Msg("Best-effort external session expiry failed")
	}

	if err := r.cfg.Sessions.Invalidate(ctx, scope, session.Token, models.SessionStatusExpired, r.now()); err != nil &&
		!errors.Is(err, store.ErrSessionNotFound) {
		log.Warn().Err(err).Msg("Best-effort session record invalidation failed")
	}

	r.metrics.SessionsRevokedTotal.Add(ctx, 1)
}
