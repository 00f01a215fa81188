package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie carrying the session token when the
// Authorization header is absent.
const SessionCookieName = "tg_session"

// sessionClaims are the JWT claims the upstream identity provider issues for
// a session token.
type sessionClaims struct {
	jwt.RegisteredClaims

	SessionID   string `json:"sid"`
	OrgID       string `json:"org,omitempty"`
	MFAVerified bool   `json:"mfa,omitempty"`
	IPAddress   string `json:"ip,omitempty"`
	UserAgent   string `json:"ua,omitempty"`
	// RefreshedAt tracks the provider-side activity refresh; it advances
	// while iat stays fixed at issuance.
	RefreshedAt int64 `json:"rat,omitempty"`
}

// JWTProvider implements Provider over HS256 session tokens minted by the
// upstream identity provider. Revocation is tracked by token fingerprint in a
// shared RevocationStore because a stateless JWT cannot be recalled.
type JWTProvider struct {
	secret      []byte
	issuer      string
	sessionTTL  time.Duration
	revocations RevocationStore
}

// NewJWTProvider creates a session provider verifying HS256 tokens.
func NewJWTProvider(secret []byte, issuer string, sessionTTL time.Duration, revocations RevocationStore) (*JWTProvider, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes")
	}
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if revocations == nil {
		return nil, fmt.Errorf("revocation store is required")
	}

	return &JWTProvider{
		secret:      secret,
		issuer:      issuer,
		sessionTTL:  sessionTTL,
		revocations: revocations,
	}, nil
}

// GetSession extracts the bearer token (or session cookie) from the headers
// and validates it.
func (p *JWTProvider) GetSession(ctx context.Context, headers http.Header) (*Session, error) {
	token := tokenFromHeaders(headers)
	if token == "" {
		return nil, ErrNoSession
	}

	session, err := p.parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.revocations.IsRevoked(ctx, Fingerprint(token))
	if err != nil {
		// Fail closed: if revocation state is unknown the session is not
		// trusted.
		return nil, fmt.Errorf("revocation check failed: %w", err)
	}
	if revoked {
		log.Debug().Str("fingerprint", Fingerprint(token)).Msg("Session token is revoked")
		return nil, ErrInvalidSession
	}

	return session, nil
}

// RevokeSession marks the token's fingerprint revoked until its expiry.
func (p *JWTProvider) RevokeSession(ctx context.Context, token string) error {
	session, err := p.parse(token)
	if err != nil {
		if errors.Is(err, ErrExpiredSession) {
			return nil
		}
		return err
	}
	return p.revocations.MarkRevoked(ctx, Fingerprint(token), session.ExpiresAt)
}

// ExpireSessionByToken is equivalent to revocation for a stateless token.
func (p *JWTProvider) ExpireSessionByToken(ctx context.Context, token string) error {
	return p.RevokeSession(ctx, token)
}

// SetActiveOrganization re-issues the session bound to the new organization
// and revokes the old token.
func (p *JWTProvider) SetActiveOrganization(ctx context.Context, token string, orgID uuid.UUID) (string, error) {
	session, err := p.parse(token)
	if err != nil {
		return "", err
	}

	session.ActiveOrgID = orgID
	newToken, err := p.Issue(session)
	if err != nil {
		return "", err
	}

	if err := p.revocations.MarkRevoked(ctx, Fingerprint(token), session.ExpiresAt); err != nil {
		return "", fmt.Errorf("failed to revoke previous token: %w", err)
	}

	return newToken, nil
}

// Issue mints a session token. In production issuance belongs to the upstream
// provider; this is used by the org-switch flow, the login callback, and tests.
func (p *JWTProvider) Issue(session *Session) (string, error) {
	now := time.Now()

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	expiresAt := session.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = createdAt.Add(p.sessionTTL)
	}
	sessionID := session.SessionID
	if sessionID == uuid.Nil {
		sessionID = uuid.Must(uuid.NewV7())
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(createdAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID:   sessionID.String(),
		MFAVerified: session.MFAVerified,
		IPAddress:   session.IPAddress,
		UserAgent:   session.UserAgent,
	}
	if session.ActiveOrgID != uuid.Nil {
		claims.OrgID = session.ActiveOrgID.String()
	}
	if !session.UpdatedAt.IsZero() {
		claims.RefreshedAt = session.UpdatedAt.Unix()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// parse verifies the token signature and converts claims into a Session.
func (p *JWTProvider) parse(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("invalid signing method %v", t.Method.Alg())
		}
		return p.secret, nil
	}, jwt.WithIssuer(p.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredSession
		}
		log.Debug().Err(err).Msg("Session token parse error")
		return nil, ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	session := &Session{
		Token:       token,
		MFAVerified: claims.MFAVerified,
		IPAddress:   claims.IPAddress,
		UserAgent:   claims.UserAgent,
	}

	if session.SessionID, err = uuid.Parse(claims.SessionID); err != nil {
		return nil, ErrInvalidSession
	}
	if session.UserID, err = uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidSession
	}
	if claims.OrgID != "" {
		if session.ActiveOrgID, err = uuid.Parse(claims.OrgID); err != nil {
			return nil, ErrInvalidSession
		}
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.RefreshedAt > 0 {
		session.UpdatedAt = time.Unix(claims.RefreshedAt, 0)
	}

	return session, nil
}

// tokenFromHeaders pulls the session token from the Authorization header,
// falling back to the session cookie.
func tokenFromHeaders(headers http.Header) string {
	if authz := headers.Get("Authorization"); authz != "" {
		if token, ok := strings.CutPrefix(authz, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	// http.Header has no cookie parsing; borrow http.Request's.
	req := http.Request{Header: headers}
	if cookie, err := req.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}
