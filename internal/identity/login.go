package identity

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Login handles the OAuth authorization-code handoff to the upstream identity
// provider and mints a local session token on callback. Credential issuance
// and MFA live entirely upstream; we only project the result into a session.
type Login struct {
	config      *oauth2.Config
	userInfoURL string
	stateSecret []byte
	provider    *JWTProvider
}

// NewLogin creates the login flow handler.
func NewLogin(config *oauth2.Config, userInfoURL string, stateSecret []byte, provider *JWTProvider) (*Login, error) {
	if config == nil || config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("oauth client configuration is required")
	}
	if userInfoURL == "" {
		return nil, fmt.Errorf("user info URL is required")
	}
	if len(stateSecret) < 32 {
		return nil, fmt.Errorf("state secret must be at least 32 bytes")
	}

	return &Login{
		config:      config,
		userInfoURL: userInfoURL,
		stateSecret: stateSecret,
		provider:    provider,
	}, nil
}

// HandleLogin redirects to the upstream provider with an HMAC-signed state.
func (l *Login) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := l.signedState()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OAuth state")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, l.config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback validates state, exchanges the code, fetches the upstream
// user, and sets the session cookie.
func (l *Login) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !l.verifyState(r.URL.Query().Get("state")) {
		log.Debug().Msg("OAuth state validation failed")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	token, err := l.config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("OAuth code exchange failed")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := l.fetchUser(r.Context(), token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch upstream user")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session := &Session{
		UserID:      user.Subject,
		MFAVerified: user.MFAVerified,
		IPAddress:   r.Header.Get("X-Forwarded-For"),
		UserAgent:   r.UserAgent(),
	}

	sessionToken, err := l.provider.Issue(session)
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue session token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(l.provider.sessionTTL),
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// upstreamUser is the subset of the provider's userinfo response we need.
type upstreamUser struct {
	Subject     uuid.UUID
	Email       string
	MFAVerified bool
}

func (l *Login) fetchUser(ctx context.Context, token *oauth2.Token) (*upstreamUser, error) {
	client := l.config.Client(ctx, token)

	resp, err := client.Get(l.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	var payload struct {
		Sub         string `json:"sub"`
		Email       string `json:"email"`
		MFAVerified bool   `json:"mfa_verified"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	subject, err := uuid.Parse(payload.Sub)
	if err != nil {
		return nil, fmt.Errorf("userinfo subject is not a UUID: %w", err)
	}

	return &upstreamUser{Subject: subject, Email: payload.Email, MFAVerified: payload.MFAVerified}, nil
}

// signedState returns nonce.base64(hmac(nonce)).
func (l *Login) signedState() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	encoded := base64.URLEncoding.EncodeToString(nonce)
	mac := hmac.New(sha256.New, l.stateSecret)
	mac.Write([]byte(encoded))

	return encoded + "." + base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (l *Login) verifyState(state string) bool {
	encoded, sig, ok := splitState(state)
	if !ok {
		return false
	}

	received, err := base64.URLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, l.stateSecret)
	mac.Write([]byte(encoded))

	return hmac.Equal(received, mac.Sum(nil))
}

func splitState(state string) (encoded, sig string, ok bool) {
	for i := len(state) - 1; i >= 0; i-- {
		if state[i] == '.' {
			return state[:i], state[i+1:], true
		}
	}
	return "", "", false
}
