package authz

import (
	"strings"
	"time"

	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// Session-security policy names reported with session_expired failures.
const (
	PolicyIdleTimeout = "idle_timeout"
)

// EnforceSessionSecurity validates a session against the tenant's security
// settings. The three checks are independent and run in a fixed order: idle
// timeout, then MFA, then IP allowlist. The first failing check determines the
// reported reason; failures are never aggregated.
func EnforceSessionSecurity(session *identity.Session, settings *models.OrgSecuritySettings, requestIP string, now time.Time) error {
	timeoutMinutes := settings.SessionTimeoutMinutes
	if timeoutMinutes <= 0 {
		timeoutMinutes = models.DefaultSessionTimeoutMinutes
	}

	if now.Sub(session.LastActive()) > time.Duration(timeoutMinutes)*time.Minute {
		return errSessionExpired(PolicyIdleTimeout)
	}

	if settings.MFARequired && !session.MFAVerified {
		return errMFARequired()
	}

	if settings.IPAllowlistEnabled && len(settings.IPAllowlist) > 0 {
		ip := strings.TrimSpace(requestIP)
		if ip == "" {
			ip = strings.TrimSpace(session.IPAddress)
		}
		if ip == "" {
			return errIPRequired()
		}

		allowed := false
		for _, entry := range settings.IPAllowlist {
			if strings.TrimSpace(entry) == ip {
				allowed = true
				break
			}
		}
		if !allowed {
			return errIPNotAllowlisted(ip)
		}
	}

	return nil
}
