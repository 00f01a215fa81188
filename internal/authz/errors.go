package authz

import (
	"errors"
	"fmt"

	"github.com/wolfeidau/tenantguard/internal/models"
)

// Reason is the machine-readable cause attached to every authorization
// failure. Calling layers translate reasons into generic user-facing behavior;
// the reason itself is for logs and audit.
type Reason string

const (
	ReasonUnauthenticated        Reason = "unauthenticated"
	ReasonForbidden              Reason = "forbidden"
	ReasonResidencyMismatch      Reason = "residency_mismatch"
	ReasonClassificationMismatch Reason = "classification_mismatch"
	ReasonSessionExpired         Reason = "session_expired"
	ReasonMFARequired            Reason = "mfa_required"
	ReasonIPNotAllowlisted       Reason = "ip_not_allowlisted"
	ReasonIPRequired             Reason = "ip_required"
	ReasonPasswordSetupRequired  Reason = "password_setup_required"
	ReasonProfileSetupRequired   Reason = "profile_setup_required"
	ReasonRoleNotFound           Reason = "role_not_found"
)

// Error is the single authorization error type. Checks are fail-closed: the
// first failing check produces one Error and aborts the operation before any
// mutation.
type Error struct {
	Reason Reason

	// Optional structured details.
	Resource      models.Resource
	Action        models.Action
	Policy        string
	MissingFields []string

	msg string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.msg)
	}
	return string(e.Reason)
}

// Is allows errors.Is comparison against another *Error by reason.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Reason == other.Reason
}

// ReasonOf extracts the reason from an error chain, or "" if the chain
// contains no authorization error.
func ReasonOf(err error) Reason {
	var authzErr *Error
	if errors.As(err, &authzErr) {
		return authzErr.Reason
	}
	return ""
}

func errUnauthenticated() *Error {
	return &Error{Reason: ReasonUnauthenticated, msg: "no active session"}
}

func errForbidden(resource models.Resource, action models.Action) *Error {
	return &Error{
		Reason:   ReasonForbidden,
		Resource: resource,
		Action:   action,
		msg:      fmt.Sprintf("missing %s on %s", action, resource),
	}
}

func errRoleNotFound(detail string) *Error {
	return &Error{Reason: ReasonRoleNotFound, msg: detail}
}

func errSessionExpired(policy string) *Error {
	return &Error{Reason: ReasonSessionExpired, Policy: policy, msg: "session security violation"}
}

func errMFARequired() *Error {
	return &Error{Reason: ReasonMFARequired, msg: "verified MFA is required"}
}

func errIPRequired() *Error {
	return &Error{Reason: ReasonIPRequired, msg: "no client IP resolvable for allowlist check"}
}

func errIPNotAllowlisted(ip string) *Error {
	return &Error{Reason: ReasonIPNotAllowlisted, msg: fmt.Sprintf("ip %s is not allowlisted", ip)}
}

func errResidencyMismatch(expected, actual models.DataResidency) *Error {
	return &Error{
		Reason: ReasonResidencyMismatch,
		msg:    fmt.Sprintf("expected residency %s, tenant is %s", expected, actual),
	}
}

func errClassificationMismatch(expected, actual models.DataClassification) *Error {
	return &Error{
		Reason: ReasonClassificationMismatch,
		msg:    fmt.Sprintf("expected classification %s, tenant is %s", expected, actual),
	}
}

func errPasswordSetupRequired() *Error {
	return &Error{Reason: ReasonPasswordSetupRequired, msg: "password setup must be completed"}
}

func errProfileSetupRequired(missing []string) *Error {
	return &Error{
		Reason:        ReasonProfileSetupRequired,
		MissingFields: missing,
		msg:           "profile setup must be completed",
	}
}
