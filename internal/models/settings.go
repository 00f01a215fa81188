package models

import "github.com/google/uuid"

// OrgSecuritySettings are the per-tenant session security controls. The record
// is owned externally; this core only reads it.
type OrgSecuritySettings struct {
	OrgID                 uuid.UUID
	SessionTimeoutMinutes int
	MFARequired           bool
	IPAllowlistEnabled    bool
	IPAllowlist           []string
}

// DefaultSessionTimeoutMinutes applies when a tenant has no explicit setting.
const DefaultSessionTimeoutMinutes = 480
