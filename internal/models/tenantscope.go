package models

import "github.com/google/uuid"

// TenantScope is the minimal immutable token required to perform any
// tenant-scoped data access. The fields are unexported so a scope can only be
// built from a freshly loaded Organization record via NewTenantScope; callers
// cannot spoof residency or classification by constructing one directly.
type TenantScope struct {
	orgID              uuid.UUID
	dataResidency      DataResidency
	dataClassification DataClassification
	auditSource        string
	auditBatchID       string
}

// NewTenantScope derives a tenant scope from a trusted organization record.
func NewTenantScope(org *Organization, auditSource, auditBatchID string) TenantScope {
	return TenantScope{
		orgID:              org.OrgID,
		dataResidency:      org.DataResidency,
		dataClassification: org.DataClassification,
		auditSource:        auditSource,
		auditBatchID:       auditBatchID,
	}
}

func (s TenantScope) OrgID() uuid.UUID                       { return s.orgID }
func (s TenantScope) DataResidency() DataResidency           { return s.dataResidency }
func (s TenantScope) DataClassification() DataClassification { return s.dataClassification }
func (s TenantScope) AuditSource() string                    { return s.auditSource }
func (s TenantScope) AuditBatchID() string                   { return s.auditBatchID }

// IsZero reports whether the scope was never derived from an organization.
func (s TenantScope) IsZero() bool {
	return s.orgID == uuid.Nil
}
