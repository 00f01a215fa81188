package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmployeeProfile is the HR profile for a user within an organization. Only
// the fields the workspace setup gate inspects are modelled here; the HR
// domain owns the rest.
type EmployeeProfile struct {
	ProfileID uuid.UUID
	OrgID     uuid.UUID
	UserID    uuid.UUID
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNamed reports whether at least one of the name fields is non-blank after
// trimming.
func (p *EmployeeProfile) IsNamed() bool {
	return strings.TrimSpace(p.FirstName) != "" || strings.TrimSpace(p.LastName) != ""
}
