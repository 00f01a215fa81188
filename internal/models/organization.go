package models

import (
	"time"

	"github.com/google/uuid"
)

// DataResidency is the geographic/regulatory region tag constraining where a
// tenant's data may be processed or stored.
type DataResidency string

const (
	ResidencyEU   DataResidency = "eu"
	ResidencyUS   DataResidency = "us"
	ResidencyUK   DataResidency = "uk"
	ResidencyAPAC DataResidency = "apac"
)

// DataClassification is the sensitivity tag governing handling and access
// rules for a tenant's records.
type DataClassification string

const (
	ClassificationPublic       DataClassification = "public"
	ClassificationInternal     DataClassification = "internal"
	ClassificationConfidential DataClassification = "confidential"
	ClassificationRestricted   DataClassification = "restricted"
)

// Valid reports whether the residency is a member of the closed set.
func (r DataResidency) Valid() bool {
	switch r {
	case ResidencyEU, ResidencyUS, ResidencyUK, ResidencyAPAC:
		return true
	}
	return false
}

// Valid reports whether the classification is a member of the closed set.
func (c DataClassification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationInternal, ClassificationConfidential, ClassificationRestricted:
		return true
	}
	return false
}

// Organization represents a tenant in the system. Residency and classification
// are owned by the organization record and must never be taken from caller
// input when building a tenant scope.
type Organization struct {
	OrgID              uuid.UUID // UUIDv7
	Name               string
	Slug               string
	DataResidency      DataResidency
	DataClassification DataClassification
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
