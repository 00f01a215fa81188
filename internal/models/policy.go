package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PolicyEffect is the outcome a matching ABAC policy applies on top of the
// RBAC union.
type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// AbacPolicy grants or denies actions beyond RBAC based on request attributes.
// A policy matches when the resource matches (empty = any resource), the
// requested action is listed (empty = any action), and every Match entry
// equals the corresponding request attribute.
//
// Deny policies win over both RBAC grants and allow policies on the same
// resource/action.
type AbacPolicy struct {
	PolicyID  uuid.UUID // UUIDv7
	OrgID     uuid.UUID
	Name      string
	Effect    PolicyEffect
	Resource  Resource
	Actions   []Action
	Match     map[string]string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the policy against the closed enumerations.
func (p *AbacPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("policy name is required")
	}
	if p.Effect != EffectAllow && p.Effect != EffectDeny {
		return fmt.Errorf("policy %s: effect %q: %w", p.Name, p.Effect, ErrUnknownEffect)
	}
	if p.Resource != "" && !p.Resource.Valid() {
		return fmt.Errorf("policy %s: resource %q: %w", p.Name, p.Resource, ErrUnknownResource)
	}
	for _, action := range p.Actions {
		if !action.Valid() {
			return fmt.Errorf("policy %s: action %q: %w", p.Name, action, ErrUnknownAction)
		}
	}
	return nil
}

// Matches reports whether the policy applies to the given resource, action,
// and request attributes.
func (p *AbacPolicy) Matches(resource Resource, action Action, attrs map[string]string) bool {
	if !p.Enabled {
		return false
	}
	if p.Resource != "" && p.Resource != resource {
		return false
	}
	if len(p.Actions) > 0 {
		found := false
		for _, a := range p.Actions {
			if a == action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for key, want := range p.Match {
		if attrs[key] != want {
			return false
		}
	}
	return true
}
