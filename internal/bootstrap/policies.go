package bootstrap

import (
	_ "embed"
	"fmt"

	"github.com/wolfeidau/tenantguard/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed policies.yaml
var defaultPoliciesYAML []byte

type policyBundle struct {
	Policies []policySpec `yaml:"policies"`
}

type policySpec struct {
	Name     string            `yaml:"name"`
	Effect   string            `yaml:"effect"`
	Resource string            `yaml:"resource"`
	Actions  []string          `yaml:"actions"`
	Match    map[string]string `yaml:"match"`
	Enabled  *bool             `yaml:"enabled"`
}

// DefaultPolicies parses the embedded default ABAC policy bundle. Every
// policy is validated against the closed resource/action enumerations, so a
// bad bundle fails at bootstrap rather than at evaluation time.
func DefaultPolicies() ([]*models.AbacPolicy, error) {
	var bundle policyBundle
	if err := yaml.Unmarshal(defaultPoliciesYAML, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse default policy bundle: %w", err)
	}

	policies := make([]*models.AbacPolicy, 0, len(bundle.Policies))
	for _, spec := range bundle.Policies {
		actions := make([]models.Action, 0, len(spec.Actions))
		for _, action := range spec.Actions {
			actions = append(actions, models.Action(action))
		}

		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}

		policy := &models.AbacPolicy{
			Name:     spec.Name,
			Effect:   models.PolicyEffect(spec.Effect),
			Resource: models.Resource(spec.Resource),
			Actions:  actions,
			Match:    spec.Match,
			Enabled:  enabled,
		}

		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("default policy bundle: %w", err)
		}

		policies = append(policies, policy)
	}

	return policies, nil
}
