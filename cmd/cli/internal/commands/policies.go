package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/tenantguard/internal/client"
	"github.com/wolfeidau/tenantguard/internal/models"
	"gopkg.in/yaml.v3"
)

type PoliciesCmd struct {
	List  PoliciesListCmd  `cmd:"" help:"List ABAC policies"`
	Apply PoliciesApplyCmd `cmd:"" help:"Replace the policy set from a YAML file"`
}

type PoliciesListCmd struct {
	ConnectionFlags `embed:""`
}

func (c *PoliciesListCmd) Run(ctx context.Context, globals *Globals) error {
	policies, err := c.client(globals).ListPolicies(ctx)
	if err != nil {
		return err
	}

	for _, policy := range policies {
		state := "enabled"
		if !policy.Enabled {
			state = "disabled"
		}

		actions := make([]string, 0, len(policy.Actions))
		for _, action := range policy.Actions {
			actions = append(actions, string(action))
		}

		fmt.Printf("%-32s %-5s %-20s %-24s %s\n",
			policy.Name, policy.Effect, policy.Resource, strings.Join(actions, ","), state)
	}

	return nil
}

// policyFile is the YAML shape accepted by policies apply. It matches the
// bundle format used for default policy seeding.
type policyFile struct {
	Policies []struct {
		Name     string            `yaml:"name"`
		Effect   string            `yaml:"effect"`
		Resource string            `yaml:"resource"`
		Actions  []string          `yaml:"actions"`
		Match    map[string]string `yaml:"match"`
		Enabled  *bool             `yaml:"enabled"`
	} `yaml:"policies"`
}

type PoliciesApplyCmd struct {
	ConnectionFlags `embed:""`

	File string `arg:"" help:"YAML file containing the full policy set" type:"existingfile"`
}

func (c *PoliciesApplyCmd) Run(ctx context.Context, globals *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}

	policies := make([]client.Policy, 0, len(file.Policies))
	for _, spec := range file.Policies {
		actions := make([]models.Action, 0, len(spec.Actions))
		for _, action := range spec.Actions {
			actions = append(actions, models.Action(action))
		}

		enabled := true
		if spec.Enabled != nil {
			enabled = *spec.Enabled
		}

		policies = append(policies, client.Policy{
			Name:     spec.Name,
			Effect:   models.PolicyEffect(spec.Effect),
			Resource: models.Resource(spec.Resource),
			Actions:  actions,
			Match:    spec.Match,
			Enabled:  enabled,
		})
	}

	count, err := c.client(globals).ReplacePolicies(ctx, policies)
	if err != nil {
		return err
	}

	fmt.Printf("applied %d policies\n", count)
	return nil
}
