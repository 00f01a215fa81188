package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/wolfeidau/tenantguard/internal/client"
	"github.com/wolfeidau/tenantguard/internal/models"
	"gopkg.in/yaml.v3"
)

type RolesCmd struct {
	List   RolesListCmd   `cmd:"" help:"List role templates"`
	Create RolesCreateCmd `cmd:"" help:"Create a role template from a YAML file"`
}

type RolesListCmd struct {
	ConnectionFlags `embed:""`
}

func (c *RolesListCmd) Run(ctx context.Context, globals *Globals) error {
	roles, err := c.client(globals).ListRoles(ctx)
	if err != nil {
		return err
	}

	for _, role := range roles {
		resources := make([]string, 0, len(role.Permissions))
		for resource, actions := range role.Permissions {
			parts := make([]string, 0, len(actions))
			for _, action := range actions {
				parts = append(parts, string(action))
			}
			resources = append(resources, fmt.Sprintf("%s:%s", resource, strings.Join(parts, ",")))
		}
		sort.Strings(resources)

		fmt.Printf("%s  %-16s %-8s %s\n", role.RoleID, role.Key, role.Scope, strings.Join(resources, " "))
	}

	return nil
}

// roleSpec is the YAML shape accepted by roles create.
type roleSpec struct {
	Key         string              `yaml:"key"`
	Name        string              `yaml:"name"`
	Permissions map[string][]string `yaml:"permissions"`
}

type RolesCreateCmd struct {
	ConnectionFlags `embed:""`

	File string `arg:"" help:"YAML file describing the role" type:"existingfile"`
}

func (c *RolesCreateCmd) Run(ctx context.Context, globals *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read role file: %w", err)
	}

	var spec roleSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("failed to parse role file: %w", err)
	}

	permissions := models.PermissionMap{}
	for resource, actions := range spec.Permissions {
		for _, action := range actions {
			permissions.Grant(models.Resource(resource), models.Action(action))
		}
	}
	if err := permissions.Validate(); err != nil {
		return err
	}

	role, err := c.client(globals).CreateRole(ctx, client.Role{
		Key:         spec.Key,
		Name:        spec.Name,
		Permissions: permissions,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created role %s (%s)\n", role.Key, role.RoleID)
	return nil
}
