package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/tenantguard/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Roles     commands.RolesCmd     `cmd:"" help:"Manage role templates"`
		Policies  commands.PoliciesCmd  `cmd:"" help:"Manage ABAC policies"`
		Sessions  commands.SessionsCmd  `cmd:"" help:"Manage sessions"`
		Bootstrap commands.BootstrapCmd `cmd:"" help:"Provision a new tenant"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
