package commands

import (
	"context"
	"fmt"
)

type SessionsCmd struct {
	Revoke SessionsRevokeCmd `cmd:"" help:"Revoke a session"`
}

type SessionsRevokeCmd struct {
	ConnectionFlags `embed:""`

	Target string `help:"Session token to revoke; empty revokes your own session" default:""`
	Reason string `help:"Reason recorded with the revocation" default:""`
}

func (c *SessionsRevokeCmd) Run(ctx context.Context, globals *Globals) error {
	if err := c.client(globals).RevokeSession(ctx, c.Target, c.Reason); err != nil {
		return err
	}

	fmt.Println("session revoked")
	return nil
}
