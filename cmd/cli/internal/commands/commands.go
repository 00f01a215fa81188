package commands

import (
	"time"

	"github.com/wolfeidau/tenantguard/internal/client"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConnectionFlags are shared by every command that talks to the admin API.
type ConnectionFlags struct {
	Server  string        `help:"Server URL" default:"http://localhost:8080" env:"TENANTGUARD_SERVER"`
	Token   string        `help:"Session token" env:"TENANTGUARD_TOKEN"`
	Timeout time.Duration `help:"Request timeout" default:"30s"`
}

func (f *ConnectionFlags) client(globals *Globals) *client.Client {
	return client.New(client.Config{
		ServerURL: f.Server,
		Token:     f.Token,
		Timeout:   f.Timeout,
		Debug:     globals.Debug,
	})
}
