package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/client"
)

// remoteFlags select and authenticate against a running server.
type remoteFlags struct {
	server   string
	token    string
	username string
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", "", "Server base URL (defaults to viewer.server)")
	cmd.Flags().StringVar(&f.token, "token", "", "Bearer token")
	cmd.Flags().StringVar(&f.username, "username", "", "Log in as this user; the password is read from CONVOVIEW_PASSWORD")
}

// connect builds a client from the viewer config overridden by the flags,
// logging in when a username is given.
func (f *remoteFlags) connect(ctx context.Context, cc *commandContext) (*client.Client, error) {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return nil, err
	}
	vc := cfg.Viewer
	if f.server != "" {
		vc.BaseURL = f.server
	}
	if f.token != "" {
		vc.Token = f.token
	}
	c, err := client.New(vc)
	if err != nil {
		return nil, err
	}
	if f.username != "" {
		if _, err := c.Login(ctx, f.username, os.Getenv("CONVOVIEW_PASSWORD")); err != nil {
			return nil, fmt.Errorf("login to %s: %w", c.BaseURL(), err)
		}
	}
	return c, nil
}
