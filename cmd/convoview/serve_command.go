package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/app"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.newApp(app.Options{})
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
}
