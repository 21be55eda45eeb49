package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/viewer"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse conversations in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remote.connect(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			return viewer.Run(cmd.Context(), c)
		},
	}
	remote.register(cmd)
	return cmd
}
