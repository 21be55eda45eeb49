package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "convoview %s\n", info.Version)
			if info.GitCommit != "" {
				fmt.Fprintf(out, "commit     %s\n", info.GitCommit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(out, "built      %s\n", info.BuildTime)
			}
			fmt.Fprintf(out, "go         %s\n", info.GoVersion)
			return nil
		},
	}
}
