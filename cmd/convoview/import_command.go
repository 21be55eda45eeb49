package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/app"
	"github.com/kbukum/convoview/internal/conversation"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var name, path string
	var remote remoteFlags

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Store an analysis document as a new conversation",
		Long: `Store an analysis document as a new conversation.

With --server the document is posted to a running server instead of the
configured store.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}
			if name == "" {
				name = filepath.Base(path)
			}

			if remote.server != "" {
				c, err := remote.connect(cmd.Context(), ctx)
				if err != nil {
					return err
				}
				id, err := c.Create(cmd.Context(), name, path, json.RawMessage(data))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported conversation #%d (%s) to %s\n", id, name, c.BaseURL())
				return nil
			}

			a, err := ctx.newApp(app.Options{})
			if err != nil {
				return err
			}
			c := &conversation.Conversation{
				FileName: name,
				FilePath: path,
				FileData: json.RawMessage(data),
			}
			err = a.RunTask(cmd.Context(), func(ctx context.Context) error {
				return a.Services().Conversations.Create(ctx, c)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported conversation #%d (%s)\n", c.ID, c.FileName)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Audio file name (defaults to the base of --path)")
	cmd.Flags().StringVar(&path, "path", "", "Audio object key in storage")
	_ = cmd.MarkFlagRequired("path")
	remote.register(cmd)
	return cmd
}
