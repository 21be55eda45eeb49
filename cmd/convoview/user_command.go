package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/app"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage viewer accounts",
	}
	userCmd.AddCommand(newUserAddCommand(ctx))
	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add <username> <email>",
		Short: "Create an account",
		Long:  "Create an account. Without --password the password is read from the first line of stdin.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = pw
			}

			a, err := ctx.newApp(app.Options{Database: true})
			if err != nil {
				return err
			}
			var user *account.User
			err = a.RunTask(cmd.Context(), func(ctx context.Context) error {
				var rerr error
				user, rerr = a.Services().Accounts.Register(ctx, account.RegisterRequest{
					Username: args[0],
					Email:    args[1],
					Password: password,
				})
				return rerr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user #%d (%s)\n", user.ID, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("a password is required: pass --password or pipe it on stdin")
	}
	return line, nil
}
