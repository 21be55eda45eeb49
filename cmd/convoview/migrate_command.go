package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/convoview/database"
	"github.com/kbukum/convoview/internal/app"
	"github.com/kbukum/convoview/logger"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var steps int
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQL migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := logger.New(&cfg.Logging, cfg.Name).WithComponent("migrate")
			db, err := database.Open(cmd.Context(), cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()

			if !showVersion {
				if steps != 0 {
					err = app.MigrateSteps(db, steps)
				} else {
					err = app.Migrate(db)
				}
				if err != nil {
					return err
				}
			}

			v, dirty, err := app.MigrationVersion(db)
			if err != nil {
				return err
			}
			state := "clean"
			if dirty {
				state = "dirty"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s, %s)\n", v, db.Driver(), state)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "Apply N migrations, or roll back N when negative")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Print the applied version without migrating")
	return cmd
}
