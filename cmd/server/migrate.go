package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"id-recon/internal/contact/store"
	"id-recon/internal/platform/config"
	"id-recon/internal/platform/postgres"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log := root.cfg, root.logger

			switch cfg.Database.Driver {
			case config.DriverPostgres:
				db, err := postgres.Open(ctx, cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				applied, err := postgres.Migrate(ctx, db, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
			case config.DriverSQLite:
				// Opening the database brings the schema up to date.
				db, err := store.OpenSQLite(cfg.Database.SQLitePath)
				if err != nil {
					return err
				}
				defer db.Close()
				fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema ready at %s\n", cfg.Database.SQLitePath)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "driver %s has no schema\n", cfg.Database.Driver)
			}
			return nil
		},
	}
}
