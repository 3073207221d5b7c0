package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/templui/filesmanager/internal/config"
	"github.com/templui/filesmanager/internal/db"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect SQL schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), db.RunMigrations)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), db.MigrateDown)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), func(conn *sql.DB, driver string) error {
				version, err := db.MigrationVersion(conn, driver)
				if err != nil {
					return err
				}
				fmt.Println("==> Schema version", version)
				return nil
			})
		},
	})

	return cmd
}

func migrate(ctx context.Context, step func(*sql.DB, string) error) error {
	cfg := config.Load()
	if cfg.DBDriver == "mongo" {
		return fmt.Errorf("migrations only apply to SQL drivers, DB_DRIVER is %q", cfg.DBDriver)
	}

	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	err = step(database.DB, cfg.DBDriver)
	if err != nil {
		return err
	}

	return nil
}
