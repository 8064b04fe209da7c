package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orgfees/internal/config"
	"orgfees/internal/storage"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrations apply to the sqlite backend, DATA_BACKEND is %q", a.cfg.DataBackend)
			}
			if err := storage.RunMigrations(a.cfg.SQLiteDBPath); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			return printVersion(cmd, a.cfg.SQLiteDBPath)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrations apply to the sqlite backend, DATA_BACKEND is %q", a.cfg.DataBackend)
			}
			return printVersion(cmd, a.cfg.SQLiteDBPath)
		},
	})
	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
