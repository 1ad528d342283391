package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shelfd/shelfd/config"
	"github.com/shelfd/shelfd/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create the catalog tables and verify the schema, then exit.

The serve command runs the same migration on startup; this command
is for provisioning a database ahead of time or from a CI job.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	_, closeDB, err := database.Connect(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer closeDB()

	slog.Info("database migration complete",
		"type", cfg.Database.Type,
		"authors", cfg.Database.Tables.Authors,
		"books", cfg.Database.Tables.Books,
		"users", cfg.Database.Tables.Users,
	)
	return nil
}
