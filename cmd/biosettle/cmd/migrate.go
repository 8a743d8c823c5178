package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cmendoza/biosettle/internal/config"
	"github.com/cmendoza/biosettle/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		return migrate.Up(cmd.Context(), cfg.DBDriver, cfg.DSN)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		return migrate.Down(cmd.Context(), cfg.DBDriver, cfg.DSN)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()
		return migrate.Status(cmd.Context(), cfg.DBDriver, cfg.DSN)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
