package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warningbypass/warningweb/internal/config"
	"github.com/warningbypass/warningweb/internal/database"
)

// migrateCmd groups database migration subcommands.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		setupLogging(cfg)

		db, err := database.NewMariaDB(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to MariaDB: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		return database.RunMigrations(db, cfg.Database.MigrationsPath)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
}
