// Package cmd defines the warningweb CLI: the HTTP server and database
// migration subcommands. Configuration is read from the environment (with
// an optional .env file for local development) before any subcommand runs.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd is the base command. It does nothing by itself; all behavior
// lives in subcommands (server, migrate).
var rootCmd = &cobra.Command{
	Use:   "warningweb",
	Short: "WarningWeb storefront and account service",
	Long: `WarningWeb is the storefront backend for Warning Bypass: user accounts
and sessions, profiles, the product catalog, the shopping cart, and the
simulated PIX checkout flow.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Best-effort .env load for local development. Missing files are
		// fine; real deployments inject environment variables directly.
		_ = godotenv.Load()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
