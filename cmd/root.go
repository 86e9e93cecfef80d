package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"billingdash/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "billingdash",
	Short: "Billing dashboard - a terminal client for the invoice billing API",
	Long: `Billing dashboard is a terminal client for the external billing API.

It lists invoices with cursor-based pagination, filtering and search,
edits invoice fields with optimistic updates, views and edits uploaded
spreadsheet data, and shows payment transactions. Run the "dashboard"
subcommand for the interactive view, or use the scriptable subcommands
for JSON output.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Welcome to Billing Dashboard!")
		fmt.Println("Use --help to see available commands, or run 'billingdash dashboard'.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
