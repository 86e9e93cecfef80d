package cmd

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"billingdash/internal/logger"
	"billingdash/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive billing dashboard",
	Long: `Open the interactive terminal dashboard.

The dashboard shows the invoice list with server-side pagination,
filtering and search, inline status edits with optimistic feedback,
the uploaded spreadsheet viewer and the transactions screen.

Required environment variables:
  BILLING_API_BASE_URL - Base URL of the billing API`,
	Example: `  # Open the dashboard
  billingdash dashboard

  # Open against a staging API
  BILLING_API_BASE_URL=https://staging.example.com/api billingdash dashboard`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("dashboard")

	d, err := buildDeps()
	if err != nil {
		return err
	}

	// Background eviction for cached pages while the dashboard runs.
	gcCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sweepEvery := d.cfg.GCTime / 4
	if sweepEvery <= 0 {
		sweepEvery = 15 * time.Minute
	}
	d.cache.StartGC(gcCtx, sweepEvery)

	app := tui.NewApp(tui.Deps{
		Controller:   d.controller,
		Excel:        d.excel,
		Transactions: d.transactions,
		Notifier:     d.notifier,
		Prefs:        d.prefs,
	})

	log.Info().Str("api", d.cfg.APIBaseURL).Msg("Starting dashboard")
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}
