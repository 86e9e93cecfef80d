package cmd

import (
	"github.com/spf13/cobra"

	"billingdash/internal/logger"
	"billingdash/pkg/models"
)

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List payment transactions as JSON",
	Long: `Fetch the payment transaction history and print it as JSON,
together with the derived summary (total count, total volume, completed
and pending counts) the dashboard shows.

Required environment variables:
  BILLING_API_BASE_URL - Base URL of the billing API`,
	Example: `  # Print all transactions with their summary
  billingdash transactions

  # Save for further processing
  billingdash transactions -o transactions.json`,
	Args: cobra.NoArgs,
	RunE: runTransactions,
}

func init() {
	rootCmd.AddCommand(transactionsCmd)

	transactionsCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	transactionsCmd.Flags().Int("timeout", 30, "Request timeout in seconds")
}

func runTransactions(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("transactions-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	d, err := buildDeps()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	txs, stats, err := d.transactions.List(ctx)
	if err != nil {
		return handleAPIError("fetching transactions", err, log)
	}

	log.Info().
		Int("transactions", stats.Total).
		Str("volume", stats.TotalAmount.String()).
		Msg("Transactions fetched")

	out := struct {
		Transactions []models.Transaction    `json:"transactions"`
		Stats        models.TransactionStats `json:"stats"`
	}{Transactions: txs, Stats: stats}
	return outputJSON(out, outputPath, log)
}
