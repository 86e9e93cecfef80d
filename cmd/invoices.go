package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"billingdash/internal/api"
	"billingdash/internal/invoices"
	"billingdash/internal/logger"
	"billingdash/pkg/models"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List and update invoices without the interactive dashboard",
	Long: `Work with invoices from scripts and pipelines.

The list subcommand fetches one page of invoices with the same
cursor-based pagination, filters and search the dashboard uses, and
prints the server response as JSON. The update subcommand sends a
partial update for a single invoice.

Required environment variables:
  BILLING_API_BASE_URL - Base URL of the billing API`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch one page of invoices as JSON",
	Example: `  # First page with defaults
  billingdash invoices list

  # Fifty unpaid invoices from March
  billingdash invoices list --limit 50 --status "not paid" --month "March 2025"

  # Follow the cursor from a previous page
  billingdash invoices list --last-key "eyJ1c2VySWQi..."

  # Search by customer or provider name
  billingdash invoices list --search acme -o page.json`,
	Args: cobra.NoArgs,
	RunE: runInvoicesList,
}

var invoicesUpdateCmd = &cobra.Command{
	Use:   "update [user-id]",
	Short: "Send a partial update for one invoice",
	Long: `Send a partial update for the invoice identified by user ID.

Only the flags you pass are sent; everything else on the invoice stays
untouched. Status values are matched case-insensitively and must be
one of: paid, pending, not paid.`,
	Example: `  # Mark an invoice paid
  billingdash invoices update user-123 --status paid

  # Correct the amount and add a note
  billingdash invoices update user-123 --amount 149.90 --notes "adjusted after refund"`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoicesUpdate,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesUpdateCmd)

	invoicesListCmd.Flags().Int("limit", invoices.DefaultLimit, "Rows per page")
	invoicesListCmd.Flags().String("last-key", "", "Cursor from the previous page's pagination envelope")
	invoicesListCmd.Flags().String("month", "", `Month filter, e.g. "January 2025"`)
	invoicesListCmd.Flags().StringSlice("status", nil, "Status filter (repeatable; default: all statuses)")
	invoicesListCmd.Flags().String("search", "", "Search across customer and provider names")
	invoicesListCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	invoicesListCmd.Flags().Int("timeout", 30, "Request timeout in seconds")

	invoicesUpdateCmd.Flags().String("status", "", "New status (paid, pending, not paid)")
	invoicesUpdateCmd.Flags().String("customer", "", "New customer name")
	invoicesUpdateCmd.Flags().String("provider", "", "New provider name")
	invoicesUpdateCmd.Flags().String("amount", "", "New amount, decimal string")
	invoicesUpdateCmd.Flags().String("invoice-date", "", "New invoice date")
	invoicesUpdateCmd.Flags().String("monthly-date", "", "New monthly date")
	invoicesUpdateCmd.Flags().String("notes", "", "New notes")
	invoicesUpdateCmd.Flags().Int("timeout", 30, "Request timeout in seconds")
}

func runInvoicesList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices-cmd")

	limit, _ := cmd.Flags().GetInt("limit")
	lastKey, _ := cmd.Flags().GetString("last-key")
	month, _ := cmd.Flags().GetString("month")
	statuses, _ := cmd.Flags().GetStringSlice("status")
	search, _ := cmd.Flags().GetString("search")
	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	d, err := buildDeps()
	if err != nil {
		return err
	}

	params := invoices.DefaultParams()
	params.Limit = limit
	params.LastKey = lastKey
	params.MonthYear = month
	params.Search = search
	if len(statuses) > 0 {
		params.StatusFilters = map[string]bool{}
		for _, s := range statuses {
			params.StatusFilters[models.NormalizeStatus(s)] = true
		}
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	log.Info().
		Int("limit", params.Limit).
		Str("month", month).
		Strs("statuses", statuses).
		Msg("Fetching invoice page")

	page, err := d.invoices.List(ctx, params)
	if err != nil {
		return handleAPIError("fetching invoices", err, log)
	}

	log.Info().
		Int("invoices", len(page.Invoices)).
		Bool("has_next_page", page.Pagination.HasNextPage).
		Msg("Invoice page fetched")

	return outputJSON(page, outputPath, log)
}

func runInvoicesUpdate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices-cmd")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	patch := models.InvoicePatch{UserID: args[0]}
	patch.Status, _ = cmd.Flags().GetString("status")
	patch.CustomerName, _ = cmd.Flags().GetString("customer")
	patch.ProviderName, _ = cmd.Flags().GetString("provider")
	patch.InvoiceDate, _ = cmd.Flags().GetString("invoice-date")
	patch.MonthlyDate, _ = cmd.Flags().GetString("monthly-date")
	patch.Notes, _ = cmd.Flags().GetString("notes")
	if raw, _ := cmd.Flags().GetString("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		patch.Amount = &amount
	}
	if patch == (models.InvoicePatch{UserID: patch.UserID}) {
		return errors.New("nothing to update: pass at least one field flag")
	}

	d, err := buildDeps()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	resp, err := d.mutator.Update(ctx, []models.InvoicePatch{patch})
	if err != nil {
		var verr *invoices.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid update: %w", verr)
		}
		return handleAPIError("updating invoice", err, log)
	}

	log.Info().
		Str("user_id", patch.UserID).
		Msg("Invoice updated")
	fmt.Printf("Updated invoice for %s: %s\n", patch.UserID, resp.Message)
	return nil
}

// handleAPIError maps transport failures to messages a shell user can
// act on.
func handleAPIError(op string, err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("API request failed")

	var httpErr *api.HTTPError
	switch {
	case errors.Is(err, api.ErrRequestCanceled):
		return fmt.Errorf("%s was canceled or timed out. Try increasing --timeout", op)
	case errors.As(err, &httpErr):
		return fmt.Errorf("%s failed: the API returned HTTP %d. Check the request parameters and the API logs", op, httpErr.Status)
	case strings.Contains(err.Error(), "connection refused"):
		return fmt.Errorf("%s failed: cannot reach the billing API. Check BILLING_API_BASE_URL", op)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
