package cmd

import (
	"github.com/spf13/cobra"

	"billingdash/internal/logger"
)

var excelCmd = &cobra.Command{
	Use:   "excel",
	Short: "Inspect uploaded spreadsheet files",
	Long: `Inspect the spreadsheets uploaded alongside the billing data.

The files subcommand lists the uploaded workbooks. The view subcommand
downloads one workbook through a signed URL, decodes its first sheet
and prints the rows as JSON with typed cells (numbers, booleans and
strings).

Required environment variables:
  BILLING_API_BASE_URL - Base URL of the billing API`,
}

var excelFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List uploaded workbooks as JSON",
	Example: `  # List every uploaded workbook
  billingdash excel files`,
	Args: cobra.NoArgs,
	RunE: runExcelFiles,
}

var excelViewCmd = &cobra.Command{
	Use:   "view [file-name]",
	Short: "Decode one workbook and print its rows as JSON",
	Example: `  # Print the decoded sheet to stdout
  billingdash excel view billing-march.xlsx

  # Save the decoded rows for further processing
  billingdash excel view billing-march.xlsx -o rows.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExcelView,
}

func init() {
	rootCmd.AddCommand(excelCmd)
	excelCmd.AddCommand(excelFilesCmd)
	excelCmd.AddCommand(excelViewCmd)

	excelFilesCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	excelFilesCmd.Flags().Int("timeout", 30, "Request timeout in seconds")

	excelViewCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	excelViewCmd.Flags().Int("timeout", 60, "Request timeout in seconds")
}

func runExcelFiles(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("excel-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	d, err := buildDeps()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	files, err := d.excel.ListFiles(ctx)
	if err != nil {
		return handleAPIError("listing files", err, log)
	}

	log.Info().Int("files", len(files)).Msg("File list fetched")
	return outputJSON(files, outputPath, log)
}

func runExcelView(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("excel-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	fileName := args[0]

	d, err := buildDeps()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(timeoutSecs, log)
	defer cancel()

	log.Info().Str("file", fileName).Msg("Downloading and decoding workbook")

	sheet, err := d.excel.LoadSheet(ctx, fileName)
	if err != nil {
		return handleAPIError("loading workbook", err, log)
	}

	out := struct {
		FileID  string           `json:"fileId"`
		Headers []string         `json:"headers"`
		Rows    []map[string]any `json:"rows"`
	}{FileID: sheet.FileID, Headers: sheet.Headers}
	for _, row := range sheet.Rows {
		out.Rows = append(out.Rows, row)
	}

	log.Info().
		Int("rows", len(sheet.Rows)).
		Int("columns", len(sheet.Headers)).
		Msg("Workbook decoded")
	return outputJSON(out, outputPath, log)
}
