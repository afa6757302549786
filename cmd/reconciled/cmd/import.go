package cmd

import (
	"fmt"

	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/store"

	"github.com/spf13/cobra"
)

// Flags for the import command
var (
	importDBPath           string
	importReconciliationID string
	importFile             string
	importAmountColumn     string
	importDateColumn       string
	importDescColumn       string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a statement CSV into a reconciliation",
	Long: `Import parses a statement CSV file and attaches its lines to the
given reconciliation. Malformed rows are reported and skipped; they never
abort the import.

Examples:
  reconciled import --db books.db --reconciliation 4f1c... --file statement.csv
  reconciled import --db books.db --reconciliation 4f1c... --file stmt.csv --date-column posting_date`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importDBPath, "db", "", "path to the SQLite database (required)")
	importCmd.Flags().StringVar(&importReconciliationID, "reconciliation", "", "reconciliation ID (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "path to the statement CSV file (required)")
	importCmd.Flags().StringVar(&importAmountColumn, "amount-column", "amount", "header name of the amount column")
	importCmd.Flags().StringVar(&importDateColumn, "date-column", "date", "header name of the date column")
	importCmd.Flags().StringVar(&importDescColumn, "description-column", "description", "header name of the description column")

	importCmd.MarkFlagRequired("db")
	importCmd.MarkFlagRequired("reconciliation")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLiteStore(importDBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	// The reconciliation must exist before statement lines can be attached.
	if _, err := st.GetReconciliation(cmd.Context(), importReconciliationID); err != nil {
		return err
	}

	parserConfig := parsers.DefaultStatementConfig()
	parserConfig.AmountColumn = importAmountColumn
	parserConfig.DateColumn = importDateColumn
	parserConfig.DescriptionColumn = importDescColumn

	parser, err := parsers.NewStatementParser(parserConfig)
	if err != nil {
		return err
	}

	result, err := parser.ParseFile(importFile, importReconciliationID)
	if err != nil {
		return err
	}

	if err := st.AddStatementTransactions(cmd.Context(), result.Transactions); err != nil {
		return err
	}

	fmt.Printf("Imported:  %d\n", len(result.Transactions))
	fmt.Printf("Skipped:   %d\n", len(result.RowErrors))
	for _, rowErr := range result.RowErrors {
		fmt.Printf("  line %d: %s\n", rowErr.Line, rowErr.Message)
	}

	return nil
}
