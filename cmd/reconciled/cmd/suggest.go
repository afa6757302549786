package cmd

import (
	"fmt"

	"bank-reconciliation-engine/cmd/reconciled/config"
	"bank-reconciliation-engine/internal/store"
	"bank-reconciliation-engine/internal/suggest"

	"github.com/spf13/cobra"
)

// Flags for the suggest command
var (
	suggestDBPath        string
	suggestTransactionID string
	suggestDateThreshold int
	suggestAmountThresh  float64
	suggestDescThreshold float64
	suggestLimit         int
)

// suggestCmd represents the suggest command
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest similar transactions for manual review",
	Long: `Suggest prints ranked candidate transactions similar to the given one,
restricted to the same account within a date window. Suggestions are advisory;
nothing is linked.

Examples:
  reconciled suggest --db books.db --transaction 9a2e...
  reconciled suggest --db books.db --transaction 9a2e... --limit 10`,
	RunE: runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().StringVar(&suggestDBPath, "db", "", "path to the SQLite database (required)")
	suggestCmd.Flags().StringVar(&suggestTransactionID, "transaction", "", "bank transaction ID (required)")
	suggestCmd.Flags().IntVar(&suggestDateThreshold, "date-threshold", 3, "candidate window in days")
	suggestCmd.Flags().Float64Var(&suggestAmountThresh, "amount-threshold", 0.01, "maximum amount difference for an amount match")
	suggestCmd.Flags().Float64Var(&suggestDescThreshold, "description-threshold", 0.7, "minimum description similarity")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 5, "maximum number of suggestions")

	suggestCmd.MarkFlagRequired("db")
	suggestCmd.MarkFlagRequired("transaction")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLiteStore(suggestDBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	opts, err := config.CreateSuggestOptions(suggestDateThreshold, suggestAmountThresh, suggestDescThreshold, suggestLimit)
	if err != nil {
		return err
	}

	service := suggest.NewService(st)
	suggestions, err := service.SuggestByID(cmd.Context(), suggestTransactionID, opts)
	if err != nil {
		return err
	}

	if len(suggestions) == 0 {
		fmt.Println("No similar transactions found")
		return nil
	}

	for i, tx := range suggestions {
		fmt.Printf("%d. %s  %s  %s  %s\n",
			i+1, tx.ID, tx.Date.Format("2006-01-02"), tx.Amount.StringFixed(2), tx.Description)
	}

	return nil
}
