package cmd

import (
	"fmt"

	"bank-reconciliation-engine/cmd/reconciled/config"
	"bank-reconciliation-engine/internal/reconciler"
	"bank-reconciliation-engine/internal/store"

	"github.com/spf13/cobra"
)

// Flags for the cycle command
var (
	cycleDBPath           string
	cycleReconciliationID string
	cycleStrategy         string
	cycleAutoThreshold    float64
)

// cycleCmd represents the cycle command
var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run one reconciliation cycle for a single reconciliation",
	Long: `Cycle runs match, auto-apply and status recomputation once for the
given reconciliation and prints a summary.

Examples:
  reconciled cycle --db books.db --reconciliation 4f1c...
  reconciled cycle --db books.db --reconciliation 4f1c... --strategy exclusive`,
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().StringVar(&cycleDBPath, "db", "", "path to the SQLite database (required)")
	cycleCmd.Flags().StringVar(&cycleReconciliationID, "reconciliation", "", "reconciliation ID (required)")
	cycleCmd.Flags().StringVar(&cycleStrategy, "strategy", "greedy", "matching strategy: greedy, exclusive")
	cycleCmd.Flags().Float64Var(&cycleAutoThreshold, "auto-threshold", 0.9, "auto-apply confidence threshold")

	cycleCmd.MarkFlagRequired("db")
	cycleCmd.MarkFlagRequired("reconciliation")
}

func runCycle(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLiteStore(cycleDBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	matching, err := config.CreateMatcherConfig(cycleStrategy, 0, 0)
	if err != nil {
		return err
	}

	serviceConfig, err := config.CreateServiceConfig(0, 0, cycleAutoThreshold, matching)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(st, serviceConfig)
	if err != nil {
		return err
	}

	result, err := service.RunCycleOnce(cmd.Context(), cycleReconciliationID)
	if err != nil {
		return err
	}

	fmt.Printf("Reconciliation: %s\n", result.ReconciliationID)
	fmt.Printf("Candidates:     %d\n", result.Candidates)
	fmt.Printf("Auto-applied:   %d\n", result.Applied)
	fmt.Printf("Status:         %s\n", result.Status)
	fmt.Printf("Duration:       %s\n", result.Duration)

	return nil
}
