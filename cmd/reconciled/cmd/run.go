package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"bank-reconciliation-engine/cmd/reconciled/config"
	"bank-reconciliation-engine/internal/reconciler"
	"bank-reconciliation-engine/internal/store"

	"github.com/spf13/cobra"
)

// Flags for the run command
var (
	runDBPath        string
	runInterval      time.Duration
	runConcurrency   int
	runStrategy      string
	runAutoThreshold float64
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the periodic reconciliation worker",
	Long: `Run starts the background worker that scans all in-progress
reconciliations on a fixed interval, matching unreconciled bank transactions
against imported statement transactions, auto-applying high-confidence matches
and recomputing each reconciliation's status.

The worker stops cleanly on SIGINT/SIGTERM.

Examples:
  reconciled run --db books.db
  reconciled run --db books.db --interval 1m --concurrency 8
  reconciled run --db books.db --strategy exclusive`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDBPath, "db", "", "path to the SQLite database (required)")
	runCmd.Flags().DurationVar(&runInterval, "interval", 5*time.Minute, "scan interval")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 4, "reconciliations processed in parallel per scan")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "greedy", "matching strategy: greedy, exclusive")
	runCmd.Flags().Float64Var(&runAutoThreshold, "auto-threshold", 0.9, "auto-apply confidence threshold")

	runCmd.MarkFlagRequired("db")
}

func runWorker(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLiteStore(runDBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	matching, err := config.CreateMatcherConfig(runStrategy, 0, 0)
	if err != nil {
		return err
	}

	serviceConfig, err := config.CreateServiceConfig(runInterval, runConcurrency, runAutoThreshold, matching)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(st, serviceConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := reconciler.NewWorker(service)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
