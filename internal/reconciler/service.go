// Package reconciler orchestrates the reconciliation cycle: pulling
// unreconciled bank transactions and imported statement lines for an open
// reconciliation, scoring candidate pairs, auto-applying high-confidence
// matches and recomputing the reconciliation's status.
//
// The package also provides the periodic Worker that runs the cycle for every
// open reconciliation on a fixed interval.
//
// Example usage:
//
//	service, err := reconciler.NewService(st, reconciler.DefaultConfig())
//	result, err := service.RunCycleOnce(ctx, reconciliationID)
package reconciler

import (
	"context"
	"fmt"
	"time"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/store"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds configuration options for the reconciliation service
type Config struct {
	// AutoApplyThreshold is the confidence score a candidate must strictly
	// exceed before it is linked without human confirmation
	AutoApplyThreshold float64 `json:"auto_apply_threshold"`

	// BalanceTolerance is the maximum difference between the declared and
	// computed end balance for a reconciliation to count as completed
	BalanceTolerance decimal.Decimal `json:"balance_tolerance"`

	// ScanInterval is how often the periodic worker scans open reconciliations
	ScanInterval time.Duration `json:"scan_interval"`

	// Concurrency bounds how many reconciliations are processed in parallel
	// per scan
	Concurrency int `json:"concurrency"`

	// Matching configures the matching engine
	Matching *matcher.Config `json:"matching"`
}

// DefaultConfig returns a configuration with the standard thresholds
func DefaultConfig() *Config {
	return &Config{
		AutoApplyThreshold: 0.9,
		BalanceTolerance:   decimal.NewFromFloat(0.01),
		ScanInterval:       5 * time.Minute,
		Concurrency:        4,
		Matching:           matcher.DefaultConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.AutoApplyThreshold <= 0.0 || c.AutoApplyThreshold >= 1.0 {
		return fmt.Errorf("auto-apply threshold must be in (0.0, 1.0): %f", c.AutoApplyThreshold)
	}

	if c.Matching != nil && c.AutoApplyThreshold <= c.Matching.MinScore {
		return fmt.Errorf("auto-apply threshold %f must exceed the matching floor %f",
			c.AutoApplyThreshold, c.Matching.MinScore)
	}

	if c.BalanceTolerance.IsNegative() {
		return fmt.Errorf("balance tolerance cannot be negative: %s", c.BalanceTolerance)
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive: %s", c.ScanInterval)
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive: %d", c.Concurrency)
	}

	if c.Matching != nil {
		if err := c.Matching.Validate(); err != nil {
			return fmt.Errorf("invalid matching config: %w", err)
		}
	}

	return nil
}

// Service runs the reconciliation cycle for individual reconciliations
type Service struct {
	store  store.Store
	engine *matcher.Engine
	config *Config
	logger logger.Logger
}

// CycleResult summarizes a single reconciliation cycle
type CycleResult struct {
	ReconciliationID string                      `json:"reconciliation_id"`
	Candidates       int                         `json:"candidates"`
	Applied          int                         `json:"applied"`
	Status           models.ReconciliationStatus `json:"status"`
	Duration         time.Duration               `json:"duration"`
}

// NewService creates a reconciliation service backed by the given store.
// A nil configuration selects the defaults.
func NewService(st store.Store, config *Config) (*Service, error) {
	if st == nil {
		return nil, errors.ConfigurationError("store", fmt.Errorf("store is required"))
	}

	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("reconciler", err)
	}

	return &Service{
		store:  st,
		engine: matcher.NewEngine(config.Matching),
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Config returns the service configuration
func (s *Service) Config() *Config {
	return s.config
}

// RunCycleOnce executes one full cycle for a single reconciliation:
// match, auto-apply, recompute status. The returned result reports how many
// candidates were found, how many were applied and the recomputed status.
func (s *Service) RunCycleOnce(ctx context.Context, reconciliationID string) (*CycleResult, error) {
	start := time.Now()

	rec, err := s.store.GetReconciliation(ctx, reconciliationID)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeCycleFailed, reconciliationID, err)
	}

	bankTxs, err := s.store.ListUnreconciledBankTransactions(ctx, rec.AccountID, rec.Period())
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeCycleFailed, reconciliationID, err)
	}

	stmtTxs, err := s.store.ListStatementTransactions(ctx, reconciliationID)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeCycleFailed, reconciliationID, err)
	}

	candidates := s.engine.FindMatches(bankTxs, stmtTxs)
	applied := s.ApplyMatches(ctx, reconciliationID, candidates)

	updated, err := s.UpdateStatus(ctx, rec)
	if err != nil {
		// Status persistence is retried by the next scheduled tick.
		return nil, errors.ReconciliationError(errors.CodeProcessingError, reconciliationID, err)
	}

	result := &CycleResult{
		ReconciliationID: reconciliationID,
		Candidates:       len(candidates),
		Applied:          applied,
		Status:           updated.Status,
		Duration:         time.Since(start),
	}

	s.logger.WithFields(logger.Fields{
		"reconciliation_id": reconciliationID,
		"candidates":        result.Candidates,
		"applied":           result.Applied,
		"status":            result.Status,
	}).Info("Reconciliation cycle completed")

	return result, nil
}

// ApplyMatches links every candidate whose score strictly exceeds the
// auto-apply threshold to the reconciliation. A persistence failure on one
// candidate is logged and skipped; the remaining candidates still proceed.
// Returns the number of transactions actually linked.
func (s *Service) ApplyMatches(ctx context.Context, reconciliationID string, candidates []*models.MatchCandidate) int {
	applied := 0

	for _, candidate := range candidates {
		if candidate.Score <= s.config.AutoApplyThreshold {
			continue
		}

		err := s.store.LinkTransactionToReconciliation(ctx, candidate.BankTransaction.ID, reconciliationID)
		if err != nil {
			s.logger.WithError(err).WithFields(logger.Fields{
				"transaction_id":    candidate.BankTransaction.ID,
				"reconciliation_id": reconciliationID,
			}).Error("Failed to link transaction; continuing with remaining candidates")
			continue
		}

		s.logger.WithFields(logger.Fields{
			"transaction_id": candidate.BankTransaction.ID,
			"statement_id":   candidate.StatementTransaction.ID,
			"score":          candidate.Score,
		}).Debug("Auto-reconciled transaction")
		applied++
	}

	return applied
}
