// Package suggest implements the similarity suggestion service: given a
// single unmatched bank transaction it returns ranked candidate transactions
// from the same account for manual review. Suggestions are advisory only;
// the service never mutates state and is safe to call concurrently with the
// periodic reconciliation cycle.
package suggest

import (
	"context"
	"fmt"
	"sort"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/similarity"
	"bank-reconciliation-engine/internal/store"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/shopspring/decimal"
)

// Options controls the suggestion search
type Options struct {
	// DateThresholdDays bounds the candidate pool to transactions within this
	// many days of the target (inclusive window)
	DateThresholdDays int `json:"date_threshold_days"`

	// AmountThreshold is the maximum absolute difference for two amounts to
	// count as matching
	AmountThreshold decimal.Decimal `json:"amount_threshold"`

	// DescriptionThreshold is the minimum description similarity before the
	// description term contributes to the ranking
	DescriptionThreshold float64 `json:"description_threshold"`

	// Limit caps the number of returned suggestions
	Limit int `json:"limit"`
}

// DefaultOptions returns the standard suggestion options
func DefaultOptions() *Options {
	return &Options{
		DateThresholdDays:    3,
		AmountThreshold:      decimal.NewFromFloat(0.01),
		DescriptionThreshold: 0.7,
		Limit:                5,
	}
}

// Validate validates the options
func (o *Options) Validate() error {
	if o.DateThresholdDays < 0 {
		return fmt.Errorf("date threshold days cannot be negative: %d", o.DateThresholdDays)
	}

	if o.AmountThreshold.IsNegative() {
		return fmt.Errorf("amount threshold cannot be negative: %s", o.AmountThreshold)
	}

	if o.DescriptionThreshold < 0.0 || o.DescriptionThreshold > 1.0 {
		return fmt.Errorf("description threshold must be between 0.0 and 1.0: %f", o.DescriptionThreshold)
	}

	if o.Limit <= 0 {
		return fmt.Errorf("limit must be positive: %d", o.Limit)
	}

	return nil
}

// Service finds similar transactions for manual reconciliation review
type Service struct {
	store  store.Store
	logger logger.Logger
}

// NewService creates a suggestion service backed by the given store
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: logger.GetGlobalLogger().WithComponent("suggest"),
	}
}

// Suggest returns transactions on the same account similar to the given one,
// ranked by descending similarity and truncated to the configured limit. The
// input transaction itself is never a candidate. Nil options select the
// defaults.
//
// similarity = (amountMatch ? 0.6 : 0)
//            + (descriptionSimilarity > threshold ? 0.4 * descriptionSimilarity : 0)
//
// Candidates with zero similarity are dropped entirely.
func (s *Service) Suggest(ctx context.Context, tx *models.BankTransaction, opts *Options) ([]*models.BankTransaction, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := opts.Validate(); err != nil {
		return nil, errors.ConfigurationError("suggest_options", err)
	}

	window := models.DateRange{
		Start: tx.Date.AddDate(0, 0, -opts.DateThresholdDays),
		End:   tx.Date.AddDate(0, 0, opts.DateThresholdDays),
	}

	pool, err := s.store.ListAccountTransactions(ctx, tx.AccountID, window)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, tx.ID, err)
	}

	type scored struct {
		tx         *models.BankTransaction
		similarity float64
	}

	var candidates []scored
	for _, candidate := range pool {
		if candidate.ID == tx.ID {
			continue
		}

		score := 0.0
		if candidate.Amount.Sub(tx.Amount).Abs().LessThan(opts.AmountThreshold) {
			score += 0.6
		}

		if descSim := similarity.CompareFold(candidate.Description, tx.Description); descSim > opts.DescriptionThreshold {
			score += 0.4 * descSim
		}

		if score == 0.0 {
			continue
		}

		candidates = append(candidates, scored{tx: candidate, similarity: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	result := make([]*models.BankTransaction, len(candidates))
	for i, c := range candidates {
		result[i] = c.tx
	}

	s.logger.WithFields(logger.Fields{
		"transaction_id": tx.ID,
		"pool":           len(pool),
		"suggestions":    len(result),
	}).Debug("Computed transaction suggestions")

	return result, nil
}

// SuggestByID looks up the transaction and delegates to Suggest
func (s *Service) SuggestByID(ctx context.Context, transactionID string, opts *Options) ([]*models.BankTransaction, error) {
	tx, err := s.store.GetBankTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	return s.Suggest(ctx, tx, opts)
}
