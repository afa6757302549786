// Package matcher implements confidence scoring and candidate selection for
// bank reconciliation. It rates each (bank transaction, statement transaction)
// pair with a weighted score over amount, date proximity and description
// similarity, then selects the best statement candidate per bank transaction.
//
// Two selection strategies are supported:
//   - StrategyGreedy selects each bank transaction's best candidate
//     independently; one statement line may back several candidates.
//   - StrategyExclusive resolves the greedy selection into a one-to-one
//     assignment, claiming each statement line for at most one candidate.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	candidates := engine.FindMatches(bankTxs, stmtTxs)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy selects how best candidates are resolved across bank transactions
type Strategy string

const (
	// StrategyGreedy picks each bank transaction's top candidate independently.
	// A statement transaction may be the top candidate for more than one bank
	// transaction, which can double-count during auto-reconciliation. This
	// mirrors the historical behavior and remains the default.
	StrategyGreedy Strategy = "greedy"

	// StrategyExclusive runs a second pass over the greedy selection, claiming
	// each statement transaction for at most one bank transaction in
	// descending score order.
	StrategyExclusive Strategy = "exclusive"
)

// IsValid checks if the strategy is known
func (s Strategy) IsValid() bool {
	return s == StrategyGreedy || s == StrategyExclusive
}

// Weights defines the relative importance of the scoring criteria.
// The three weights sum to 1.0 so the total score is naturally bounded.
type Weights struct {
	Amount      float64 `json:"amount"`
	Date        float64 `json:"date"`
	Description float64 `json:"description"`
}

// Validate checks if the weights are valid
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{
		"amount":      w.Amount,
		"date":        w.Date,
		"description": w.Description,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, v)
		}
	}

	total := w.Amount + w.Date + w.Description
	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("weights should sum to 1.0, got %f", total)
	}

	return nil
}

// Config holds the tunable parameters of the matching engine
type Config struct {
	// AmountTolerance is the maximum absolute difference for two amounts to
	// count as matching (default one cent)
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// DateToleranceDays is the window within which the date term decays
	// linearly from full weight to zero
	DateToleranceDays int `json:"date_tolerance_days"`

	// MinScore is the confidence floor; pairs scoring at or below it are
	// never candidates
	MinScore float64 `json:"min_score"`

	// Strategy selects greedy or exclusive candidate resolution
	Strategy Strategy `json:"strategy"`

	// Weights are the scoring term weights
	Weights Weights `json:"weights"`
}

// DefaultConfig returns a configuration with the standard thresholds
func DefaultConfig() *Config {
	return &Config{
		AmountTolerance:   decimal.NewFromFloat(0.01),
		DateToleranceDays: 3,
		MinScore:          0.5,
		Strategy:          StrategyGreedy,
		Weights: Weights{
			Amount:      0.5,
			Date:        0.3,
			Description: 0.2,
		},
	}
}

// Validate checks if the matching configuration is valid
func (c *Config) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance)
	}

	if c.DateToleranceDays <= 0 {
		return fmt.Errorf("date tolerance days must be positive: %d", c.DateToleranceDays)
	}

	if c.MinScore < 0.0 || c.MinScore >= 1.0 {
		return fmt.Errorf("minimum score must be in [0.0, 1.0): %f", c.MinScore)
	}

	if !c.Strategy.IsValid() {
		return fmt.Errorf("unknown matching strategy: %s", c.Strategy)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("MatcherConfig{AmountTolerance: %s, DateTolerance: %d days, MinScore: %.2f, Strategy: %s}",
		c.AmountTolerance, c.DateToleranceDays, c.MinScore, c.Strategy)
}
