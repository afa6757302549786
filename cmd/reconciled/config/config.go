// Package config builds engine configurations from CLI flag values.
package config

import (
	"time"

	"bank-reconciliation-engine/internal/matcher"
	"bank-reconciliation-engine/internal/reconciler"
	"bank-reconciliation-engine/internal/suggest"

	"github.com/shopspring/decimal"
)

// CreateMatcherConfig creates a matching configuration with CLI overrides applied
func CreateMatcherConfig(strategy string, dateTolerance int, minScore float64) (*matcher.Config, error) {
	config := matcher.DefaultConfig()

	if strategy != "" {
		config.Strategy = matcher.Strategy(strategy)
	}
	if dateTolerance > 0 {
		config.DateToleranceDays = dateTolerance
	}
	if minScore > 0 {
		config.MinScore = minScore
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateServiceConfig creates a reconciler configuration with CLI overrides applied
func CreateServiceConfig(interval time.Duration, concurrency int, autoThreshold float64, matching *matcher.Config) (*reconciler.Config, error) {
	config := reconciler.DefaultConfig()

	if interval > 0 {
		config.ScanInterval = interval
	}
	if concurrency > 0 {
		config.Concurrency = concurrency
	}
	if autoThreshold > 0 {
		config.AutoApplyThreshold = autoThreshold
	}
	if matching != nil {
		config.Matching = matching
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CreateSuggestOptions creates suggestion options with CLI overrides applied
func CreateSuggestOptions(dateThreshold int, amountThreshold, descriptionThreshold float64, limit int) (*suggest.Options, error) {
	opts := suggest.DefaultOptions()

	if dateThreshold > 0 {
		opts.DateThresholdDays = dateThreshold
	}
	if amountThreshold > 0 {
		opts.AmountThreshold = decimal.NewFromFloat(amountThreshold)
	}
	if descriptionThreshold > 0 {
		opts.DescriptionThreshold = descriptionThreshold
	}
	if limit > 0 {
		opts.Limit = limit
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}
