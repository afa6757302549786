package matcher

import (
	"sort"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/logger"
)

// Engine is the core matching engine. It is stateless apart from its
// configuration and safe for concurrent use.
type Engine struct {
	config *Config
	logger logger.Logger
}

// NewEngine creates a matching engine with the given configuration.
// A nil configuration selects the defaults.
func NewEngine(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Config returns a copy of the engine's configuration
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// FindMatches produces the best statement candidate for each bank transaction.
//
// For every bank transaction, in input order, all statement transactions are
// scored; pairs scoring at or below the confidence floor are discarded, and the
// highest-scoring survivor becomes the candidate (ties broken by earliest
// statement input order). Bank transactions with no surviving pair are omitted
// from the result entirely.
//
// Malformed records (zero amount or zero date) are excluded from scoring with
// a logged warning; they never abort the pass.
func (e *Engine) FindMatches(bankTxs []*models.BankTransaction, stmtTxs []*models.StatementTransaction) []*models.MatchCandidate {
	statements := e.filterStatements(stmtTxs)

	var candidates []*models.MatchCandidate
	for _, tx := range bankTxs {
		if tx.Amount.IsZero() || tx.Date.IsZero() {
			e.logger.WithField("transaction_id", tx.ID).
				Warn("Skipping malformed bank transaction: missing amount or date")
			continue
		}

		best := e.bestCandidate(tx, statements)
		if best != nil {
			candidates = append(candidates, best)
		}
	}

	if e.config.Strategy == StrategyExclusive {
		candidates = resolveExclusive(candidates)
	}

	return candidates
}

// bestCandidate returns the highest-scoring statement pairing above the
// confidence floor, or nil when no statement qualifies.
func (e *Engine) bestCandidate(tx *models.BankTransaction, statements []*models.StatementTransaction) *models.MatchCandidate {
	var best *models.MatchCandidate

	for _, st := range statements {
		score := e.Score(tx, st)
		if score <= e.config.MinScore {
			continue
		}

		// Strict comparison keeps the earliest statement on ties.
		if best == nil || score > best.Score {
			best = &models.MatchCandidate{
				BankTransaction:      tx,
				StatementTransaction: st,
				Score:                score,
			}
		}
	}

	return best
}

func (e *Engine) filterStatements(stmtTxs []*models.StatementTransaction) []*models.StatementTransaction {
	statements := make([]*models.StatementTransaction, 0, len(stmtTxs))
	for _, st := range stmtTxs {
		if st.Amount.IsZero() || st.Date.IsZero() {
			e.logger.WithField("statement_id", st.ID).
				Warn("Skipping malformed statement transaction: missing amount or date")
			continue
		}
		statements = append(statements, st)
	}
	return statements
}

// resolveExclusive reduces a greedy selection to a one-to-one assignment.
// Candidates are visited in descending score order and each statement
// transaction is claimed at most once; later candidates for an already
// claimed statement are dropped.
func resolveExclusive(candidates []*models.MatchCandidate) []*models.MatchCandidate {
	ordered := make([]*models.MatchCandidate, len(candidates))
	copy(ordered, candidates)

	// Stable sort keeps bank-transaction input order on equal scores.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	claimed := make(map[string]bool, len(ordered))
	resolved := make([]*models.MatchCandidate, 0, len(ordered))

	for _, c := range ordered {
		if claimed[c.StatementTransaction.ID] {
			continue
		}
		claimed[c.StatementTransaction.ID] = true
		resolved = append(resolved, c)
	}

	return resolved
}
