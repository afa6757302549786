package matcher

import (
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/similarity"
)

// Score computes the confidence score for one bank transaction against one
// statement transaction using the engine's configured weights. The result is
// in [0, 1]; the function is deterministic and performs no I/O.
//
// The score is a weighted sum of three independently capped terms:
//   - amount: full weight when the absolute difference is below the tolerance,
//     zero otherwise
//   - date: linear decay from full weight at zero days difference to zero at
//     the date tolerance
//   - description: weight scaled by the case-insensitive Dice similarity of
//     the descriptions
func (e *Engine) Score(tx *models.BankTransaction, st *models.StatementTransaction) float64 {
	score := 0.0

	if tx.Amount.Sub(st.Amount).Abs().LessThan(e.config.AmountTolerance) {
		score += e.config.Weights.Amount
	}

	tolerance := float64(e.config.DateToleranceDays)
	if days := daysBetween(tx.Date, st.Date); days <= tolerance {
		score += e.config.Weights.Date * (1.0 - days/tolerance)
	}

	score += e.config.Weights.Description * similarity.CompareFold(tx.Description, st.Description)

	return score
}

// Score rates a pair with the default configuration. It is the stable seam
// for verifying scoring behavior in isolation.
func Score(tx *models.BankTransaction, st *models.StatementTransaction) float64 {
	return NewEngine(nil).Score(tx, st)
}

// daysBetween returns the absolute difference between two instants in
// fractional days.
func daysBetween(a, b time.Time) float64 {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff.Hours() / 24.0
}
