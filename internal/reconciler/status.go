package reconciler

import (
	"context"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// UpdateStatus recomputes the reconciliation's status from its transaction
// set and persists the result. The computation is always from scratch and
// therefore idempotent: two consecutive calls with no intervening transaction
// changes yield the same status.
//
// Precedence:
//  1. any unreconciled transaction in the period -> in_progress
//  2. computed balance within tolerance of the declared end balance -> completed
//  3. otherwise -> discrepancy
func (s *Service) UpdateStatus(ctx context.Context, rec *models.Reconciliation) (*models.Reconciliation, error) {
	unreconciled, err := s.store.ListUnreconciledBankTransactions(ctx, rec.AccountID, rec.Period())
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, rec.ID, err)
	}

	linked, err := s.store.ListReconciledTransactions(ctx, rec.ID)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, rec.ID, err)
	}

	status := s.computeStatus(rec, len(unreconciled), linked)

	if err := s.store.SaveReconciliationStatus(ctx, rec.ID, status); err != nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, rec.ID, err)
	}

	updated := *rec
	updated.Status = status
	return &updated, nil
}

// computeStatus derives the status from the unreconciled count, the linked
// transactions and the declared balances.
func (s *Service) computeStatus(rec *models.Reconciliation, unreconciledCount int, linked []*models.BankTransaction) models.ReconciliationStatus {
	if unreconciledCount > 0 {
		return models.StatusInProgress
	}

	totalReconciled := decimal.Zero
	for _, tx := range linked {
		totalReconciled = totalReconciled.Add(tx.SignedAmount())
	}

	difference := rec.EndBalance.Sub(rec.StartBalance.Add(totalReconciled)).Abs()
	if difference.LessThan(s.config.BalanceTolerance) {
		return models.StatusCompleted
	}

	return models.StatusDiscrepancy
}
