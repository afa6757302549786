// Package store defines the persistence collaborator consumed by the
// reconciliation engine, together with an in-memory implementation for tests
// and embedding and a SQLite implementation for standalone use.
//
// The engine never talks to a database directly; every component receives a
// Store so persistence can be swapped without touching matching or status
// logic.
package store

import (
	"context"

	"bank-reconciliation-engine/internal/models"
)

// Store is the persistence contract for the reconciliation engine.
// Implementations must be safe for concurrent use; the periodic worker calls
// into the store from multiple goroutines.
type Store interface {
	// ListUnreconciledBankTransactions returns bank transactions on the
	// account within the range whose reconciliation link is unset, ordered by
	// date ascending.
	ListUnreconciledBankTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error)

	// ListAccountTransactions returns all bank transactions on the account
	// within the range regardless of reconciliation state, ordered by date
	// ascending.
	ListAccountTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error)

	// ListReconciledTransactions returns bank transactions currently linked
	// to the reconciliation.
	ListReconciledTransactions(ctx context.Context, reconciliationID string) ([]*models.BankTransaction, error)

	// GetBankTransaction returns a single bank transaction by ID.
	GetBankTransaction(ctx context.Context, id string) (*models.BankTransaction, error)

	// CreateBankTransaction persists a new bank transaction.
	CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error

	// LinkTransactionToReconciliation sets the transaction's reconciliation
	// link. This is the only mutation performed by the auto-reconciler.
	LinkTransactionToReconciliation(ctx context.Context, transactionID, reconciliationID string) error

	// UnlinkTransaction clears the transaction's reconciliation link.
	UnlinkTransaction(ctx context.Context, transactionID string) error

	// ListStatementTransactions returns the statement lines imported for the
	// reconciliation.
	ListStatementTransactions(ctx context.Context, reconciliationID string) ([]*models.StatementTransaction, error)

	// AddStatementTransactions persists imported statement lines.
	AddStatementTransactions(ctx context.Context, stmts []*models.StatementTransaction) error

	// GetReconciliation returns a reconciliation by ID.
	GetReconciliation(ctx context.Context, id string) (*models.Reconciliation, error)

	// CreateReconciliation persists a new reconciliation.
	CreateReconciliation(ctx context.Context, rec *models.Reconciliation) error

	// SaveReconciliationStatus persists a recomputed status.
	SaveReconciliationStatus(ctx context.Context, id string, status models.ReconciliationStatus) error

	// CompleteReconciliation marks the reconciliation completed with optional
	// user notes.
	CompleteReconciliation(ctx context.Context, id, notes string) error

	// ListOpenReconciliations returns all reconciliations still in progress.
	ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error)
}
