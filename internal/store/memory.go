package store

import (
	"context"
	"sort"
	"sync"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs the test suites
// and serves as the default store when no database is configured.
type MemoryStore struct {
	mu              sync.RWMutex
	transactions    map[string]*models.BankTransaction
	statements      map[string]*models.StatementTransaction
	reconciliations map[string]*models.Reconciliation
}

// Compile-time check that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions:    make(map[string]*models.BankTransaction),
		statements:      make(map[string]*models.StatementTransaction),
		reconciliations: make(map[string]*models.Reconciliation),
	}
}

// ListUnreconciledBankTransactions implements Store
func (m *MemoryStore) ListUnreconciledBankTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.BankTransaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID && tx.ReconciliationID == nil && dateRange.Contains(tx.Date) {
			result = append(result, copyTransaction(tx))
		}
	}

	sortByDate(result)
	return result, nil
}

// ListAccountTransactions implements Store
func (m *MemoryStore) ListAccountTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.BankTransaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID && dateRange.Contains(tx.Date) {
			result = append(result, copyTransaction(tx))
		}
	}

	sortByDate(result)
	return result, nil
}

// ListReconciledTransactions implements Store
func (m *MemoryStore) ListReconciledTransactions(ctx context.Context, reconciliationID string) ([]*models.BankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.BankTransaction
	for _, tx := range m.transactions {
		if tx.ReconciliationID != nil && *tx.ReconciliationID == reconciliationID {
			result = append(result, copyTransaction(tx))
		}
	}

	sortByDate(result)
	return result, nil
}

// GetBankTransaction implements Store
func (m *MemoryStore) GetBankTransaction(ctx context.Context, id string) (*models.BankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok {
		return nil, errors.StorageError(errors.CodeNotFound, "bank transaction", id, nil)
	}

	return copyTransaction(tx), nil
}

// CreateBankTransaction implements Store
func (m *MemoryStore) CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	if err := tx.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid bank transaction")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.transactions[tx.ID]; exists {
		return errors.StorageError(errors.CodeConflict, "bank transaction", tx.ID, nil)
	}

	m.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

// LinkTransactionToReconciliation implements Store
func (m *MemoryStore) LinkTransactionToReconciliation(ctx context.Context, transactionID, reconciliationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[transactionID]
	if !ok {
		return errors.StorageError(errors.CodeNotFound, "bank transaction", transactionID, nil)
	}

	id := reconciliationID
	tx.ReconciliationID = &id
	return nil
}

// UnlinkTransaction implements Store
func (m *MemoryStore) UnlinkTransaction(ctx context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[transactionID]
	if !ok {
		return errors.StorageError(errors.CodeNotFound, "bank transaction", transactionID, nil)
	}

	tx.ReconciliationID = nil
	return nil
}

// ListStatementTransactions implements Store
func (m *MemoryStore) ListStatementTransactions(ctx context.Context, reconciliationID string) ([]*models.StatementTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.StatementTransaction
	for _, st := range m.statements {
		if st.ReconciliationID == reconciliationID {
			copied := *st
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID < result[j].ID
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// AddStatementTransactions implements Store
func (m *MemoryStore) AddStatementTransactions(ctx context.Context, stmts []*models.StatementTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, st := range stmts {
		if err := st.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid statement transaction")
		}
		copied := *st
		m.statements[st.ID] = &copied
	}

	return nil
}

// GetReconciliation implements Store
func (m *MemoryStore) GetReconciliation(ctx context.Context, id string) (*models.Reconciliation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.reconciliations[id]
	if !ok {
		return nil, errors.StorageError(errors.CodeNotFound, "reconciliation", id, nil)
	}

	copied := *rec
	return &copied, nil
}

// CreateReconciliation implements Store
func (m *MemoryStore) CreateReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	if err := rec.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid reconciliation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reconciliations[rec.ID]; exists {
		return errors.StorageError(errors.CodeConflict, "reconciliation", rec.ID, nil)
	}

	copied := *rec
	m.reconciliations[rec.ID] = &copied
	return nil
}

// SaveReconciliationStatus implements Store
func (m *MemoryStore) SaveReconciliationStatus(ctx context.Context, id string, status models.ReconciliationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.reconciliations[id]
	if !ok {
		return errors.StorageError(errors.CodeNotFound, "reconciliation", id, nil)
	}

	rec.Status = status
	return nil
}

// CompleteReconciliation implements Store
func (m *MemoryStore) CompleteReconciliation(ctx context.Context, id, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.reconciliations[id]
	if !ok {
		return errors.StorageError(errors.CodeNotFound, "reconciliation", id, nil)
	}

	rec.Status = models.StatusCompleted
	rec.Notes = notes
	return nil
}

// ListOpenReconciliations implements Store
func (m *MemoryStore) ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*models.Reconciliation
	for _, rec := range m.reconciliations {
		if rec.Status == models.StatusInProgress {
			copied := *rec
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func copyTransaction(tx *models.BankTransaction) *models.BankTransaction {
	copied := *tx
	if tx.ReconciliationID != nil {
		id := *tx.ReconciliationID
		copied.ReconciliationID = &id
	}
	return &copied
}

func sortByDate(txs []*models.BankTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Date.Equal(txs[j].Date) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Date.Before(txs[j].Date)
	})
}
