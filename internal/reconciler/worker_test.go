package reconciler

import (
	"context"
	"testing"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/store"
)

func TestWorkerScanProcessesOpenReconciliations(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	// Both reconciliations have no transactions; one balances, one does not.
	balanced := testReconciliation("rec-balanced", "1000.00", "1000.00")
	unbalanced := testReconciliation("rec-unbalanced", "1000.00", "1200.00")
	for _, rec := range []*models.Reconciliation{balanced, unbalanced} {
		if err := st.CreateReconciliation(ctx, rec); err != nil {
			t.Fatalf("CreateReconciliation() error = %v", err)
		}
	}

	worker := NewWorker(newTestService(t, st))
	worker.Scan(ctx)

	got, err := st.GetReconciliation(ctx, "rec-balanced")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("rec-balanced status = %s, want %s", got.Status, models.StatusCompleted)
	}

	got, err = st.GetReconciliation(ctx, "rec-unbalanced")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusDiscrepancy {
		t.Errorf("rec-unbalanced status = %s, want %s", got.Status, models.StatusDiscrepancy)
	}
}

func TestWorkerSkipsReconciliationAlreadyRunning(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	rec := testReconciliation("rec-1", "1000.00", "1000.00")
	if err := st.CreateReconciliation(ctx, rec); err != nil {
		t.Fatalf("CreateReconciliation() error = %v", err)
	}

	worker := NewWorker(newTestService(t, st))

	// Simulate a cycle still in flight by holding the reconciliation's lock.
	lock := worker.lockFor("rec-1")
	lock.Lock()
	defer lock.Unlock()

	worker.runLocked(ctx, "rec-1")

	got, err := st.GetReconciliation(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("skipped reconciliation should be untouched, status = %s", got.Status)
	}
}

func TestWorkerScanContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()

	failing := testReconciliation("rec-failing", "1000.00", "1000.00")
	healthy := testReconciliation("rec-healthy", "1000.00", "1000.00")
	for _, rec := range []*models.Reconciliation{failing, healthy} {
		if err := mem.CreateReconciliation(ctx, rec); err != nil {
			t.Fatalf("CreateReconciliation() error = %v", err)
		}
	}

	tx := testBankTx("tx-fail", "100.00", models.TransactionTypeCredit, 10, "payment")
	if err := mem.CreateBankTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateBankTransaction() error = %v", err)
	}
	stmt := testStmtTx("st-fail", "rec-failing", "100.00", 10, "payment")
	if err := mem.AddStatementTransactions(ctx, []*models.StatementTransaction{stmt}); err != nil {
		t.Fatalf("AddStatementTransactions() error = %v", err)
	}

	// The link step fails for rec-failing's only transaction; rec-healthy must
	// still be processed.
	worker := NewWorker(newTestService(t, &flakyStore{Store: mem, failID: "tx-fail"}))
	worker.Scan(ctx)

	got, err := mem.GetReconciliation(ctx, "rec-healthy")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("rec-healthy status = %s, want %s", got.Status, models.StatusCompleted)
	}
}

func TestWorkerRunStopsOnContextCancel(t *testing.T) {
	st := store.NewMemoryStore()
	worker := NewWorker(newTestService(t, st))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
