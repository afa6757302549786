package store

import (
	"context"
	"testing"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

func memTx(id, amount string, day int) *models.BankTransaction {
	return &models.BankTransaction{
		ID:          id,
		AccountID:   "acct-1",
		Amount:      decimal.RequireFromString(amount),
		Type:        models.TransactionTypeDebit,
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Description: "test transaction",
	}
}

func memRec(id string) *models.Reconciliation {
	return &models.Reconciliation{
		ID:           id,
		AccountID:    "acct-1",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		StartBalance: decimal.RequireFromString("1000.00"),
		EndBalance:   decimal.RequireFromString("1500.00"),
		Status:       models.StatusInProgress,
	}
}

func januaryRange() models.DateRange {
	return models.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreCreateAndGetTransaction(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	tx := memTx("tx-1", "100.00", 10)
	if err := st.CreateBankTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateBankTransaction() error = %v", err)
	}

	got, err := st.GetBankTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetBankTransaction() error = %v", err)
	}
	if got.ID != "tx-1" || !got.Amount.Equal(tx.Amount) {
		t.Errorf("GetBankTransaction() = %v, want %v", got, tx)
	}

	// Duplicate IDs conflict.
	if err := st.CreateBankTransaction(ctx, memTx("tx-1", "100.00", 10)); err == nil {
		t.Error("expected conflict on duplicate transaction ID")
	}

	// Invalid records are rejected.
	if err := st.CreateBankTransaction(ctx, memTx("", "100.00", 10)); err == nil {
		t.Error("expected validation error for empty ID")
	}
}

func TestMemoryStoreGetTransactionNotFound(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.GetBankTransaction(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown transaction")
	}
	if !errors.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestMemoryStoreLinkAndUnlink(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.CreateBankTransaction(ctx, memTx("tx-1", "100.00", 10)); err != nil {
		t.Fatalf("CreateBankTransaction() error = %v", err)
	}

	if err := st.LinkTransactionToReconciliation(ctx, "tx-1", "rec-1"); err != nil {
		t.Fatalf("LinkTransactionToReconciliation() error = %v", err)
	}

	got, err := st.GetBankTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetBankTransaction() error = %v", err)
	}
	if !got.IsReconciled() || *got.ReconciliationID != "rec-1" {
		t.Errorf("transaction not linked: %v", got.ReconciliationID)
	}

	if err := st.UnlinkTransaction(ctx, "tx-1"); err != nil {
		t.Fatalf("UnlinkTransaction() error = %v", err)
	}

	got, err = st.GetBankTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetBankTransaction() error = %v", err)
	}
	if got.IsReconciled() {
		t.Error("transaction still linked after unlink")
	}

	if err := st.LinkTransactionToReconciliation(ctx, "missing", "rec-1"); !errors.IsNotFound(err) {
		t.Errorf("expected not-found linking unknown transaction, got %v", err)
	}
}

func TestMemoryStoreListUnreconciled(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	inPeriod := memTx("tx-in", "100.00", 10)
	outOfPeriod := memTx("tx-out", "100.00", 10)
	outOfPeriod.Date = time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	linked := memTx("tx-linked", "100.00", 12)
	otherAccount := memTx("tx-other", "100.00", 10)
	otherAccount.AccountID = "acct-2"

	for _, tx := range []*models.BankTransaction{inPeriod, outOfPeriod, linked, otherAccount} {
		if err := st.CreateBankTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateBankTransaction(%s) error = %v", tx.ID, err)
		}
	}
	if err := st.LinkTransactionToReconciliation(ctx, "tx-linked", "rec-1"); err != nil {
		t.Fatalf("LinkTransactionToReconciliation() error = %v", err)
	}

	got, err := st.ListUnreconciledBankTransactions(ctx, "acct-1", januaryRange())
	if err != nil {
		t.Fatalf("ListUnreconciledBankTransactions() error = %v", err)
	}

	if len(got) != 1 || got[0].ID != "tx-in" {
		t.Errorf("ListUnreconciledBankTransactions() = %v, want [tx-in]", got)
	}
}

func TestMemoryStoreListReconciled(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		if err := st.CreateBankTransaction(ctx, memTx(id, "100.00", 10)); err != nil {
			t.Fatalf("CreateBankTransaction() error = %v", err)
		}
	}
	st.LinkTransactionToReconciliation(ctx, "tx-1", "rec-1")
	st.LinkTransactionToReconciliation(ctx, "tx-2", "rec-2")

	got, err := st.ListReconciledTransactions(ctx, "rec-1")
	if err != nil {
		t.Fatalf("ListReconciledTransactions() error = %v", err)
	}

	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Errorf("ListReconciledTransactions() = %v, want [tx-1]", got)
	}
}

func TestMemoryStoreListOrderedByDate(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	for _, tx := range []*models.BankTransaction{
		memTx("tx-late", "100.00", 20),
		memTx("tx-early", "100.00", 5),
		memTx("tx-mid", "100.00", 12),
	} {
		if err := st.CreateBankTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateBankTransaction() error = %v", err)
		}
	}

	got, err := st.ListUnreconciledBankTransactions(ctx, "acct-1", januaryRange())
	if err != nil {
		t.Fatalf("ListUnreconciledBankTransactions() error = %v", err)
	}

	want := []string{"tx-early", "tx-mid", "tx-late"}
	if len(got) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.CreateBankTransaction(ctx, memTx("tx-1", "100.00", 10)); err != nil {
		t.Fatalf("CreateBankTransaction() error = %v", err)
	}

	got, err := st.GetBankTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetBankTransaction() error = %v", err)
	}

	// Mutating the returned record must not leak into the store.
	id := "rogue"
	got.ReconciliationID = &id
	got.Description = "changed"

	fresh, err := st.GetBankTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetBankTransaction() error = %v", err)
	}
	if fresh.IsReconciled() || fresh.Description != "test transaction" {
		t.Error("store state leaked through a returned copy")
	}
}

func TestMemoryStoreStatementTransactions(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	stmts := []*models.StatementTransaction{
		{ID: "st-2", ReconciliationID: "rec-1", Amount: decimal.RequireFromString("50.00"), Date: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), Description: "b"},
		{ID: "st-1", ReconciliationID: "rec-1", Amount: decimal.RequireFromString("25.00"), Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Description: "a"},
		{ID: "st-3", ReconciliationID: "rec-2", Amount: decimal.RequireFromString("75.00"), Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Description: "c"},
	}
	if err := st.AddStatementTransactions(ctx, stmts); err != nil {
		t.Fatalf("AddStatementTransactions() error = %v", err)
	}

	got, err := st.ListStatementTransactions(ctx, "rec-1")
	if err != nil {
		t.Fatalf("ListStatementTransactions() error = %v", err)
	}

	want := []string{"st-1", "st-2"}
	if len(got) != len(want) {
		t.Fatalf("got %d statements, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMemoryStoreReconciliationLifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	rec := memRec("rec-1")
	if err := st.CreateReconciliation(ctx, rec); err != nil {
		t.Fatalf("CreateReconciliation() error = %v", err)
	}
	if err := st.CreateReconciliation(ctx, memRec("rec-1")); err == nil {
		t.Error("expected conflict on duplicate reconciliation ID")
	}

	if err := st.SaveReconciliationStatus(ctx, "rec-1", models.StatusDiscrepancy); err != nil {
		t.Fatalf("SaveReconciliationStatus() error = %v", err)
	}
	got, err := st.GetReconciliation(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusDiscrepancy {
		t.Errorf("status = %s, want %s", got.Status, models.StatusDiscrepancy)
	}

	if err := st.CompleteReconciliation(ctx, "rec-1", "reviewed manually"); err != nil {
		t.Fatalf("CompleteReconciliation() error = %v", err)
	}
	got, err = st.GetReconciliation(ctx, "rec-1")
	if err != nil {
		t.Fatalf("GetReconciliation() error = %v", err)
	}
	if got.Status != models.StatusCompleted || got.Notes != "reviewed manually" {
		t.Errorf("got status=%s notes=%q after completion", got.Status, got.Notes)
	}

	if err := st.SaveReconciliationStatus(ctx, "missing", models.StatusCompleted); !errors.IsNotFound(err) {
		t.Errorf("expected not-found for unknown reconciliation, got %v", err)
	}
}

func TestMemoryStoreListOpenReconciliations(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	open := memRec("rec-open")
	closed := memRec("rec-closed")
	closed.Status = models.StatusCompleted
	anotherOpen := memRec("rec-another")

	for _, rec := range []*models.Reconciliation{open, closed, anotherOpen} {
		if err := st.CreateReconciliation(ctx, rec); err != nil {
			t.Fatalf("CreateReconciliation() error = %v", err)
		}
	}

	got, err := st.ListOpenReconciliations(ctx)
	if err != nil {
		t.Fatalf("ListOpenReconciliations() error = %v", err)
	}

	want := []string{"rec-another", "rec-open"}
	if len(got) != len(want) {
		t.Fatalf("got %d open reconciliations, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
	}
}
