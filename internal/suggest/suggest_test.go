package suggest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/store"

	"github.com/shopspring/decimal"
)

func testTx(id, amount string, day int, description string) *models.BankTransaction {
	return &models.BankTransaction{
		ID:          id,
		AccountID:   "acct-1",
		Amount:      decimal.RequireFromString(amount),
		Type:        models.TransactionTypeDebit,
		Date:        time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Description: description,
	}
}

func seedStore(t *testing.T, txs ...*models.BankTransaction) *store.MemoryStore {
	t.Helper()

	st := store.NewMemoryStore()
	for _, tx := range txs {
		if err := st.CreateBankTransaction(context.Background(), tx); err != nil {
			t.Fatalf("CreateBankTransaction(%s) error = %v", tx.ID, err)
		}
	}
	return st
}

func TestSuggestRanksByCombinedSimilarity(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent January")

	both := testTx("tx-both", "100.00", 11, "Office Rent January")
	amountOnly := testTx("tx-amount", "100.00", 9, "zzzz")
	descOnly := testTx("tx-desc", "250.00", 12, "Office Rent January")
	neither := testTx("tx-neither", "999.99", 11, "zzzz")

	st := seedStore(t, target, both, amountOnly, descOnly, neither)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	// both: 0.6 + 0.4 = 1.0, amountOnly: 0.6, descOnly: 0.4; neither dropped.
	wantOrder := []string{"tx-both", "tx-amount", "tx-desc"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Suggest() returned %d suggestions, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("suggestion[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestSuggestExcludesTargetTransaction(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent")
	st := seedStore(t, target)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if len(got) != 0 {
		t.Errorf("the target transaction must never suggest itself, got %d suggestions", len(got))
	}
}

func TestSuggestDescriptionThreshold(t *testing.T) {
	target := testTx("tx-target", "500.00", 10, "night")

	// "night" vs "nacht" share one bigram out of four each: similarity 0.25,
	// below the 0.7 threshold, so the description term contributes nothing.
	weak := testTx("tx-weak", "100.00", 10, "nacht")

	st := seedStore(t, target, weak)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if len(got) != 0 {
		t.Errorf("sub-threshold description similarity should yield no suggestion, got %d", len(got))
	}
}

func TestSuggestDateWindow(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent")

	inside := testTx("tx-inside", "100.00", 13, "zzzz")
	outside := testTx("tx-outside", "100.00", 14, "zzzz")

	st := seedStore(t, target, inside, outside)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("Suggest() returned %d suggestions, want 1", len(got))
	}
	if got[0].ID != "tx-inside" {
		t.Errorf("expected tx-inside within the window, got %s", got[0].ID)
	}
}

func TestSuggestLimit(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent")

	txs := []*models.BankTransaction{target}
	for i := 0; i < 8; i++ {
		txs = append(txs, testTx(fmt.Sprintf("tx-%d", i), "100.00", 10, "zzzz"))
	}

	st := seedStore(t, txs...)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if len(got) != 5 {
		t.Errorf("Suggest() returned %d suggestions, want the default limit of 5", len(got))
	}
}

func TestSuggestIgnoresOtherAccounts(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent")

	other := testTx("tx-other", "100.00", 10, "Office Rent")
	other.AccountID = "acct-2"

	st := seedStore(t, target, other)
	service := NewService(st)

	got, err := service.Suggest(context.Background(), target, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	if len(got) != 0 {
		t.Errorf("suggestions must stay within the account, got %d", len(got))
	}
}

func TestSuggestDoesNotMutate(t *testing.T) {
	ctx := context.Background()

	target := testTx("tx-target", "100.00", 10, "Office Rent")
	match := testTx("tx-match", "100.00", 11, "Office Rent")

	st := seedStore(t, target, match)
	service := NewService(st)

	if _, err := service.Suggest(ctx, target, nil); err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	for _, id := range []string{"tx-target", "tx-match"} {
		tx, err := st.GetBankTransaction(ctx, id)
		if err != nil {
			t.Fatalf("GetBankTransaction(%s) error = %v", id, err)
		}
		if tx.IsReconciled() {
			t.Errorf("%s was linked by a read-only suggestion pass", id)
		}
	}
}

func TestSuggestByID(t *testing.T) {
	target := testTx("tx-target", "100.00", 10, "Office Rent")
	match := testTx("tx-match", "100.00", 11, "Office Rent")

	st := seedStore(t, target, match)
	service := NewService(st)

	got, err := service.SuggestByID(context.Background(), "tx-target", nil)
	if err != nil {
		t.Fatalf("SuggestByID() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "tx-match" {
		t.Errorf("SuggestByID() = %v, want [tx-match]", got)
	}

	if _, err := service.SuggestByID(context.Background(), "missing", nil); err == nil {
		t.Error("expected error for unknown transaction ID")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Options)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			modify: func(o *Options) {},
		},
		{
			name:    "negative date threshold",
			modify:  func(o *Options) { o.DateThresholdDays = -1 },
			wantErr: true,
		},
		{
			name:    "negative amount threshold",
			modify:  func(o *Options) { o.AmountThreshold = o.AmountThreshold.Neg() },
			wantErr: true,
		},
		{
			name:    "description threshold above one",
			modify:  func(o *Options) { o.DescriptionThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero limit",
			modify:  func(o *Options) { o.Limit = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(opts)

			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
