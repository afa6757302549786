package errors

import (
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CategoryStorage, CodeNotFound, "transaction not found")

	if err.Category != CategoryStorage {
		t.Errorf("Category = %s, want %s", err.Category, CategoryStorage)
	}
	if err.Code != CodeNotFound {
		t.Errorf("Code = %s, want %s", err.Code, CodeNotFound)
	}
	if err.Error() != "transaction not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if len(err.StackTrace) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(cause, CategoryStorage, CodeStorageFailed, "failed to save reconciliation")

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
	if got := err.Error(); got != "failed to save reconciliation: disk full" {
		t.Errorf("Error() = %q", got)
	}

	if Wrap(nil, CategoryStorage, CodeStorageFailed, "no-op") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWithContext(t *testing.T) {
	err := New(CategoryValidation, CodeMissingField, "field missing").
		WithContext("field", "amount").
		WithContext("line", 12)

	if err.Context["field"] != "amount" {
		t.Errorf("Context[field] = %v, want amount", err.Context["field"])
	}
	if err.Context["line"] != 12 {
		t.Errorf("Context[line] = %v, want 12", err.Context["line"])
	}
}

func TestStorageErrorMessages(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeNotFound, "bank transaction not found: tx-1"},
		{CodeConflict, "conflicting update for bank transaction: tx-1"},
		{CodeStorageFailed, "storage operation failed for bank transaction: tx-1"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := StorageError(tt.code, "bank transaction", "tx-1", nil)
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if err.Category != CategoryStorage {
				t.Errorf("Category = %s, want %s", err.Category, CategoryStorage)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := StorageError(CodeNotFound, "reconciliation", "rec-1", nil)
	if !IsNotFound(notFound) {
		t.Error("IsNotFound() should be true for a not-found storage error")
	}

	// Wrapping must not hide the code.
	wrapped := fmt.Errorf("lookup failed: %w", notFound)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() should see through wrapping")
	}

	if IsNotFound(fmt.Errorf("plain error")) {
		t.Error("IsNotFound() should be false for unrelated errors")
	}
	if IsNotFound(StorageError(CodeConflict, "reconciliation", "rec-1", nil)) {
		t.Error("IsNotFound() should be false for other storage codes")
	}
}

func TestAsEngineError(t *testing.T) {
	original := ReconciliationError(CodeCycleFailed, "rec-1", fmt.Errorf("boom"))
	wrapped := fmt.Errorf("worker: %w", original)

	got, ok := AsEngineError(wrapped)
	if !ok {
		t.Fatal("AsEngineError() should find the engine error in the chain")
	}
	if got.Code != CodeCycleFailed {
		t.Errorf("Code = %s, want %s", got.Code, CodeCycleFailed)
	}
	if got.Context["reconciliation_id"] != "rec-1" {
		t.Errorf("Context[reconciliation_id] = %v, want rec-1", got.Context["reconciliation_id"])
	}

	if _, ok := AsEngineError(fmt.Errorf("plain")); ok {
		t.Error("AsEngineError() should be false for unrelated errors")
	}
}
