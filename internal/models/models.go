// Package models defines the core domain types for the bank reconciliation
// engine: bank-feed transactions, imported statement transactions, the
// reconciliation exercise that binds them, and the transient match candidate
// produced by the matching engine.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a bank transaction
type TransactionType string

const (
	// TransactionTypeCredit represents money entering the account
	TransactionTypeCredit TransactionType = "credit"
	// TransactionTypeDebit represents money leaving the account
	TransactionTypeDebit TransactionType = "debit"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// ReconciliationStatus represents the lifecycle state of a reconciliation
type ReconciliationStatus string

const (
	// StatusInProgress indicates unreconciled transactions remain in the period
	StatusInProgress ReconciliationStatus = "in_progress"
	// StatusCompleted indicates all transactions are linked and balances agree
	StatusCompleted ReconciliationStatus = "completed"
	// StatusDiscrepancy indicates all transactions are linked but the
	// computed balance does not match the declared end balance
	StatusDiscrepancy ReconciliationStatus = "discrepancy"
)

// String returns the string representation of ReconciliationStatus
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsValid checks if the reconciliation status is valid
func (s ReconciliationStatus) IsValid() bool {
	return s == StatusInProgress || s == StatusCompleted || s == StatusDiscrepancy
}

// BankTransaction is a transaction record originating from a live bank-feed
// connection. ReconciliationID is nil while the transaction is unreconciled;
// it is set only by the auto-reconciler or an explicit user action.
type BankTransaction struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Amount           decimal.Decimal `json:"amount"`
	Type             TransactionType `json:"type"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	ReconciliationID *string         `json:"reconciliation_id,omitempty"`
}

// NewBankTransaction creates a new BankTransaction instance
func NewBankTransaction(id, accountID string, amount decimal.Decimal, txType TransactionType, date time.Time, description string) *BankTransaction {
	return &BankTransaction{
		ID:          id,
		AccountID:   accountID,
		Amount:      amount,
		Type:        txType,
		Date:        date,
		Description: description,
	}
}

// Validate performs basic validation on the BankTransaction
func (t *BankTransaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if strings.TrimSpace(t.AccountID) == "" {
		return fmt.Errorf("transaction account ID cannot be empty")
	}

	if t.Amount.IsZero() {
		return fmt.Errorf("transaction amount cannot be zero")
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.Type)
	}

	if t.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	return nil
}

// IsReconciled returns true if the transaction is linked to a reconciliation
func (t *BankTransaction) IsReconciled() bool {
	return t.ReconciliationID != nil
}

// IsCredit returns true if the transaction is a credit
func (t *BankTransaction) IsCredit() bool {
	return t.Type == TransactionTypeCredit
}

// IsDebit returns true if the transaction is a debit
func (t *BankTransaction) IsDebit() bool {
	return t.Type == TransactionTypeDebit
}

// SignedAmount returns the transaction's contribution to the account balance:
// positive for credits, negative for debits.
func (t *BankTransaction) SignedAmount() decimal.Decimal {
	if t.IsDebit() {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// String returns a string representation of the BankTransaction
func (t *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, Account: %s, Amount: %s, Type: %s, Date: %s}",
		t.ID, t.AccountID, t.Amount.String(), t.Type, t.Date.Format("2006-01-02"))
}

// StatementTransaction is a transaction line imported from an externally
// supplied statement (for example an uploaded CSV). It has the same shape as
// a bank transaction but belongs to exactly one reconciliation.
type StatementTransaction struct {
	ID               string          `json:"id"`
	ReconciliationID string          `json:"reconciliation_id"`
	Amount           decimal.Decimal `json:"amount"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
}

// NewStatementTransaction creates a new StatementTransaction instance
func NewStatementTransaction(id, reconciliationID string, amount decimal.Decimal, date time.Time, description string) *StatementTransaction {
	return &StatementTransaction{
		ID:               id,
		ReconciliationID: reconciliationID,
		Amount:           amount,
		Date:             date,
		Description:      description,
	}
}

// Validate performs basic validation on the StatementTransaction
func (st *StatementTransaction) Validate() error {
	if strings.TrimSpace(st.ID) == "" {
		return fmt.Errorf("statement transaction ID cannot be empty")
	}

	if strings.TrimSpace(st.ReconciliationID) == "" {
		return fmt.Errorf("statement transaction reconciliation ID cannot be empty")
	}

	if st.Amount.IsZero() {
		return fmt.Errorf("statement transaction amount cannot be zero")
	}

	if st.Date.IsZero() {
		return fmt.Errorf("statement transaction date cannot be zero")
	}

	return nil
}

// String returns a string representation of the StatementTransaction
func (st *StatementTransaction) String() string {
	return fmt.Sprintf("StatementTransaction{ID: %s, Amount: %s, Date: %s}",
		st.ID, st.Amount.String(), st.Date.Format("2006-01-02"))
}

// Reconciliation is a bounded-period exercise matching bank transactions
// against a statement to confirm account balances. Status is always a pure
// function of the underlying transaction set and declared balances; it is
// recomputed from scratch on every cycle, never incremented.
type Reconciliation struct {
	ID           string               `json:"id"`
	AccountID    string               `json:"account_id"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	StartBalance decimal.Decimal      `json:"start_balance"`
	EndBalance   decimal.Decimal      `json:"end_balance"`
	Status       ReconciliationStatus `json:"status"`
	Notes        string               `json:"notes,omitempty"`
}

// NewReconciliation creates a new Reconciliation in the in_progress state
func NewReconciliation(id, accountID string, startDate, endDate time.Time, startBalance, endBalance decimal.Decimal) *Reconciliation {
	return &Reconciliation{
		ID:           id,
		AccountID:    accountID,
		StartDate:    startDate,
		EndDate:      endDate,
		StartBalance: startBalance,
		EndBalance:   endBalance,
		Status:       StatusInProgress,
	}
}

// Validate performs basic validation on the Reconciliation
func (r *Reconciliation) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("reconciliation ID cannot be empty")
	}

	if strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("reconciliation account ID cannot be empty")
	}

	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("reconciliation date range cannot be zero")
	}

	if r.StartDate.After(r.EndDate) {
		return fmt.Errorf("reconciliation start date must not be after end date")
	}

	if !r.Status.IsValid() {
		return fmt.Errorf("invalid reconciliation status: %s", r.Status)
	}

	return nil
}

// Period returns the reconciliation's date range
func (r *Reconciliation) Period() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// String returns a string representation of the Reconciliation
func (r *Reconciliation) String() string {
	return fmt.Sprintf("Reconciliation{ID: %s, Account: %s, Period: %s..%s, Status: %s}",
		r.ID, r.AccountID, r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"), r.Status)
}

// MatchCandidate pairs one bank transaction with one statement transaction
// and the confidence score of that pairing. Candidates are transient; they
// are never persisted.
type MatchCandidate struct {
	BankTransaction      *BankTransaction
	StatementTransaction *StatementTransaction
	Score                float64
}

// String returns a string representation of the MatchCandidate
func (mc *MatchCandidate) String() string {
	return fmt.Sprintf("MatchCandidate{Bank: %s, Statement: %s, Score: %.3f}",
		mc.BankTransaction.ID, mc.StatementTransaction.ID, mc.Score)
}

// DateRange represents an inclusive date interval
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range (inclusive on both ends)
func (dr DateRange) Contains(t time.Time) bool {
	return !t.Before(dr.Start) && !t.After(dr.End)
}

// Utility functions for type conversion and validation

// ParseDecimalFromString parses a decimal value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "c", "cr":
		return TransactionTypeCredit, nil
	case "debit", "d", "dr":
		return TransactionTypeDebit, nil
	default:
		return "", fmt.Errorf("invalid transaction type '%s': must be credit or debit", s)
	}
}

// ParseTimeWithFormats attempts to parse time from string using multiple common formats
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	// Common date formats used in statement exports
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"01/02/2006",
		"02-01-2006",
		"2006/01/02",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}
