package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLiteStore is a Store backed by a SQLite database. Amounts are stored as
// decimal strings to avoid floating-point drift; dates are stored as RFC3339
// strings.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS reconciliations (
	id            TEXT PRIMARY KEY,
	account_id    TEXT NOT NULL,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	start_balance TEXT NOT NULL,
	end_balance   TEXT NOT NULL,
	status        TEXT NOT NULL,
	notes         TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bank_transactions (
	id                TEXT PRIMARY KEY,
	account_id        TEXT NOT NULL,
	amount            TEXT NOT NULL,
	type              TEXT NOT NULL,
	date              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	reconciliation_id TEXT REFERENCES reconciliations(id)
);

CREATE TABLE IF NOT EXISTS statement_transactions (
	id                TEXT PRIMARY KEY,
	reconciliation_id TEXT NOT NULL REFERENCES reconciliations(id),
	amount            TEXT NOT NULL,
	date              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_bank_tx_account_date ON bank_transactions(account_id, date);
CREATE INDEX IF NOT EXISTS idx_bank_tx_reconciliation ON bank_transactions(reconciliation_id);
CREATE INDEX IF NOT EXISTS idx_stmt_tx_reconciliation ON statement_transactions(reconciliation_id);
`

// NewSQLiteStore opens (creating if necessary) a SQLite database at the given
// path and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ListUnreconciledBankTransactions implements Store
func (s *SQLiteStore) ListUnreconciledBankTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error) {
	query := `
	SELECT id, account_id, amount, type, date, description, reconciliation_id
	FROM bank_transactions
	WHERE account_id = ? AND reconciliation_id IS NULL AND date >= ? AND date <= ?
	ORDER BY date ASC, id ASC`

	return s.queryTransactions(ctx, query, accountID, formatTime(dateRange.Start), formatTime(dateRange.End))
}

// ListAccountTransactions implements Store
func (s *SQLiteStore) ListAccountTransactions(ctx context.Context, accountID string, dateRange models.DateRange) ([]*models.BankTransaction, error) {
	query := `
	SELECT id, account_id, amount, type, date, description, reconciliation_id
	FROM bank_transactions
	WHERE account_id = ? AND date >= ? AND date <= ?
	ORDER BY date ASC, id ASC`

	return s.queryTransactions(ctx, query, accountID, formatTime(dateRange.Start), formatTime(dateRange.End))
}

// ListReconciledTransactions implements Store
func (s *SQLiteStore) ListReconciledTransactions(ctx context.Context, reconciliationID string) ([]*models.BankTransaction, error) {
	query := `
	SELECT id, account_id, amount, type, date, description, reconciliation_id
	FROM bank_transactions
	WHERE reconciliation_id = ?
	ORDER BY date ASC, id ASC`

	return s.queryTransactions(ctx, query, reconciliationID)
}

// GetBankTransaction implements Store
func (s *SQLiteStore) GetBankTransaction(ctx context.Context, id string) (*models.BankTransaction, error) {
	query := `
	SELECT id, account_id, amount, type, date, description, reconciliation_id
	FROM bank_transactions
	WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, errors.StorageError(errors.CodeNotFound, "bank transaction", id, nil)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeStorageFailed, "bank transaction", id, err)
	}

	return tx, nil
}

// CreateBankTransaction implements Store
func (s *SQLiteStore) CreateBankTransaction(ctx context.Context, tx *models.BankTransaction) error {
	if err := tx.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid bank transaction")
	}

	query := `
	INSERT INTO bank_transactions (id, account_id, amount, type, date, description, reconciliation_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	var reconciliationID interface{}
	if tx.ReconciliationID != nil {
		reconciliationID = *tx.ReconciliationID
	}

	_, err := s.db.ExecContext(ctx, query,
		tx.ID, tx.AccountID, tx.Amount.String(), tx.Type.String(),
		formatTime(tx.Date), tx.Description, reconciliationID)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "bank transaction", tx.ID, err)
	}

	return nil
}

// LinkTransactionToReconciliation implements Store
func (s *SQLiteStore) LinkTransactionToReconciliation(ctx context.Context, transactionID, reconciliationID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bank_transactions SET reconciliation_id = ? WHERE id = ?`,
		reconciliationID, transactionID)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "bank transaction", transactionID, err)
	}

	return requireRow(result, "bank transaction", transactionID)
}

// UnlinkTransaction implements Store
func (s *SQLiteStore) UnlinkTransaction(ctx context.Context, transactionID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bank_transactions SET reconciliation_id = NULL WHERE id = ?`,
		transactionID)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "bank transaction", transactionID, err)
	}

	return requireRow(result, "bank transaction", transactionID)
}

// ListStatementTransactions implements Store
func (s *SQLiteStore) ListStatementTransactions(ctx context.Context, reconciliationID string) ([]*models.StatementTransaction, error) {
	query := `
	SELECT id, reconciliation_id, amount, date, description
	FROM statement_transactions
	WHERE reconciliation_id = ?
	ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, reconciliationID)
	if err != nil {
		return nil, errors.StorageError(errors.CodeStorageFailed, "statement transactions", reconciliationID, err)
	}
	defer rows.Close()

	var result []*models.StatementTransaction
	for rows.Next() {
		var st models.StatementTransaction
		var amount, date string

		if err := rows.Scan(&st.ID, &st.ReconciliationID, &amount, &date, &st.Description); err != nil {
			return nil, errors.StorageError(errors.CodeStorageFailed, "statement transactions", reconciliationID, err)
		}

		if st.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, errors.StorageError(errors.CodeStorageFailed, "statement transactions", st.ID, err)
		}
		if st.Date, err = parseTime(date); err != nil {
			return nil, errors.StorageError(errors.CodeStorageFailed, "statement transactions", st.ID, err)
		}

		result = append(result, &st)
	}

	return result, rows.Err()
}

// AddStatementTransactions implements Store
func (s *SQLiteStore) AddStatementTransactions(ctx context.Context, stmts []*models.StatementTransaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "statement transactions", "", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO statement_transactions (id, reconciliation_id, amount, date, description)
	VALUES (?, ?, ?, ?, ?)`

	for _, st := range stmts {
		if err := st.Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid statement transaction")
		}

		if _, err := tx.ExecContext(ctx, query,
			st.ID, st.ReconciliationID, st.Amount.String(), formatTime(st.Date), st.Description); err != nil {
			return errors.StorageError(errors.CodeStorageFailed, "statement transaction", st.ID, err)
		}
	}

	return tx.Commit()
}

// GetReconciliation implements Store
func (s *SQLiteStore) GetReconciliation(ctx context.Context, id string) (*models.Reconciliation, error) {
	query := `
	SELECT id, account_id, start_date, end_date, start_balance, end_balance, status, notes
	FROM reconciliations
	WHERE id = ?`

	rec, err := scanReconciliation(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.StorageError(errors.CodeNotFound, "reconciliation", id, nil)
	}
	if err != nil {
		return nil, errors.StorageError(errors.CodeStorageFailed, "reconciliation", id, err)
	}

	return rec, nil
}

// CreateReconciliation implements Store
func (s *SQLiteStore) CreateReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	if err := rec.Validate(); err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.CodeInvalidData, "invalid reconciliation")
	}

	query := `
	INSERT INTO reconciliations (id, account_id, start_date, end_date, start_balance, end_balance, status, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.AccountID, formatTime(rec.StartDate), formatTime(rec.EndDate),
		rec.StartBalance.String(), rec.EndBalance.String(), rec.Status.String(), rec.Notes)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "reconciliation", rec.ID, err)
	}

	return nil
}

// SaveReconciliationStatus implements Store
func (s *SQLiteStore) SaveReconciliationStatus(ctx context.Context, id string, status models.ReconciliationStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reconciliations SET status = ? WHERE id = ?`,
		status.String(), id)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "reconciliation", id, err)
	}

	return requireRow(result, "reconciliation", id)
}

// CompleteReconciliation implements Store
func (s *SQLiteStore) CompleteReconciliation(ctx context.Context, id, notes string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reconciliations SET status = ?, notes = ? WHERE id = ?`,
		models.StatusCompleted.String(), notes, id)
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, "reconciliation", id, err)
	}

	return requireRow(result, "reconciliation", id)
}

// ListOpenReconciliations implements Store
func (s *SQLiteStore) ListOpenReconciliations(ctx context.Context) ([]*models.Reconciliation, error) {
	query := `
	SELECT id, account_id, start_date, end_date, start_balance, end_balance, status, notes
	FROM reconciliations
	WHERE status = ?
	ORDER BY start_date DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, models.StatusInProgress.String())
	if err != nil {
		return nil, errors.StorageError(errors.CodeStorageFailed, "reconciliations", "", err)
	}
	defer rows.Close()

	var result []*models.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, errors.StorageError(errors.CodeStorageFailed, "reconciliations", "", err)
		}
		result = append(result, rec)
	}

	return result, rows.Err()
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]*models.BankTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StorageError(errors.CodeStorageFailed, "bank transactions", "", err)
	}
	defer rows.Close()

	var result []*models.BankTransaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, errors.StorageError(errors.CodeStorageFailed, "bank transactions", "", err)
		}
		result = append(result, tx)
	}

	return result, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	var amount, txType, date string
	var reconciliationID sql.NullString

	if err := row.Scan(&tx.ID, &tx.AccountID, &amount, &txType, &date, &tx.Description, &reconciliationID); err != nil {
		return nil, err
	}

	var err error
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount '%s': %w", amount, err)
	}
	if tx.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("invalid stored date '%s': %w", date, err)
	}

	tx.Type = models.TransactionType(txType)
	if reconciliationID.Valid {
		id := reconciliationID.String
		tx.ReconciliationID = &id
	}

	return &tx, nil
}

func scanReconciliation(row scanner) (*models.Reconciliation, error) {
	var rec models.Reconciliation
	var startDate, endDate, startBalance, endBalance, status string

	if err := row.Scan(&rec.ID, &rec.AccountID, &startDate, &endDate, &startBalance, &endBalance, &status, &rec.Notes); err != nil {
		return nil, err
	}

	var err error
	if rec.StartDate, err = parseTime(startDate); err != nil {
		return nil, fmt.Errorf("invalid stored start date '%s': %w", startDate, err)
	}
	if rec.EndDate, err = parseTime(endDate); err != nil {
		return nil, fmt.Errorf("invalid stored end date '%s': %w", endDate, err)
	}
	if rec.StartBalance, err = decimal.NewFromString(startBalance); err != nil {
		return nil, fmt.Errorf("invalid stored start balance '%s': %w", startBalance, err)
	}
	if rec.EndBalance, err = decimal.NewFromString(endBalance); err != nil {
		return nil, fmt.Errorf("invalid stored end balance '%s': %w", endBalance, err)
	}

	rec.Status = models.ReconciliationStatus(status)
	return &rec, nil
}

func requireRow(result sql.Result, entity, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.StorageError(errors.CodeStorageFailed, entity, id, err)
	}
	if affected == 0 {
		return errors.StorageError(errors.CodeNotFound, entity, id, nil)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
