// Package parsers reads externally supplied statement files (CSV) into
// statement transactions for a reconciliation. Column names are configurable
// and common aliases are recognized, since statement exports vary between
// banks. Malformed rows are collected as row errors and logged; they never
// abort the import.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"

	"github.com/google/uuid"
)

// StatementConfig describes the layout of a statement CSV file
type StatementConfig struct {
	// AmountColumn is the header name of the amount column
	AmountColumn string `json:"amount_column"`

	// DateColumn is the header name of the date column
	DateColumn string `json:"date_column"`

	// DescriptionColumn is the header name of the description column
	DescriptionColumn string `json:"description_column"`

	// IDColumn optionally names a unique-identifier column. When empty or
	// missing from the file, an identifier is generated per row.
	IDColumn string `json:"id_column,omitempty"`

	// Delimiter is the field separator (default comma)
	Delimiter rune `json:"delimiter"`

	// ColumnAliases maps alternative header names onto the canonical columns
	ColumnAliases map[string]string `json:"column_aliases,omitempty"`
}

// DefaultStatementConfig returns a configuration for the common
// amount/date/description layout with typical bank-export aliases
func DefaultStatementConfig() *StatementConfig {
	return &StatementConfig{
		AmountColumn:      "amount",
		DateColumn:        "date",
		DescriptionColumn: "description",
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"amt":              "amount",
			"value":            "amount",
			"transaction_date": "date",
			"posting_date":     "date",
			"posted_date":      "date",
			"value_date":       "date",
			"desc":             "description",
			"memo":             "description",
			"narrative":        "description",
			"details":          "description",
			"reference":        "id",
			"transaction_id":   "id",
		},
	}
}

// Validate checks if the statement configuration is valid
func (c *StatementConfig) Validate() error {
	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column is required")
	}

	if strings.TrimSpace(c.DateColumn) == "" {
		return fmt.Errorf("date column is required")
	}

	if strings.TrimSpace(c.DescriptionColumn) == "" {
		return fmt.Errorf("description column is required")
	}

	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter is required")
	}

	return nil
}

// RowError records a single malformed row encountered during parsing
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ParseResult carries the imported transactions and per-row failures
type ParseResult struct {
	Transactions []*models.StatementTransaction `json:"transactions"`
	RowErrors    []RowError                     `json:"row_errors,omitempty"`
	TotalRows    int                            `json:"total_rows"`
}

// StatementParser parses statement CSV files into statement transactions
type StatementParser struct {
	config *StatementConfig
	logger logger.Logger
}

// NewStatementParser creates a parser with the given configuration.
// A nil configuration selects the defaults.
func NewStatementParser(config *StatementConfig) (*StatementParser, error) {
	if config == nil {
		config = DefaultStatementConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("statement_parser", err)
	}

	return &StatementParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("statement_parser"),
	}, nil
}

// ParseFile parses the statement file at path for the given reconciliation
func (p *StatementParser) ParseFile(path, reconciliationID string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, err)
	}
	defer file.Close()

	return p.Parse(file, path, reconciliationID)
}

// Parse reads statement rows from r. The name parameter is used only for
// error reporting.
func (p *StatementParser) Parse(r io.Reader, name, reconciliationID string) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.config.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, err)
	}

	columns, err := p.resolveColumns(header, name)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++

		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Message: err.Error()})
			p.logger.WithField("line", line).WithError(err).Warn("Skipping unreadable statement row")
			continue
		}

		result.TotalRows++

		st, rowErr := p.parseRow(record, columns, reconciliationID)
		if rowErr != nil {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Message: rowErr.Error()})
			p.logger.WithField("line", line).WithError(rowErr).Warn("Skipping malformed statement row")
			continue
		}

		result.Transactions = append(result.Transactions, st)
	}

	p.logger.WithFields(logger.Fields{
		"file":     name,
		"rows":     result.TotalRows,
		"imported": len(result.Transactions),
		"errors":   len(result.RowErrors),
	}).Info("Parsed statement file")

	return result, nil
}

// columnIndexes holds the resolved position of each canonical column
type columnIndexes struct {
	amount      int
	date        int
	description int
	id          int // -1 when absent
}

func (p *StatementParser) resolveColumns(header []string, name string) (*columnIndexes, error) {
	indexes := &columnIndexes{amount: -1, date: -1, description: -1, id: -1}

	for i, raw := range header {
		col := strings.ToLower(strings.TrimSpace(raw))
		if alias, ok := p.config.ColumnAliases[col]; ok {
			col = alias
		}

		switch col {
		case strings.ToLower(p.config.AmountColumn), "amount":
			indexes.amount = i
		case strings.ToLower(p.config.DateColumn), "date":
			indexes.date = i
		case strings.ToLower(p.config.DescriptionColumn), "description":
			indexes.description = i
		case strings.ToLower(p.config.IDColumn), "id":
			if col != "" {
				indexes.id = i
			}
		}
	}

	if indexes.amount < 0 {
		return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, fmt.Errorf("column '%s' not found", p.config.AmountColumn))
	}
	if indexes.date < 0 {
		return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, fmt.Errorf("column '%s' not found", p.config.DateColumn))
	}
	if indexes.description < 0 {
		return nil, errors.ParseError(errors.CodeMissingColumn, name, 1, fmt.Errorf("column '%s' not found", p.config.DescriptionColumn))
	}

	return indexes, nil
}

func (p *StatementParser) parseRow(record []string, columns *columnIndexes, reconciliationID string) (*models.StatementTransaction, error) {
	if columns.amount >= len(record) || columns.date >= len(record) || columns.description >= len(record) {
		return nil, fmt.Errorf("row has %d fields, expected at least %d", len(record), columns.description+1)
	}

	amount, err := models.ParseDecimalFromString(record[columns.amount])
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	date, err := models.ParseTimeWithFormats(record[columns.date])
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	id := ""
	if columns.id >= 0 && columns.id < len(record) {
		id = strings.TrimSpace(record[columns.id])
	}
	if id == "" {
		id = uuid.NewString()
	}

	st := models.NewStatementTransaction(id, reconciliationID, amount, date, strings.TrimSpace(record[columns.description]))
	if err := st.Validate(); err != nil {
		return nil, err
	}

	return st, nil
}
