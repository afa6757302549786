// Package errors defines categorized errors for the reconciliation engine.
// Every error carries a category, a machine-readable code, optional context
// and a captured stack trace, so failures surfaced from the periodic worker
// or the CLI can be diagnosed without re-running the cycle.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category represents different categories of engine errors
type Category string

const (
	CategoryStorage        Category = "storage"
	CategoryValidation     Category = "validation"
	CategoryParse          Category = "parse"
	CategoryConfiguration  Category = "configuration"
	CategoryReconciliation Category = "reconciliation"
)

// Code represents specific error codes within categories
type Code string

const (
	// Storage errors
	CodeNotFound      Code = "not_found"
	CodeStorageFailed Code = "storage_failed"
	CodeConflict      Code = "conflict"

	// Validation errors
	CodeInvalidAmount Code = "invalid_amount"
	CodeInvalidDate   Code = "invalid_date"
	CodeMissingField  Code = "missing_field"

	// Parse errors
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingColumn Code = "missing_column"
	CodeInvalidData   Code = "invalid_data"

	// Configuration errors
	CodeInvalidConfig Code = "invalid_config"

	// Reconciliation errors
	CodeMatchingFailed  Code = "matching_failed"
	CodeCycleFailed     Code = "cycle_failed"
	CodeProcessingError Code = "processing_error"
)

// EngineError is the base error type for all engine errors
type EngineError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// New creates a new EngineError
func New(category Category, code Code, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category Category, code Code, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// StorageError creates a storage-related error
func StorageError(code Code, entity, id string, err error) *EngineError {
	var message string
	switch code {
	case CodeNotFound:
		message = fmt.Sprintf("%s not found: %s", entity, id)
	case CodeConflict:
		message = fmt.Sprintf("conflicting update for %s: %s", entity, id)
	default:
		message = fmt.Sprintf("storage operation failed for %s: %s", entity, id)
	}

	result := New(CategoryStorage, code, message)
	if err != nil {
		result = Wrap(err, CategoryStorage, code, message)
	}

	return result.WithContext("entity", entity).WithContext("id", id)
}

// ValidationError creates a validation-related error
func ValidationError(code Code, field string, value interface{}) *EngineError {
	var message string
	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
	}

	return New(CategoryValidation, code, message).
		WithContext("field", field).
		WithContext("value", value)
}

// ParseError creates a parsing-related error
func ParseError(code Code, file string, line int, err error) *EngineError {
	message := fmt.Sprintf("parse error in %s at line %d", file, line)
	if code == CodeMissingColumn {
		message = fmt.Sprintf("missing required column in %s", file)
	}

	result := New(CategoryParse, code, message)
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	}

	return result.WithContext("file", file).WithContext("line", line)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(setting string, err error) *EngineError {
	message := fmt.Sprintf("invalid configuration for '%s'", setting)

	result := New(CategoryConfiguration, CodeInvalidConfig, message)
	if err != nil {
		result = Wrap(err, CategoryConfiguration, CodeInvalidConfig, message)
	}

	return result.WithContext("setting", setting)
}

// ReconciliationError creates a reconciliation-cycle error
func ReconciliationError(code Code, reconciliationID string, err error) *EngineError {
	var message string
	switch code {
	case CodeMatchingFailed:
		message = fmt.Sprintf("matching failed for reconciliation %s", reconciliationID)
	case CodeCycleFailed:
		message = fmt.Sprintf("cycle failed for reconciliation %s", reconciliationID)
	default:
		message = fmt.Sprintf("processing error for reconciliation %s", reconciliationID)
	}

	result := New(CategoryReconciliation, code, message)
	if err != nil {
		result = Wrap(err, CategoryReconciliation, code, message)
	}

	return result.WithContext("reconciliation_id", reconciliationID)
}

// IsNotFound reports whether the error chain contains a not-found storage error
func IsNotFound(err error) bool {
	engineErr, ok := AsEngineError(err)
	return ok && engineErr.Code == CodeNotFound
}

// AsEngineError extracts an EngineError from an error chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}
