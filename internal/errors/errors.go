package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingColumn ErrorType = "MISSING_COLUMN"
	ErrTypeBadDate       ErrorType = "UNPARSEABLE_DATE"
	ErrTypeJoinAmbiguity ErrorType = "JOIN_AMBIGUITY"
	ErrTypeEmptyGroup    ErrorType = "EMPTY_GROUP"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConfig        ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewMissingColumnError reports a required column absent from an input
// table. Structural: the computation that needed the column aborts.
func NewMissingColumnError(table, column string) *AppError {
	return NewAppError(ErrTypeMissingColumn,
		fmt.Sprintf("table %q is missing required column %q", table, column), nil).
		WithContext("table", table).
		WithContext("column", column)
}

// NewUnparseableDateError reports a date value that failed to parse.
// Data quality: callers drop the row and count it, they do not abort.
func NewUnparseableDateError(table, raw string, cause error) *AppError {
	return NewAppError(ErrTypeBadDate,
		fmt.Sprintf("table %q has unparseable date %q", table, raw), cause).
		WithContext("table", table).
		WithContext("value", raw)
}

// NewJoinAmbiguityError reports duplicate (player, date) keys on a join
// side where uniqueness was assumed. Structural: the join aborts and the
// offending key is surfaced so the input data can be fixed.
func NewJoinAmbiguityError(table, player string, date time.Time) *AppError {
	return NewAppError(ErrTypeJoinAmbiguity,
		fmt.Sprintf("table %q has duplicate key (player=%s, date=%s)",
			table, player, date.Format("2006-01-02")), nil).
		WithContext("table", table).
		WithContext("player", player).
		WithContext("date", date.Format("2006-01-02"))
}

// NewNotFoundError creates a not-found error for a named resource
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil).
		WithContext("resource", resource)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewEmptyGroupError reports a correlation or importance group with too
// little data for a defined result. A warning: callers mark the result
// undefined and continue rather than abort.
func NewEmptyGroupError(group string, usable int) *AppError {
	return NewAppError(ErrTypeEmptyGroup,
		fmt.Sprintf("group %q has %d usable rows, need at least 2", group, usable), nil).
		WithContext("group", group).
		WithContext("usable_rows", usable)
}

// NewParsingError wraps a CSV read failure for a named table.
func NewParsingError(table string, cause error) *AppError {
	return NewAppError(ErrTypeParsing,
		fmt.Sprintf("failed to read table %q", table), cause).
		WithContext("table", table)
}

// NewStorageError wraps a filesystem failure on an export path.
func NewStorageError(op, path string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, fmt.Sprintf("%s %s", op, path), cause).
		WithContext("path", path)
}

// NewConfigError wraps a configuration load or validation failure.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is (or wraps) an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
