package entity

import (
	"errors"
	"fmt"
)

// ErrCodeSchema identifies structural errors in declared tables and links.
const ErrCodeSchema = "SCHEMA"

// SchemaError reports a declared table, key, or column that does not match
// the data. Schema errors are fatal: the run stops before any output exists.
type SchemaError struct {
	// Table is the offending table name.
	Table string

	// Column is the offending column, if any.
	Column string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s (table=%s, column=%s)", ErrCodeSchema, e.Message, e.Table, e.Column)
	}
	return fmt.Sprintf("%s: %s (table=%s)", ErrCodeSchema, e.Message, e.Table)
}

// IsSchemaError returns true if err is or wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

func schemaErr(table, column, format string, args ...any) *SchemaError {
	return &SchemaError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
}
