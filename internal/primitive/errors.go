package primitive

import (
	"errors"
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
)

// ErrCodeUnsupportedPrimitive identifies a primitive that cannot be applied.
const ErrCodeUnsupportedPrimitive = "UNSUPPORTED_PRIMITIVE"

// UnsupportedPrimitiveError reports a primitive requested by name that the
// registry does not know, or requested against a column whose type it does
// not accept (sum over a string column).
type UnsupportedPrimitiveError struct {
	// Primitive is the requested primitive name.
	Primitive string

	// Table and Column identify the input column, when one was given.
	Table  string
	Column string

	// Type is the column's declared type, when one was given.
	Type ir.ColumnType
}

// Error implements the error interface.
func (e *UnsupportedPrimitiveError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: unknown primitive %q", ErrCodeUnsupportedPrimitive, e.Primitive)
	}
	return fmt.Sprintf("%s: %s does not accept %s column (table=%s, column=%s)",
		ErrCodeUnsupportedPrimitive, e.Primitive, e.Type, e.Table, e.Column)
}

// IsUnsupportedPrimitive returns true if err is or wraps an
// *UnsupportedPrimitiveError.
func IsUnsupportedPrimitive(err error) bool {
	var pe *UnsupportedPrimitiveError
	return errors.As(err, &pe)
}
