package ir

import (
	"fmt"
	"strconv"
	"time"
)

// ColumnType identifies the declared type of a table column.
type ColumnType string

const (
	TypeString    ColumnType = "string"
	TypeInt       ColumnType = "int"
	TypeFloat     ColumnType = "float"
	TypeBool      ColumnType = "bool"
	TypeTimestamp ColumnType = "timestamp"
)

// ValidColumnTypes lists the accepted type names in declaration order.
var ValidColumnTypes = []ColumnType{TypeString, TypeInt, TypeFloat, TypeBool, TypeTimestamp}

// IsValid reports whether t is one of ValidColumnTypes.
func (t ColumnType) IsValid() bool {
	for _, v := range ValidColumnTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsNumeric reports whether sum and mean are defined over the type.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Value is a sealed interface representing a single typed cell.
// Only Null, String, Int, Float, Bool, and Timestamp implement this.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents a missing cell. Null is distinct from zero values.
type Null struct{}

func (Null) value() {}

// String represents a text cell.
type String string

func (String) value() {}

// Int represents an integer cell.
type Int int64

func (Int) value() {}

// Float represents a floating-point cell.
type Float float64

func (Float) value() {}

// Bool represents a boolean cell.
type Bool bool

func (Bool) value() {}

// Timestamp represents a point in time. Timestamps are normalized to UTC.
type Timestamp struct {
	T time.Time
}

func (Timestamp) value() {}

// NewTimestamp creates a UTC Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{T: t.UTC()}
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// TypeOf returns the column type a value belongs to.
// Null has no type and returns the empty ColumnType.
func TypeOf(v Value) ColumnType {
	switch v.(type) {
	case String:
		return TypeString
	case Int:
		return TypeInt
	case Float:
		return TypeFloat
	case Bool:
		return TypeBool
	case Timestamp:
		return TypeTimestamp
	default:
		return ""
	}
}

// AsFloat converts a numeric value to float64.
// Returns false for Null and non-numeric values.
func AsFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val), true
	case Float:
		return float64(val), true
	default:
		return 0, false
	}
}

// Format renders a value as text for CSV export and diagnostics.
// Null renders as the empty string. Floats use the shortest representation
// that round-trips, so 20 renders as "20" and 2.5 as "2.5".
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Timestamp:
		if val.T.Hour() == 0 && val.T.Minute() == 0 && val.T.Second() == 0 && val.T.Nanosecond() == 0 {
			return val.T.Format(DateLayout)
		}
		return val.T.Format(DateTimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal reports whether two values are the same type and value.
// Two Nulls are equal.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}
