package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted by ParseValue, tried in order.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var timestampLayouts = []string{
	DateLayout,
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
}

// ParseValue parses raw text into a value of the given column type.
// Empty or whitespace-only text parses as Null for every type.
func ParseValue(raw string, t ColumnType) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null{}, nil
	}

	switch t {
	case TypeString, "":
		return String(s), nil
	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Integral values exported by spreadsheets as "3.0".
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != float64(int64(f)) {
				return nil, fmt.Errorf("parse %q as int: %w", s, err)
			}
			n = int64(f)
		}
		return Int(n), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q as float: %w", s, err)
		}
		return Float(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("parse %q as bool: %w", s, err)
		}
		return Bool(b), nil
	case TypeTimestamp:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return NewTimestamp(ts), nil
			}
		}
		return nil, fmt.Errorf("parse %q as timestamp: no matching layout", s)
	default:
		return nil, fmt.Errorf("unsupported column type %q", t)
	}
}

// FromAny converts a decoded YAML or JSON scalar into a value of type t.
// Strings are parsed with ParseValue; other scalars are converted directly.
func FromAny(v any, t ColumnType) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case string:
		return ParseValue(val, t)
	case time.Time:
		if t != TypeTimestamp && t != "" {
			return nil, fmt.Errorf("timestamp %s is not a %s", val.Format(time.RFC3339), t)
		}
		return NewTimestamp(val), nil
	case bool:
		if t == TypeString {
			return String(strconv.FormatBool(val)), nil
		}
		if t != TypeBool && t != "" {
			return nil, fmt.Errorf("bool %v is not a %s", val, t)
		}
		return Bool(val), nil
	case int:
		return fromNumber(float64(val), int64(val), true, t)
	case int64:
		return fromNumber(float64(val), val, true, t)
	case uint64:
		return fromNumber(float64(val), int64(val), true, t)
	case float64:
		return fromNumber(val, int64(val), val == float64(int64(val)), t)
	default:
		return nil, fmt.Errorf("unsupported scalar %T", v)
	}
}

func fromNumber(f float64, n int64, integral bool, t ColumnType) (Value, error) {
	switch t {
	case TypeInt:
		if !integral {
			return nil, fmt.Errorf("%v is not an int", f)
		}
		return Int(n), nil
	case TypeFloat:
		return Float(f), nil
	case TypeString:
		if integral {
			return String(strconv.FormatInt(n, 10)), nil
		}
		return String(strconv.FormatFloat(f, 'f', -1, 64)), nil
	case "":
		if integral {
			return Int(n), nil
		}
		return Float(f), nil
	default:
		return nil, fmt.Errorf("number %v is not a %s", f, t)
	}
}
