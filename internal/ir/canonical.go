package ir

import (
	"cmp"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// CanonicalKey returns a type-tagged string identity for v.
//
// Used as the map key for primary-key lookup and foreign-key grouping so
// that grouping never depends on fmt formatting. Strings are NFC normalized,
// so composed and decomposed spellings of the same text group together.
// Integral floats share the Int encoding: a key loaded as 7.0 matches 7.
func CanonicalKey(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "n:"
	case String:
		return "s:" + norm.NFC.String(string(val))
	case Int:
		return "i:" + strconv.FormatInt(int64(val), 10)
	case Float:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return "i:" + strconv.FormatInt(int64(f), 10)
		}
		return "f:" + strconv.FormatFloat(f, 'g', -1, 64)
	case Bool:
		return "b:" + strconv.FormatBool(bool(val))
	case Timestamp:
		return "t:" + val.T.UTC().Format(time.RFC3339Nano)
	default:
		return "?:"
	}
}

// typeRank orders values of different types: Null first, then bools,
// numbers, strings, and timestamps.
func typeRank(v Value) int {
	switch v.(type) {
	case nil, Null:
		return 0
	case Bool:
		return 1
	case Int, Float:
		return 2
	case String:
		return 3
	case Timestamp:
		return 4
	default:
		return 5
	}
}

// Compare is a total order over values used by every sort in featsynth.
// Int and Float compare numerically with each other. Strings compare by
// their NFC form so canonically equal strings compare equal.
func Compare(a, b Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch av := a.(type) {
	case nil, Null:
		return 0
	case Bool:
		bv := b.(Bool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case Int:
		if bi, ok := b.(Int); ok {
			return cmp.Compare(av, bi)
		}
		bf, _ := AsFloat(b)
		return cmp.Compare(float64(av), bf)
	case Float:
		bf, _ := AsFloat(b)
		return cmp.Compare(float64(av), bf)
	case String:
		return strings.Compare(norm.NFC.String(string(av)), norm.NFC.String(string(b.(String))))
	case Timestamp:
		return av.T.Compare(b.(Timestamp).T)
	default:
		return 0
	}
}
