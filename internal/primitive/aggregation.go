package primitive

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/roach88/featsynth/internal/ir"
)

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Aggregation reduces the child-row values of one parent key to a single value.
type Aggregation interface {
	Primitive

	// RowWise reports whether the aggregation counts rows rather than
	// reading a column. Row-wise features are named without a column.
	RowWise() bool

	// OutputType returns the result type for an input column type.
	OutputType(in ir.ColumnType) ir.ColumnType

	// Aggregate reduces vals, given in child row order. Nulls in vals are
	// skipped except by row-wise aggregations.
	Aggregate(vals []ir.Value) ir.Value
}

// countAgg counts child rows. Empty input counts 0.
type countAgg struct{}

func (countAgg) Name() string { return "count" }
func (countAgg) Accepts(ir.ColumnType) bool { return true }
func (countAgg) RowWise() bool { return true }
func (countAgg) OutputType(ir.ColumnType) ir.ColumnType { return ir.TypeInt }

func (countAgg) Aggregate(vals []ir.Value) ir.Value {
	return ir.Int(len(vals))
}

// sumAgg totals a numeric column. Int columns sum to Int; empty input is 0.
// Int cells are totalled exactly, and an Int total outside the int64 range
// is Null rather than a wrapped value.
type sumAgg struct{}

func (sumAgg) Name() string { return "sum" }
func (sumAgg) Accepts(t ir.ColumnType) bool { return t.IsNumeric() }
func (sumAgg) RowWise() bool { return false }
func (sumAgg) OutputType(in ir.ColumnType) ir.ColumnType {
	if in == ir.TypeInt {
		return ir.TypeInt
	}
	return ir.TypeFloat
}

func (sumAgg) Aggregate(vals []ir.Value) ir.Value {
	var (
		isum    = decimal.Zero
		fsum    float64
		isFloat bool
	)
	for _, v := range vals {
		switch n := v.(type) {
		case ir.Int:
			isum = isum.Add(decimal.NewFromInt(int64(n)))
		case ir.Float:
			fsum += float64(n)
			isFloat = true
		}
	}
	if isFloat {
		return ir.Float(fsum + isum.InexactFloat64())
	}
	if isum.LessThan(minInt64) || isum.GreaterThan(maxInt64) {
		return ir.Null{}
	}
	return ir.Int(isum.IntPart())
}

// meanAgg averages a numeric column. Empty or all-null input is Null, not 0.
type meanAgg struct{}

func (meanAgg) Name() string { return "mean" }
func (meanAgg) Accepts(t ir.ColumnType) bool { return t.IsNumeric() }
func (meanAgg) RowWise() bool { return false }
func (meanAgg) OutputType(ir.ColumnType) ir.ColumnType { return ir.TypeFloat }

func (meanAgg) Aggregate(vals []ir.Value) ir.Value {
	var (
		sum float64
		n   int
	)
	for _, v := range vals {
		if f, ok := ir.AsFloat(v); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return ir.Null{}
	}
	return ir.Float(sum / float64(n))
}

// modeAgg returns the most frequent non-null value. Ties go to the value
// encountered first in row order. Empty or all-null input is Null.
type modeAgg struct{}

func (modeAgg) Name() string { return "mode" }
func (modeAgg) Accepts(ir.ColumnType) bool { return true }
func (modeAgg) RowWise() bool { return false }
func (modeAgg) OutputType(in ir.ColumnType) ir.ColumnType { return in }

func (modeAgg) Aggregate(vals []ir.Value) ir.Value {
	counts := make(map[string]int)
	var order []ir.Value
	for _, v := range vals {
		if ir.IsNull(v) {
			continue
		}
		k := ir.CanonicalKey(v)
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}

	var (
		best      ir.Value = ir.Null{}
		bestCount int
	)
	for _, v := range order {
		if c := counts[ir.CanonicalKey(v)]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best
}
