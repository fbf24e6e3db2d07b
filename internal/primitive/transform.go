package primitive

import (
	"github.com/roach88/featsynth/internal/ir"
)

// Transform maps one row's timestamp to a derived scalar.
type Transform interface {
	Primitive

	// OutputType is the result type of Apply.
	OutputType() ir.ColumnType

	// Apply derives the value for one cell. A null cell yields Null.
	Apply(v ir.Value) ir.Value
}

// dateTransform extracts one integer calendar component from a timestamp.
type dateTransform struct {
	name    string
	extract func(ir.Timestamp) int64
}

func (d dateTransform) Name() string { return d.name }
func (d dateTransform) Accepts(t ir.ColumnType) bool { return t == ir.TypeTimestamp }
func (d dateTransform) OutputType() ir.ColumnType { return ir.TypeInt }

func (d dateTransform) Apply(v ir.Value) ir.Value {
	ts, ok := v.(ir.Timestamp)
	if !ok {
		return ir.Null{}
	}
	return ir.Int(d.extract(ts))
}

// weekday numbers days Monday=0 through Sunday=6.
var weekday = dateTransform{
	name: "weekday",
	extract: func(ts ir.Timestamp) int64 {
		return int64((int(ts.T.Weekday()) + 6) % 7)
	},
}

var month = dateTransform{
	name: "month",
	extract: func(ts ir.Timestamp) int64 {
		return int64(ts.T.Month())
	},
}

var year = dateTransform{
	name: "year",
	extract: func(ts ir.Timestamp) int64 {
		return int64(ts.T.Year())
	},
}
