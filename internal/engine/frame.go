package engine

import (
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/primitive"
)

// Kind distinguishes how a feature was derived.
type Kind string

const (
	KindIdentity  Kind = "identity"
	KindTransform Kind = "transform"
	KindAggregate Kind = "aggregate"
)

// Definition describes one feature: the target it is indexed by, the
// primitive that produced it, and its source reference.
type Definition struct {
	Name   FeatureName
	Kind   Kind
	Target string

	// Column is the source column: a target column for identity and
	// transform features, a child column for aggregates. Empty for
	// row-wise aggregates.
	Column string

	// Primitive is nil for identity features.
	Primitive primitive.Primitive

	// Relationship is set for aggregates only.
	Relationship *entity.Relationship

	// Type is the output column type.
	Type ir.ColumnType
}

// FeatureFrame is the synthesized wide table: one row per target row, in
// target row order, and one column per Definition, in definition order.
//
// A frame is read-only once Synthesize returns.
type FeatureFrame struct {
	Target string
	Key    string

	keys    []ir.Value
	defs    []Definition
	columns [][]ir.Value
	byName  map[string]int

	// dup is the first definition whose name was already taken.
	dup *Definition
}

func newFrame(target *ir.Table) *FeatureFrame {
	return &FeatureFrame{
		Target: target.Name,
		Key:    target.Key,
		keys:   target.Column(target.Key),
		byName: make(map[string]int),
	}
}

// add appends a feature column. A name already in the frame is not added
// again; the first such definition is kept in f.dup for Synthesize to report.
func (f *FeatureFrame) add(def Definition, values []ir.Value) {
	if _, dup := f.byName[def.Name.String()]; dup {
		if f.dup == nil {
			f.dup = &def
		}
		return
	}
	f.byName[def.Name.String()] = len(f.defs)
	f.defs = append(f.defs, def)
	f.columns = append(f.columns, values)
}

// Len returns the number of rows, equal to the target table's row count.
func (f *FeatureFrame) Len() int {
	return len(f.keys)
}

// Keys returns the target primary key of each row.
func (f *FeatureFrame) Keys() []ir.Value {
	out := make([]ir.Value, len(f.keys))
	copy(out, f.keys)
	return out
}

// Names returns feature names in frame order.
func (f *FeatureFrame) Names() []FeatureName {
	out := make([]FeatureName, len(f.defs))
	for i, d := range f.defs {
		out[i] = d.Name
	}
	return out
}

// Definitions returns feature definitions in frame order.
func (f *FeatureFrame) Definitions() []Definition {
	out := make([]Definition, len(f.defs))
	copy(out, f.defs)
	return out
}

// Lookup resolves a name string to the frame's FeatureName.
// Returns false when no feature of that exact name was synthesized.
func (f *FeatureFrame) Lookup(name string) (FeatureName, bool) {
	i, ok := f.byName[name]
	if !ok {
		return FeatureName{}, false
	}
	return f.defs[i].Name, true
}

// Definition returns the definition for name.
func (f *FeatureFrame) Definition(name FeatureName) (Definition, bool) {
	i, ok := f.byName[name.String()]
	if !ok {
		return Definition{}, false
	}
	return f.defs[i], true
}

// Column returns a copy of the values of name in row order, or nil when the
// frame has no such feature.
func (f *FeatureFrame) Column(name FeatureName) []ir.Value {
	i, ok := f.byName[name.String()]
	if !ok {
		return nil
	}
	out := make([]ir.Value, len(f.columns[i]))
	copy(out, f.columns[i])
	return out
}

// Value returns the cell at row for name. Unknown names yield Null.
func (f *FeatureFrame) Value(row int, name FeatureName) ir.Value {
	i, ok := f.byName[name.String()]
	if !ok {
		return ir.Null{}
	}
	return f.columns[i][row]
}
