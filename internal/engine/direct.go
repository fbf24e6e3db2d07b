package engine

import (
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/primitive"
)

// GroupValue is one parent key's aggregate.
type GroupValue struct {
	Key   ir.Value
	Value ir.Value
}

// DirectAggregate computes agg over rel's child column grouped by parent key,
// with one entry per parent row in parent row order. Parents without
// children get the primitive's empty-input result.
//
// It scans the child table itself rather than using the relationship's
// grouping index, so it serves as an independent check of Synthesize.
// Row-wise aggregations ignore column.
func DirectAggregate(es *entity.EntitySet, rel *entity.Relationship, agg primitive.Aggregation, column string) ([]GroupValue, error) {
	if rel == nil || !linked(es, rel) {
		name := ""
		if rel != nil {
			name = rel.String()
		}
		return nil, &SynthesisError{
			Code:         ErrCodeUnlinked,
			Message:      "relationship not declared in entity set",
			Relationship: name,
		}
	}
	parent, child := rel.ParentTable(), rel.ChildTable()

	if !agg.RowWise() {
		col, ok := child.Schema.Lookup(column)
		if !ok {
			return nil, &entity.SchemaError{Table: child.Name, Column: column, Message: "column not in schema"}
		}
		if err := primitive.Check(agg, child.Name, column, col.Type); err != nil {
			return nil, err
		}
	}

	groups := make(map[string][]ir.Value)
	for _, row := range child.Rows() {
		fk := row.Get(rel.ChildKey)
		if ir.IsNull(fk) || !parent.Contains(fk) {
			continue
		}
		var v ir.Value = ir.Null{}
		if !agg.RowWise() {
			v = row.Get(column)
		}
		ck := ir.CanonicalKey(fk)
		groups[ck] = append(groups[ck], v)
	}

	out := make([]GroupValue, parent.Len())
	for i, row := range parent.Rows() {
		key := row.Get(parent.Key)
		out[i] = GroupValue{
			Key:   key,
			Value: agg.Aggregate(groups[ir.CanonicalKey(key)]),
		}
	}
	return out, nil
}

func linked(es *entity.EntitySet, rel *entity.Relationship) bool {
	for _, r := range es.Relationships() {
		if r == rel {
			return true
		}
	}
	return false
}

// DirectCheck is the outcome of comparing one broadcast aggregate feature
// against DirectAggregate.
type DirectCheck struct {
	Feature FeatureName
	Groups  int

	// Mismatches lists the target rows whose frame value differs from the
	// direct groupby value of their parent.
	Mismatches []int
}

// CheckBroadcast recomputes every broadcast aggregate in frame with
// DirectAggregate and compares them row by row. Rows whose foreign key does
// not resolve must hold Null.
func CheckBroadcast(es *entity.EntitySet, frame *FeatureFrame) ([]DirectCheck, error) {
	target, ok := es.Table(frame.Target)
	if !ok {
		return nil, &SynthesisError{
			Code:    ErrCodeUnknownTarget,
			Message: "target table not in entity set",
			Table:   frame.Target,
		}
	}

	var out []DirectCheck
	for _, def := range frame.Definitions() {
		if def.Kind != KindAggregate || def.Relationship == nil || def.Relationship.Child != frame.Target {
			continue
		}
		agg, ok := def.Primitive.(primitive.Aggregation)
		if !ok {
			continue
		}
		groups, err := DirectAggregate(es, def.Relationship, agg, def.Column)
		if err != nil {
			return nil, err
		}
		direct := make(map[string]ir.Value, len(groups))
		for _, g := range groups {
			direct[ir.CanonicalKey(g.Key)] = g.Value
		}

		check := DirectCheck{Feature: def.Name, Groups: len(groups)}
		for i := 0; i < frame.Len(); i++ {
			want, ok := direct[ir.CanonicalKey(target.Row(i).Get(def.Relationship.ChildKey))]
			if !ok {
				want = ir.Null{}
			}
			if !ir.Equal(want, frame.Value(i, def.Name)) {
				check.Mismatches = append(check.Mismatches, i)
			}
		}
		out = append(out, check)
	}
	return out, nil
}
