package engine

import (
	"fmt"

	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/primitive"
)

// Engine synthesizes features over one entity set.
//
// INVARIANTS:
//   - aggregation and transform order never changes after New
//   - the entity set is only read
type Engine struct {
	es           *entity.EntitySet
	aggregations []primitive.Aggregation
	transforms   []primitive.Transform
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAggregations replaces the aggregation primitives, in output order.
func WithAggregations(aggs ...primitive.Aggregation) EngineOption {
	return func(e *Engine) {
		e.aggregations = append([]primitive.Aggregation(nil), aggs...)
	}
}

// WithTransforms replaces the transform primitives, in output order.
func WithTransforms(ts ...primitive.Transform) EngineOption {
	return func(e *Engine) {
		e.transforms = append([]primitive.Transform(nil), ts...)
	}
}

// DefaultAggregations and DefaultTransforms are the primitive lists used
// when no option overrides them.
var (
	DefaultAggregations = []string{"sum", "mean", "mode", "count"}
	DefaultTransforms   = []string{"weekday", "month", "year"}
)

// New creates an Engine over es. Without options it uses every primitive of
// primitive.Default in DefaultAggregations and DefaultTransforms order.
func New(es *entity.EntitySet, opts ...EngineOption) *Engine {
	reg := primitive.Default()
	aggs := must(reg.Aggregations(DefaultAggregations...))
	ts := must(reg.Transforms(DefaultTransforms...))

	e := &Engine{
		es:           es,
		aggregations: aggs,
		transforms:   ts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// must panics on err. The default primitive names are fixed at compile time.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Synthesize builds the feature frame centered on target.
//
// Returns *SynthesisError when target is not in the entity set, or when two
// features would share a name. Aggregates for target rows whose foreign key
// is null or orphaned are Null.
func (e *Engine) Synthesize(target string) (*FeatureFrame, error) {
	t, ok := e.es.Table(target)
	if !ok {
		return nil, &SynthesisError{
			Code:    ErrCodeUnknownTarget,
			Message: "target table not in entity set",
			Table:   target,
		}
	}

	frame := newFrame(t)
	e.identityFeatures(frame, t)
	e.transformFeatures(frame, t)
	for _, rel := range e.es.Relationships() {
		if rel.Child == target {
			e.broadcastFeatures(frame, t, rel)
		}
		if rel.Parent == target {
			e.directFeatures(frame, t, rel)
		}
	}
	if d := frame.dup; d != nil {
		se := &SynthesisError{
			Code:    ErrCodeDuplicateFeature,
			Message: fmt.Sprintf("feature %s is produced more than once", d.Name),
			Table:   target,
		}
		if d.Relationship != nil {
			se.Relationship = d.Relationship.String()
		}
		return nil, se
	}
	return frame, nil
}

func (e *Engine) identityFeatures(frame *FeatureFrame, t *ir.Table) {
	for _, col := range t.Schema {
		if col.Name == t.Key {
			continue
		}
		frame.add(Definition{
			Name:   IdentityName(col.Name),
			Kind:   KindIdentity,
			Target: t.Name,
			Column: col.Name,
			Type:   col.Type,
		}, t.Column(col.Name))
	}
}

func (e *Engine) transformFeatures(frame *FeatureFrame, t *ir.Table) {
	for _, col := range t.Schema {
		if col.Type != ir.TypeTimestamp {
			continue
		}
		src := t.Column(col.Name)
		for _, tr := range e.transforms {
			if !tr.Accepts(col.Type) {
				continue
			}
			values := make([]ir.Value, len(src))
			for i, v := range src {
				values[i] = tr.Apply(v)
			}
			frame.add(Definition{
				Name:      TransformName(tr, col.Name),
				Kind:      KindTransform,
				Target:    t.Name,
				Column:    col.Name,
				Primitive: tr,
				Type:      tr.OutputType(),
			}, values)
		}
	}
}

// broadcastFeatures aggregates the target's rows per parent key and repeats
// each parent's result onto every target row referencing that parent.
func (e *Engine) broadcastFeatures(frame *FeatureFrame, t *ir.Table, rel *entity.Relationship) {
	for _, agg := range e.aggregations {
		for _, col := range e.aggregateColumns(agg, t) {
			cache := make(map[string]ir.Value)
			values := make([]ir.Value, t.Len())
			for i := range values {
				if !rel.Resolves(i) {
					values[i] = ir.Null{}
					continue
				}
				fk := t.Row(i).Get(rel.ChildKey)
				ck := ir.CanonicalKey(fk)
				v, ok := cache[ck]
				if !ok {
					v = aggregate(agg, t, rel.ChildRows(fk), col.Name)
					cache[ck] = v
				}
				values[i] = v
			}
			frame.add(aggregateDefinition(rel, agg, t.Name, col), values)
		}
	}
}

// directFeatures aggregates a child table per target row, for links where
// the target is the parent.
func (e *Engine) directFeatures(frame *FeatureFrame, t *ir.Table, rel *entity.Relationship) {
	child := rel.ChildTable()
	for _, agg := range e.aggregations {
		for _, col := range e.aggregateColumns(agg, child) {
			values := make([]ir.Value, t.Len())
			for i := range values {
				values[i] = aggregate(agg, child, rel.ChildRows(t.Row(i).Get(t.Key)), col.Name)
			}
			frame.add(aggregateDefinition(rel, agg, t.Name, col), values)
		}
	}
}

// aggregateColumns lists the child columns agg applies to, in schema order.
// Row-wise aggregations apply once, with no column. The child's primary key
// and every foreign key it holds are never aggregated.
func (e *Engine) aggregateColumns(agg primitive.Aggregation, child *ir.Table) []ir.Column {
	if agg.RowWise() {
		return []ir.Column{{}}
	}
	skip := map[string]bool{child.Key: true}
	for _, r := range e.es.Relationships() {
		if r.Child == child.Name {
			skip[r.ChildKey] = true
		}
	}

	var cols []ir.Column
	for _, col := range child.Schema {
		if skip[col.Name] || !agg.Accepts(col.Type) {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

func aggregateDefinition(rel *entity.Relationship, agg primitive.Aggregation, target string, col ir.Column) Definition {
	return Definition{
		Name:         AggregateName(rel.Parent, agg, rel.Child, col.Name),
		Kind:         KindAggregate,
		Target:       target,
		Column:       col.Name,
		Primitive:    agg,
		Relationship: rel,
		Type:         agg.OutputType(col.Type),
	}
}

// aggregate reduces the given child rows. Row-wise aggregations receive one
// Null per row.
func aggregate(agg primitive.Aggregation, child *ir.Table, rows []int, column string) ir.Value {
	vals := make([]ir.Value, len(rows))
	for i, pos := range rows {
		if column == "" {
			vals[i] = ir.Null{}
			continue
		}
		vals[i] = child.Row(pos).Get(column)
	}
	return agg.Aggregate(vals)
}
