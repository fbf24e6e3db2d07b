// Package primitive is the closed catalogue of aggregation and transform
// primitives available to feature synthesis.
//
// Primitives are looked up by case-insensitive name. A name the registry
// does not know, or a primitive applied to a column type it does not accept,
// is reported as *UnsupportedPrimitiveError.
package primitive

import (
	"strings"

	"github.com/roach88/featsynth/internal/ir"
)

// Primitive is the part shared by aggregations and transforms.
type Primitive interface {
	// Name is the lowercase registry name ("sum", "weekday").
	Name() string

	// Accepts reports whether the primitive is defined over a column type.
	Accepts(t ir.ColumnType) bool
}

// Label is the uppercase form used in feature names: SUM, WEEKDAY.
func Label(p Primitive) string {
	return strings.ToUpper(p.Name())
}

// Registry resolves primitive names. The zero value is empty; use Default.
type Registry struct {
	aggregations map[string]Aggregation
	transforms   map[string]Transform
}

// Default returns the registry holding count, sum, mean, mode, weekday,
// month, and year.
func Default() *Registry {
	r := &Registry{
		aggregations: make(map[string]Aggregation),
		transforms:   make(map[string]Transform),
	}
	for _, a := range []Aggregation{countAgg{}, sumAgg{}, meanAgg{}, modeAgg{}} {
		r.aggregations[a.Name()] = a
	}
	for _, t := range []Transform{weekday, month, year} {
		r.transforms[t.Name()] = t
	}
	return r
}

// Aggregation returns the named aggregation primitive.
func (r *Registry) Aggregation(name string) (Aggregation, error) {
	a, ok := r.aggregations[strings.ToLower(name)]
	if !ok {
		return nil, &UnsupportedPrimitiveError{Primitive: name}
	}
	return a, nil
}

// Aggregations resolves names in order. The first unknown name fails.
func (r *Registry) Aggregations(names ...string) ([]Aggregation, error) {
	out := make([]Aggregation, 0, len(names))
	for _, n := range names {
		a, err := r.Aggregation(n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Transform returns the named transform primitive.
func (r *Registry) Transform(name string) (Transform, error) {
	t, ok := r.transforms[strings.ToLower(name)]
	if !ok {
		return nil, &UnsupportedPrimitiveError{Primitive: name}
	}
	return t, nil
}

// Transforms resolves names in order. The first unknown name fails.
func (r *Registry) Transforms(names ...string) ([]Transform, error) {
	out := make([]Transform, 0, len(names))
	for _, n := range names {
		t, err := r.Transform(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Has reports whether name resolves to any primitive.
func (r *Registry) Has(name string) bool {
	name = strings.ToLower(name)
	_, agg := r.aggregations[name]
	_, tr := r.transforms[name]
	return agg || tr
}

// Check returns *UnsupportedPrimitiveError if p does not accept the column.
func Check(p Primitive, table, column string, t ir.ColumnType) error {
	if p.Accepts(t) {
		return nil
	}
	return &UnsupportedPrimitiveError{
		Primitive: p.Name(),
		Table:     table,
		Column:    column,
		Type:      t,
	}
}
