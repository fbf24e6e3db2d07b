// Package selection projects a named subset of a feature frame and renames
// each feature to its output column name.
package selection

import (
	"strings"

	"github.com/roach88/featsynth/internal/engine"
	"github.com/roach88/featsynth/internal/ir"
)

// Column is one selected feature under its output name.
type Column struct {
	Name    string
	Feature engine.FeatureName
	Type    ir.ColumnType

	values []ir.Value
}

// Values returns a copy of the column's values in frame row order.
func (c Column) Values() []ir.Value {
	out := make([]ir.Value, len(c.values))
	copy(out, c.values)
	return out
}

// Projection is the selected, renamed slice of a feature frame. It keeps the
// frame's row order and target keys; columns follow request order.
type Projection struct {
	Target string
	Key    string

	keys    []ir.Value
	columns []Column
	byName  map[string]int
}

// Select resolves every requested feature in frame and renames it.
//
// Fails with *UnknownFeatureError on the first name the frame lacks, and with
// *NameCollisionError when two requests share an output name. On failure no
// projection is returned.
func Select(frame *engine.FeatureFrame, renames []ir.FeatureRename) (*Projection, error) {
	p := &Projection{
		Target: frame.Target,
		Key:    frame.Key,
		keys:   frame.Keys(),
		byName: make(map[string]int, len(renames)),
	}

	for _, r := range renames {
		name, ok := frame.Lookup(r.Feature)
		if !ok {
			return nil, &UnknownFeatureError{
				Feature:    r.Feature,
				Target:     frame.Target,
				Suggestion: suggest(frame, r.Feature),
			}
		}

		out := r.OutputName()
		if i, dup := p.byName[out]; dup {
			return nil, &NameCollisionError{
				Name:     out,
				Table:    frame.Target,
				Features: []string{p.columns[i].Feature.String(), name.String()},
			}
		}

		def, _ := frame.Definition(name)
		p.byName[out] = len(p.columns)
		p.columns = append(p.columns, Column{
			Name:    out,
			Feature: name,
			Type:    def.Type,
			values:  frame.Column(name),
		})
	}
	return p, nil
}

// suggest returns a synthesized name equal to want ignoring case.
func suggest(frame *engine.FeatureFrame, want string) string {
	for _, n := range frame.Names() {
		if strings.EqualFold(n.String(), want) {
			return n.String()
		}
	}
	return ""
}

// Len returns the number of rows.
func (p *Projection) Len() int {
	return len(p.keys)
}

// Keys returns the target primary key of each row.
func (p *Projection) Keys() []ir.Value {
	out := make([]ir.Value, len(p.keys))
	copy(out, p.keys)
	return out
}

// Names returns output column names in request order.
func (p *Projection) Names() []string {
	out := make([]string, len(p.columns))
	for i, c := range p.columns {
		out[i] = c.Name
	}
	return out
}

// Columns returns the selected columns in request order.
func (p *Projection) Columns() []Column {
	out := make([]Column, len(p.columns))
	copy(out, p.columns)
	return out
}

// Column returns the selected column with the given output name.
func (p *Projection) Column(name string) (Column, bool) {
	i, ok := p.byName[name]
	if !ok {
		return Column{}, false
	}
	return p.columns[i], true
}

// Value returns the cell at row for an output column. Unknown names yield Null.
func (p *Projection) Value(row int, name string) ir.Value {
	i, ok := p.byName[name]
	if !ok {
		return ir.Null{}
	}
	return p.columns[i].values[row]
}
