package pipeline

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
)

// Prepare applies plan's prepare steps in order and returns the prepared
// tables. The input map and its tables are not modified.
//
// Returns *entity.SchemaError when a step names an unknown table or column.
func Prepare(plan *ir.Plan, tables map[string]*ir.Table) (map[string]*ir.Table, error) {
	out := make(map[string]*ir.Table, len(tables))
	for name, t := range tables {
		out[name] = t.Clone()
	}

	for i, step := range plan.Prepare {
		var err error
		switch step.Kind {
		case ir.StepSemiJoin:
			err = semiJoin(out, step)
		case ir.StepLookup:
			err = lookup(out, step)
		case ir.StepDerive:
			err = derive(out, step)
		default:
			err = fmt.Errorf("unknown step kind %q", step.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("prepare step %d (%s %s): %w", i, step.Kind, step.Table, err)
		}
	}
	return out, nil
}

func table(tables map[string]*ir.Table, name string, columns ...string) (*ir.Table, error) {
	t, ok := tables[name]
	if !ok {
		return nil, &entity.SchemaError{Table: name, Message: "unknown table"}
	}
	for _, c := range columns {
		if !t.Schema.Has(c) {
			return nil, &entity.SchemaError{Table: name, Column: c, Message: "column not in schema"}
		}
	}
	return t, nil
}

// semiJoin keeps rows of step.Table whose On value appears in step.From.
func semiJoin(tables map[string]*ir.Table, step ir.PrepareStep) error {
	t, err := table(tables, step.Table, step.On)
	if err != nil {
		return err
	}
	from, err := table(tables, step.From, step.On)
	if err != nil {
		return err
	}

	present := make(map[string]bool, from.Len())
	for _, v := range from.Column(step.On) {
		if !ir.IsNull(v) {
			present[ir.CanonicalKey(v)] = true
		}
	}

	var kept []ir.Row
	for _, row := range t.Rows() {
		v := row.Get(step.On)
		if !ir.IsNull(v) && present[ir.CanonicalKey(v)] {
			kept = append(kept, row)
		}
	}
	tables[step.Table] = rebuild(t, t.Schema, kept)
	return nil
}

// lookup copies step.Columns from the step.From row matching each row's On
// value. A non-null value already on the row is kept.
func lookup(tables map[string]*ir.Table, step ir.PrepareStep) error {
	t, err := table(tables, step.Table, step.On)
	if err != nil {
		return err
	}
	from, err := table(tables, step.From, append([]string{step.On}, step.Columns...)...)
	if err != nil {
		return err
	}

	match := make(map[string]ir.Row, from.Len())
	for _, row := range from.Rows() {
		v := row.Get(step.On)
		if ir.IsNull(v) {
			continue
		}
		if _, dup := match[ir.CanonicalKey(v)]; !dup {
			match[ir.CanonicalKey(v)] = row
		}
	}

	schema := append(ir.Schema(nil), t.Schema...)
	for _, c := range step.Columns {
		if !schema.Has(c) {
			col, _ := from.Schema.Lookup(c)
			schema = append(schema, col)
		}
	}

	rows := make([]ir.Row, t.Len())
	for i, src := range t.Rows() {
		row := src.Clone()
		m, found := match[ir.CanonicalKey(src.Get(step.On))]
		for _, c := range step.Columns {
			if !ir.IsNull(row.Get(c)) {
				continue
			}
			if found {
				row[c] = m.Get(c)
			} else {
				row[c] = ir.Null{}
			}
		}
		rows[i] = row
	}
	tables[step.Table] = rebuild(t, schema, rows)
	return nil
}

// derive sets step.Column to the decimal product of step.Columns. The
// result is Null when any operand is null or not numeric.
func derive(tables map[string]*ir.Table, step ir.PrepareStep) error {
	if len(step.Columns) == 0 {
		return &entity.SchemaError{Table: step.Table, Column: step.Column, Message: "derive needs at least one operand"}
	}
	t, err := table(tables, step.Table, step.Columns...)
	if err != nil {
		return err
	}

	schema := append(ir.Schema(nil), t.Schema...)
	if i := schema.Index(step.Column); i >= 0 {
		schema[i].Type = ir.TypeFloat
	} else {
		schema = append(schema, ir.Column{Name: step.Column, Type: ir.TypeFloat})
	}

	rows := make([]ir.Row, t.Len())
	for i, src := range t.Rows() {
		row := src.Clone()
		row[step.Column] = product(row, step.Columns)
		rows[i] = row
	}
	tables[step.Table] = rebuild(t, schema, rows)
	return nil
}

func product(row ir.Row, columns []string) ir.Value {
	acc := decimal.NewFromInt(1)
	for _, c := range columns {
		switch v := row.Get(c).(type) {
		case ir.Int:
			acc = acc.Mul(decimal.NewFromInt(int64(v)))
		case ir.Float:
			acc = acc.Mul(decimal.NewFromFloat(float64(v)))
		default:
			return ir.Null{}
		}
	}
	return ir.Float(acc.InexactFloat64())
}

func rebuild(t *ir.Table, schema ir.Schema, rows []ir.Row) *ir.Table {
	out := ir.NewTable(t.Name, schema, t.Key, rows)
	out.TimeIndex = t.TimeIndex
	return out
}
