// Package merge folds selected features back into base tables.
//
// Direct joins a projection one-to-one by the base table's primary key.
// Collapse first reduces the row-per-target projection to one row per
// parent key with a mean over each column, then joins it to the parent
// table. Both return a new table: rows sorted ascending by the sort column,
// column names uppercased last. Inputs are never modified.
package merge

import (
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/selection"
)

// Direct joins p onto base by base's primary key. Every base row is kept;
// a row missing from p gets Null features. An empty sortBy sorts by the
// primary key.
func Direct(base *ir.Table, p *selection.Projection, sortBy string) (*ir.Table, error) {
	rowOf := make(map[string]int, p.Len())
	for i, k := range p.Keys() {
		ck := ir.CanonicalKey(k)
		if _, ok := rowOf[ck]; !ok {
			rowOf[ck] = i
		}
	}

	cols := p.Columns()
	schema, err := extend(base, cols, "")
	if err != nil {
		return nil, err
	}

	rows := make([]ir.Row, 0, base.Len())
	for _, src := range base.Rows() {
		row := src.Clone()
		i, ok := rowOf[ir.CanonicalKey(src.Get(base.Key))]
		for _, c := range cols {
			if ok {
				row[c.Name] = p.Value(i, c.Name)
			} else {
				row[c.Name] = ir.Null{}
			}
		}
		rows = append(rows, row)
	}
	return finish(base, schema, rows, sortBy)
}

// Collapse groups p's rows by its by column, averages every other selected
// column within each group, and inner-joins the result onto base's by column.
//
// Rows of p with a null by value belong to no group. Base rows with no group
// are dropped. An int column whose every group mean is integral stays int;
// non-numeric columns take the group's first non-null value.
func Collapse(base *ir.Table, p *selection.Projection, by, sortBy string) (*ir.Table, error) {
	if !base.Schema.Has(by) {
		return nil, &entity.SchemaError{Table: base.Name, Column: by, Message: "collapse column not in schema"}
	}
	byCol, ok := p.Column(by)
	if !ok {
		return nil, &entity.SchemaError{Table: p.Target, Column: by, Message: "collapse column not selected"}
	}

	groups, order := group(byCol.Values())

	var features []selection.Column
	for _, c := range p.Columns() {
		if c.Name != by {
			features = append(features, c)
		}
	}
	collapsed := make(map[string][]ir.Value, len(features))
	types := make(map[string]ir.ColumnType, len(features))
	for _, c := range features {
		collapsed[c.Name], types[c.Name] = rollup(c, groups, order)
	}

	schema, err := extend(base, features, by)
	if err != nil {
		return nil, err
	}
	for i, col := range schema {
		if t, ok := types[col.Name]; ok {
			schema[i].Type = t
		}
	}

	groupIndex := make(map[string]int, len(order))
	for i, ck := range order {
		groupIndex[ck] = i
	}

	var rows []ir.Row
	for _, src := range base.Rows() {
		key := src.Get(by)
		if ir.IsNull(key) {
			continue
		}
		g, ok := groupIndex[ir.CanonicalKey(key)]
		if !ok {
			continue
		}
		row := src.Clone()
		for _, c := range features {
			row[c.Name] = collapsed[c.Name][g]
		}
		rows = append(rows, row)
	}
	return finish(base, schema, rows, sortBy)
}

// group maps each non-null key to its row positions. order lists the keys'
// canonical forms in first-seen order.
func group(keys []ir.Value) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, k := range keys {
		if ir.IsNull(k) {
			continue
		}
		ck := ir.CanonicalKey(k)
		if _, ok := groups[ck]; !ok {
			order = append(order, ck)
		}
		groups[ck] = append(groups[ck], i)
	}
	return groups, order
}

// rollup reduces one column per group, in group order, and reports the
// resulting column type. A numeric column is averaged; an int column whose
// group means are all whole stays int, so the warehouse stores INTEGER
// rather than a float type. CSV export renders both the same way.
func rollup(c selection.Column, groups map[string][]int, order []string) ([]ir.Value, ir.ColumnType) {
	values := c.Values()
	out := make([]ir.Value, len(order))

	if !c.Type.IsNumeric() {
		for g, ck := range order {
			out[g] = ir.Null{}
			for _, i := range groups[ck] {
				if !ir.IsNull(values[i]) {
					out[g] = values[i]
					break
				}
			}
		}
		return out, c.Type
	}

	integral := c.Type == ir.TypeInt
	means := make([]float64, len(order))
	present := make([]bool, len(order))
	for g, ck := range order {
		var sum float64
		var n int
		for _, i := range groups[ck] {
			if f, ok := ir.AsFloat(values[i]); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			continue
		}
		means[g], present[g] = sum/float64(n), true
		if means[g] != math.Trunc(means[g]) {
			integral = false
		}
	}

	typ := ir.TypeFloat
	if integral {
		typ = ir.TypeInt
	}
	for g := range order {
		switch {
		case !present[g]:
			out[g] = ir.Null{}
		case integral:
			out[g] = ir.Int(int64(means[g]))
		default:
			out[g] = ir.Float(means[g])
		}
	}
	return out, typ
}

// extend returns base's schema followed by the feature columns. skip names a
// feature that is already a base column and is not added again.
func extend(base *ir.Table, cols []selection.Column, skip string) (ir.Schema, error) {
	schema := make(ir.Schema, len(base.Schema), len(base.Schema)+len(cols))
	copy(schema, base.Schema)
	for _, c := range cols {
		if c.Name == skip {
			continue
		}
		if schema.Has(c.Name) {
			return nil, &selection.NameCollisionError{
				Name:     c.Name,
				Table:    base.Name,
				Features: []string{base.Name + "." + c.Name, c.Feature.String()},
			}
		}
		schema = append(schema, ir.Column{Name: c.Name, Type: c.Type})
	}
	return schema, nil
}

// finish sorts rows by sortBy and uppercases every column name.
func finish(base *ir.Table, schema ir.Schema, rows []ir.Row, sortBy string) (*ir.Table, error) {
	if sortBy == "" {
		sortBy = base.Key
	}
	if !schema.Has(sortBy) {
		return nil, &entity.SchemaError{Table: base.Name, Column: sortBy, Message: "sort column not in schema"}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return ir.Compare(rows[i].Get(sortBy), rows[j].Get(sortBy)) < 0
	})

	upper := cases.Upper(language.Und)
	renamed := make(map[string]string, len(schema))
	seen := make(map[string]string, len(schema))
	outSchema := make(ir.Schema, len(schema))
	for i, col := range schema {
		u := upper.String(col.Name)
		if prev, dup := seen[u]; dup {
			return nil, &selection.NameCollisionError{
				Name:     u,
				Table:    base.Name,
				Features: []string{prev, col.Name},
			}
		}
		seen[u] = col.Name
		renamed[col.Name] = u
		outSchema[i] = ir.Column{Name: u, Type: col.Type}
	}

	outRows := make([]ir.Row, len(rows))
	for i, r := range rows {
		row := make(ir.Row, len(schema))
		for _, col := range schema {
			row[renamed[col.Name]] = r.Get(col.Name)
		}
		outRows[i] = row
	}

	out := ir.NewTable(base.Name, outSchema, renamed[base.Key], outRows)
	if base.TimeIndex != "" {
		out.TimeIndex = renamed[base.TimeIndex]
	}
	return out, nil
}
