package entity

import (
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
)

// EntitySet is the table store and relationship graph for one run.
//
// Tables and relationships are appended once, in declaration order, and
// never mutated afterward. Every iteration over tables or relationships
// follows declaration order so synthesis is deterministic.
//
// Thread-safety: an EntitySet is not safe for concurrent Add/Link. Once
// construction finishes it is read-only and safe to share.
type EntitySet struct {
	// ID names the entity set in diagnostics.
	ID string

	tables        []*ir.Table
	byName        map[string]*ir.Table
	relationships []*Relationship
}

// New creates an empty entity set.
func New(id string) *EntitySet {
	return &EntitySet{
		ID:     id,
		byName: make(map[string]*ir.Table),
	}
}

// TableOption configures a table added with Add.
type TableOption func(*ir.Table)

// WithTimeIndex designates col as the table's time index. The column must
// exist and be a timestamp.
func WithTimeIndex(col string) TableOption {
	return func(t *ir.Table) {
		t.TimeIndex = col
	}
}

// Add validates rows against schema and appends a new table.
//
// Returns *SchemaError when the name is taken, the key or time index column
// is absent from the schema, a row carries an undeclared column or a value of
// the wrong type, or a primary key is null or repeated. Int values in float
// columns are widened to Float.
//
// Rows are copied; later changes to the caller's rows do not reach the store.
func (es *EntitySet) Add(name string, schema ir.Schema, rows []ir.Row, key string, opts ...TableOption) (*ir.Table, error) {
	if name == "" {
		return nil, schemaErr(name, "", "table name is required")
	}
	if _, exists := es.byName[name]; exists {
		return nil, schemaErr(name, "", "table already added")
	}
	if !schema.Has(key) {
		return nil, schemaErr(name, key, "primary key column not in schema")
	}

	probe := &ir.Table{}
	for _, opt := range opts {
		opt(probe)
	}
	if probe.TimeIndex != "" {
		col, ok := schema.Lookup(probe.TimeIndex)
		if !ok {
			return nil, schemaErr(name, probe.TimeIndex, "time index column not in schema")
		}
		if col.Type != ir.TypeTimestamp {
			return nil, schemaErr(name, probe.TimeIndex, "time index must be a timestamp, got %s", col.Type)
		}
	}

	owned := make([]ir.Row, len(rows))
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		row, err := conformRow(name, schema, r, i)
		if err != nil {
			return nil, err
		}

		k := row.Get(key)
		if ir.IsNull(k) {
			return nil, schemaErr(name, key, "null primary key at row %d", i)
		}
		ck := ir.CanonicalKey(k)
		if first, dup := seen[ck]; dup {
			return nil, schemaErr(name, key, "primary key %s repeated at rows %d and %d", ir.Format(k), first, i)
		}
		seen[ck] = i
		owned[i] = row
	}

	cols := make(ir.Schema, len(schema))
	copy(cols, schema)

	t := ir.NewTable(name, cols, key, owned)
	t.TimeIndex = probe.TimeIndex

	es.tables = append(es.tables, t)
	es.byName[name] = t
	return t, nil
}

// conformRow copies r, checking every cell against the schema.
func conformRow(table string, schema ir.Schema, r ir.Row, idx int) (ir.Row, error) {
	out := make(ir.Row, len(schema))
	for col, v := range r {
		c, ok := schema.Lookup(col)
		if !ok {
			return nil, schemaErr(table, col, "row %d has a column not in schema", idx)
		}
		if ir.IsNull(v) {
			out[col] = ir.Null{}
			continue
		}
		got := ir.TypeOf(v)
		switch {
		case got == c.Type:
			out[col] = v
		case got == ir.TypeInt && c.Type == ir.TypeFloat:
			out[col] = ir.Float(v.(ir.Int))
		default:
			return nil, schemaErr(table, col, "row %d holds a %s in a %s column", idx, got, c.Type)
		}
	}
	for _, c := range schema {
		if _, ok := out[c.Name]; !ok {
			out[c.Name] = ir.Null{}
		}
	}
	return out, nil
}

// Table returns the named table.
func (es *EntitySet) Table(name string) (*ir.Table, bool) {
	t, ok := es.byName[name]
	return t, ok
}

// Tables returns tables in declaration order.
func (es *EntitySet) Tables() []*ir.Table {
	out := make([]*ir.Table, len(es.tables))
	copy(out, es.tables)
	return out
}

// Relationships returns relationships in declaration order.
func (es *EntitySet) Relationships() []*Relationship {
	out := make([]*Relationship, len(es.relationships))
	copy(out, es.relationships)
	return out
}

// String summarizes the entity set in the shape featuretools prints.
func (es *EntitySet) String() string {
	s := fmt.Sprintf("Entityset: %s\n  DataFrames:\n", es.ID)
	for _, t := range es.tables {
		s += fmt.Sprintf("    %s [Rows: %d, Columns: %d]\n", t.Name, t.Len(), len(t.Schema))
	}
	s += "  Relationships:\n"
	if len(es.relationships) == 0 {
		s += "    No relationships\n"
	}
	for _, r := range es.relationships {
		s += fmt.Sprintf("    %s\n", r)
	}
	return s
}
