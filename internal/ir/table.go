package ir

// Column is a named, typed column in a schema.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is an ordered column list. Column order is the order columns are
// exported, stored, and enumerated during synthesis.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the schema contains the named column.
func (s Schema) Has(name string) bool {
	return s.Index(name) >= 0
}

// Lookup returns the named column.
func (s Schema) Lookup(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s[i], true
	}
	return Column{}, false
}

// Names returns column names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Row maps column names to values. A column absent from the map is Null.
type Row map[string]Value

// Get returns the value for col, or Null when the row has no such cell.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok && v != nil {
		return v
	}
	return Null{}
}

// Clone returns a shallow copy of the row. Values are immutable, so a
// shallow copy never aliases mutable state.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is a named collection of rows identified by a primary key column.
//
// Rows keep insertion order. The key index maps CanonicalKey(key) to row
// position; when two rows share a key the first one wins. Callers that need
// key uniqueness (entity.EntitySet.Add) validate before constructing.
type Table struct {
	Name      string
	Schema    Schema
	Key       string
	TimeIndex string

	rows  []Row
	index map[string]int
}

// NewTable creates a table over rows. The rows slice is retained; callers
// hand ownership to the table.
func NewTable(name string, schema Schema, key string, rows []Row) *Table {
	t := &Table{
		Name:   name,
		Schema: schema,
		Key:    key,
		rows:   rows,
		index:  make(map[string]int, len(rows)),
	}
	if key == "" {
		return t
	}
	for i, r := range rows {
		k := r.Get(key)
		if IsNull(k) {
			continue
		}
		ck := CanonicalKey(k)
		if _, exists := t.index[ck]; !exists {
			t.index[ck] = i
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the row at position i.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns rows in insertion order. The returned rows must not be
// mutated; use Clone for a private copy.
func (t *Table) Rows() []Row {
	return t.rows
}

// Lookup returns the row whose primary key equals key.
func (t *Table) Lookup(key Value) (Row, bool) {
	i, ok := t.index[CanonicalKey(key)]
	if !ok {
		return nil, false
	}
	return t.rows[i], true
}

// Contains reports whether a row with the given primary key exists.
func (t *Table) Contains(key Value) bool {
	_, ok := t.index[CanonicalKey(key)]
	return ok
}

// Column returns the values of the named column in row order.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Get(name)
	}
	return out
}

// Clone returns a deep copy of the table. The copy shares no rows, schema
// slice, or index with the original.
func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.Clone()
	}
	schema := make(Schema, len(t.Schema))
	copy(schema, t.Schema)

	out := NewTable(t.Name, schema, t.Key, rows)
	out.TimeIndex = t.TimeIndex
	return out
}
