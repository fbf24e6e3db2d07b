package ir

// Plan declares one featsynth run: the tables to load, how to prepare them,
// the relationship graph, which primitives to synthesize, and which features
// each output table receives. Plans are compiled from CUE by the compiler
// package; all slices are in declaration order.
type Plan struct {
	Name          string             `json:"name"`
	Target        string             `json:"target"`
	Aggregations  []string           `json:"aggregations"`
	Transforms    []string           `json:"transforms"`
	Tables        []TableDecl        `json:"tables"`
	Prepare       []PrepareStep      `json:"prepare,omitempty"`
	Relationships []RelationshipDecl `json:"relationships"`
	Outputs       []OutputDecl       `json:"outputs"`

	// Hash identifies the plan source; set by the compiler.
	Hash string `json:"-"`
}

// TableDecl declares a table's source, identity, and destinations.
type TableDecl struct {
	Name      string   `json:"name"`
	Source    string   `json:"source,omitempty"`
	Key       string   `json:"key"`
	TimeIndex string   `json:"time_index,omitempty"`
	SortBy    string   `json:"sort_by,omitempty"`
	Export    string   `json:"export,omitempty"`
	Store     string   `json:"store,omitempty"`
	Columns   []Column `json:"columns,omitempty"`
}

// ColumnType returns the declared type of col. Undeclared columns are strings.
func (d TableDecl) ColumnType(col string) ColumnType {
	for _, c := range d.Columns {
		if c.Name == col {
			return c.Type
		}
	}
	return TypeString
}

// SortKey returns the column output rows are sorted by: SortBy when set,
// otherwise the primary key.
func (d TableDecl) SortKey() string {
	if d.SortBy != "" {
		return d.SortBy
	}
	return d.Key
}

// Prepare step kinds.
const (
	StepSemiJoin = "semi_join" // keep Table rows whose On value appears in From.On
	StepLookup   = "lookup"    // left-join From[Columns] onto Table by On
	StepDerive   = "derive"    // Table.Column = product of Columns
)

// PrepareStep is one row-level transformation applied before the entity set
// is built.
type PrepareStep struct {
	Kind    string   `json:"kind"`
	Table   string   `json:"table"`
	From    string   `json:"from,omitempty"`
	On      string   `json:"on,omitempty"`
	Column  string   `json:"column,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// RelationshipDecl declares a one-to-many link from parent to child.
type RelationshipDecl struct {
	Parent    string `json:"parent"`
	ParentKey string `json:"parent_key"`
	Child     string `json:"child"`
	ChildKey  string `json:"child_key"`
}

// Output merge modes.
const (
	OutputDirect   = "direct"   // join by the table's own primary key
	OutputCollapse = "collapse" // group broadcast rows by By, mean, then join
)

// OutputDecl selects and renames features for one output table.
type OutputDecl struct {
	Table    string          `json:"table"`
	Mode     string          `json:"mode"`
	By       string          `json:"by,omitempty"`
	Features []FeatureRename `json:"features"`
}

// FeatureRename maps a synthesized feature name to an output column name.
// An empty As keeps the feature name.
type FeatureRename struct {
	Feature string `json:"feature"`
	As      string `json:"as,omitempty"`
}

// OutputName returns As, or Feature when As is empty.
func (f FeatureRename) OutputName() string {
	if f.As != "" {
		return f.As
	}
	return f.Feature
}

// Table returns the declaration for the named table.
func (p *Plan) Table(name string) (TableDecl, bool) {
	for _, t := range p.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDecl{}, false
}

// Output returns the output declaration for the named table.
func (p *Plan) Output(name string) (OutputDecl, bool) {
	for _, o := range p.Outputs {
		if o.Table == name {
			return o, true
		}
	}
	return OutputDecl{}, false
}
