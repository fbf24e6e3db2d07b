package entity

import (
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
)

// Relationship is a one-to-many link from a parent table's primary key to a
// child table's foreign-key column.
//
// The child grouping index is built once by Link. ChildRows is a map lookup,
// so the synthesis engine can call it per parent row without rescanning.
type Relationship struct {
	Parent    string
	ParentKey string
	Child     string
	ChildKey  string

	parent *ir.Table
	child  *ir.Table

	// groups maps CanonicalKey(parent key) to child row positions in child
	// row order. Only resolvable foreign keys appear.
	groups map[string][]int

	// orphans holds child rows whose foreign key is present but names no
	// parent row, in child row order.
	orphans []int

	// nulls counts child rows with a null foreign key.
	nulls int
}

// String renders the link child-first, as featuretools prints it.
func (r *Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.Child, r.ChildKey, r.Parent, r.ParentKey)
}

// ParentTable returns the parent table.
func (r *Relationship) ParentTable() *ir.Table { return r.parent }

// ChildTable returns the child table.
func (r *Relationship) ChildTable() *ir.Table { return r.child }

// ChildRows returns positions of the child rows referencing parentKey, in
// child row order. Returns nil (not an error) when there are none.
func (r *Relationship) ChildRows(parentKey ir.Value) []int {
	return r.groups[ir.CanonicalKey(parentKey)]
}

// Resolves reports whether child row i has a foreign key naming an existing
// parent row. Null and orphaned keys do not resolve.
func (r *Relationship) Resolves(i int) bool {
	fk := r.child.Row(i).Get(r.ChildKey)
	if ir.IsNull(fk) {
		return false
	}
	return r.parent.Contains(fk)
}

// Link declares that child.childFK references parent.parentKey.
//
// Returns *SchemaError when either table is unknown, either column is absent,
// parentKey is not the parent's primary key, or the link already exists.
// Orphaned child rows are not an error; see Validate.
func (es *EntitySet) Link(parent, parentKey, child, childFK string) (*Relationship, error) {
	pt, ok := es.byName[parent]
	if !ok {
		return nil, schemaErr(parent, "", "unknown parent table")
	}
	ct, ok := es.byName[child]
	if !ok {
		return nil, schemaErr(child, "", "unknown child table")
	}
	if !pt.Schema.Has(parentKey) {
		return nil, schemaErr(parent, parentKey, "parent key column not in schema")
	}
	if parentKey != pt.Key {
		return nil, schemaErr(parent, parentKey, "parent key must be the primary key %q", pt.Key)
	}
	if !ct.Schema.Has(childFK) {
		return nil, schemaErr(child, childFK, "foreign key column not in schema")
	}
	for _, existing := range es.relationships {
		if existing.Parent == parent && existing.Child == child && existing.ChildKey == childFK {
			return nil, schemaErr(child, childFK, "relationship to %s already declared", parent)
		}
	}

	r := &Relationship{
		Parent:    parent,
		ParentKey: parentKey,
		Child:     child,
		ChildKey:  childFK,
		parent:    pt,
		child:     ct,
		groups:    make(map[string][]int),
	}
	for i, row := range ct.Rows() {
		fk := row.Get(childFK)
		switch {
		case ir.IsNull(fk):
			r.nulls++
		case pt.Contains(fk):
			ck := ir.CanonicalKey(fk)
			r.groups[ck] = append(r.groups[ck], i)
		default:
			r.orphans = append(r.orphans, i)
		}
	}

	es.relationships = append(es.relationships, r)
	return r, nil
}

// Relationship returns the first declared link between parent and child.
func (es *EntitySet) Relationship(parent, child string) (*Relationship, bool) {
	for _, r := range es.relationships {
		if r.Parent == parent && r.Child == child {
			return r, true
		}
	}
	return nil, false
}

// ChildrenOf returns the child rows referencing parentKey through the first
// parent→child link. Returns an empty slice when the key has no children or
// the tables are not linked.
func (es *EntitySet) ChildrenOf(parent string, parentKey ir.Value, child string) []ir.Row {
	r, ok := es.Relationship(parent, child)
	if !ok {
		return []ir.Row{}
	}
	idx := r.ChildRows(parentKey)
	out := make([]ir.Row, len(idx))
	for i, pos := range idx {
		out[i] = r.child.Row(pos)
	}
	return out
}

// Integrity summarizes referential integrity for one relationship.
type Integrity struct {
	Relationship string `json:"relationship"`

	// Referenced counts child rows whose foreign key resolves.
	Referenced int `json:"referenced"`

	// Orphaned counts child rows whose foreign key is present but names no
	// parent row. Orphans are excluded from aggregation.
	Orphaned int `json:"orphaned"`

	// NullKeys counts child rows with no foreign key.
	NullKeys int `json:"null_keys"`

	// OrphanKeys lists distinct unresolved foreign keys in first-seen order.
	OrphanKeys []string `json:"orphan_keys,omitempty"`
}

// Validate partitions each relationship's child rows into referenced and
// orphaned. It never fails; orphans degrade aggregation rather than abort.
func (es *EntitySet) Validate() []Integrity {
	out := make([]Integrity, 0, len(es.relationships))
	for _, r := range es.relationships {
		report := Integrity{
			Relationship: r.String(),
			Orphaned:     len(r.orphans),
			NullKeys:     r.nulls,
		}
		for _, idx := range r.groups {
			report.Referenced += len(idx)
		}

		seen := make(map[string]bool)
		for _, pos := range r.orphans {
			fk := r.child.Row(pos).Get(r.ChildKey)
			ck := ir.CanonicalKey(fk)
			if !seen[ck] {
				seen[ck] = true
				report.OrphanKeys = append(report.OrphanKeys, ir.Format(fk))
			}
		}
		out = append(out, report)
	}
	return out
}
