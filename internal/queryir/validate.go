package queryir

import (
	"fmt"
	"regexp"
)

// identifier matches names every supported dialect accepts after quoting.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks a statement before compilation and returns every problem
// found. A nil result means the statement is well formed.
//
// Rules:
//  1. Table and column names are plain identifiers
//  2. Column lists are non-empty and free of duplicates
//  3. CreateTable column types are valid ir.ColumnTypes
//  4. Select.OrderBy names only selected columns
//
// Validate is a pure function with no side effects.
func Validate(stmt Statement) []string {
	v := &validator{}
	switch s := stmt.(type) {
	case CreateTable:
		v.table(s.Table)
		names := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			names[i] = c.Name
			if !c.Type.IsValid() {
				v.add("column %q has invalid type %q", c.Name, c.Type)
			}
		}
		v.columns(names)
	case DeleteAll:
		v.table(s.Table)
	case DropTable:
		v.table(s.Table)
	case TableColumns:
		v.table(s.Table)
	case Insert:
		v.table(s.Table)
		v.columns(s.Columns)
	case Select:
		v.table(s.Table)
		v.columns(s.Columns)
		selected := make(map[string]bool, len(s.Columns))
		for _, c := range s.Columns {
			selected[c] = true
		}
		for _, o := range s.OrderBy {
			if !selected[o] {
				v.add("order column %q is not selected", o)
			}
		}
	case nil:
		v.add("nil statement")
	default:
		v.add("unsupported statement type %T", stmt)
	}
	return v.problems
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) table(name string) {
	if !identifier.MatchString(name) {
		v.add("invalid table name %q", name)
	}
}

func (v *validator) columns(names []string) {
	if len(names) == 0 {
		v.add("empty column list")
		return
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !identifier.MatchString(n) {
			v.add("invalid column name %q", n)
		}
		if seen[n] {
			v.add("duplicate column %q", n)
		}
		seen[n] = true
	}
}
