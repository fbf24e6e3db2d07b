package compiler

import (
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/primitive"
)

// Validation error codes (E200-E299)
const (
	ErrPlanIncomplete    = "E200" // plan name or target missing
	ErrUnknownTable      = "E201" // reference to an undeclared table
	ErrMissingKey        = "E202" // table without a primary key
	ErrUnknownPrimitive  = "E203" // aggregation or transform not in the registry
	ErrDuplicateName     = "E204" // duplicate table, output, or output column
	ErrInvalidMode       = "E205" // output mode not direct|collapse
	ErrMissingCollapseBy = "E206" // collapse output without by
	ErrDirectNotTarget   = "E207" // direct output on a non-target table
	ErrInvalidStep       = "E208" // unknown prepare step kind or missing step field
	ErrInvalidColumnType = "E209" // declared column type not recognized
)

// ValidationError represents a plan validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled plan against the rules the CUE schema cannot
// express. Returns all errors found (does not fail-fast), in plan order.
func Validate(plan *ir.Plan) []ValidationError {
	v := &validator{plan: plan, registry: primitive.Default(), tables: make(map[string]bool)}
	v.header()
	v.tableDecls()
	v.primitives()
	v.steps()
	v.relationships()
	v.outputs()
	return v.errs
}

type validator struct {
	plan     *ir.Plan
	registry *primitive.Registry
	tables   map[string]bool
	errs     []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (v *validator) known(field, table string) {
	if !v.tables[table] {
		v.add(ErrUnknownTable, field, "unknown table %q", table)
	}
}

func (v *validator) header() {
	if v.plan.Name == "" {
		v.add(ErrPlanIncomplete, "name", "plan name is required")
	}
	if v.plan.Target == "" {
		v.add(ErrPlanIncomplete, "target", "target table is required")
	}
}

func (v *validator) tableDecls() {
	for i, t := range v.plan.Tables {
		field := fmt.Sprintf("tables[%d]", i)
		if v.tables[t.Name] {
			v.add(ErrDuplicateName, field+".name", "duplicate table name %q", t.Name)
		}
		v.tables[t.Name] = true

		if t.Key == "" {
			v.add(ErrMissingKey, field+".key", "table %q has no primary key", t.Name)
		}
		for j, c := range t.Columns {
			if !c.Type.IsValid() {
				v.add(ErrInvalidColumnType, fmt.Sprintf("%s.columns[%d]", field, j),
					"column %q has unknown type %q", c.Name, c.Type)
			}
		}
	}
	if v.plan.Target != "" {
		v.known("target", v.plan.Target)
	}
}

func (v *validator) primitives() {
	for i, name := range v.plan.Aggregations {
		if _, err := v.registry.Aggregation(name); err != nil {
			v.add(ErrUnknownPrimitive, fmt.Sprintf("aggregations[%d]", i), "unknown aggregation %q", name)
		}
	}
	for i, name := range v.plan.Transforms {
		if _, err := v.registry.Transform(name); err != nil {
			v.add(ErrUnknownPrimitive, fmt.Sprintf("transforms[%d]", i), "unknown transform %q", name)
		}
	}
}

func (v *validator) steps() {
	for i, s := range v.plan.Prepare {
		field := fmt.Sprintf("prepare[%d]", i)
		v.known(field+".table", s.Table)

		var missing []string
		switch s.Kind {
		case ir.StepSemiJoin:
			missing = absent(map[string]bool{"from": s.From != "", "on": s.On != ""})
		case ir.StepLookup:
			missing = absent(map[string]bool{"from": s.From != "", "on": s.On != "", "columns": len(s.Columns) > 0})
		case ir.StepDerive:
			missing = absent(map[string]bool{"column": s.Column != "", "columns": len(s.Columns) > 0})
		default:
			v.add(ErrInvalidStep, field+".kind", "unknown step kind %q", s.Kind)
			continue
		}
		for _, m := range missing {
			v.add(ErrInvalidStep, field+"."+m, "%s step needs %s", s.Kind, m)
		}
		if s.From != "" {
			v.known(field+".from", s.From)
		}
	}
}

// absent returns the names whose presence flag is false, sorted.
func absent(present map[string]bool) []string {
	var out []string
	for _, name := range []string{"column", "columns", "from", "on"} {
		if ok, checked := present[name]; checked && !ok {
			out = append(out, name)
		}
	}
	return out
}

func (v *validator) relationships() {
	for i, r := range v.plan.Relationships {
		field := fmt.Sprintf("relationships[%d]", i)
		v.known(field+".parent", r.Parent)
		v.known(field+".child", r.Child)

		if parent, ok := v.plan.Table(r.Parent); ok && parent.Key != "" && r.ParentKey != parent.Key {
			v.add(ErrMissingKey, field+".parent_key",
				"parent key %q is not the primary key of %q (%q)", r.ParentKey, r.Parent, parent.Key)
		}
	}
}

func (v *validator) outputs() {
	seen := make(map[string]bool)
	for i, o := range v.plan.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		v.known(field+".table", o.Table)
		if seen[o.Table] {
			v.add(ErrDuplicateName, field+".table", "duplicate output for table %q", o.Table)
		}
		seen[o.Table] = true

		switch o.Mode {
		case ir.OutputDirect:
			if o.Table != v.plan.Target {
				v.add(ErrDirectNotTarget, field+".mode",
					"direct output %q must be the target table %q", o.Table, v.plan.Target)
			}
		case ir.OutputCollapse:
			if o.By == "" {
				v.add(ErrMissingCollapseBy, field+".by", "collapse output %q needs by", o.Table)
			}
		default:
			v.add(ErrInvalidMode, field+".mode", "invalid mode %q (want direct or collapse)", o.Mode)
		}

		names := make(map[string]bool)
		for j, f := range o.Features {
			name := f.OutputName()
			if names[name] {
				v.add(ErrDuplicateName, fmt.Sprintf("%s.features[%d]", field, j),
					"duplicate output column %q", name)
			}
			names[name] = true
		}
	}
}
