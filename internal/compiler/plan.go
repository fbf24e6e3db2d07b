package compiler

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/featsynth/internal/ir"
)

//go:embed plans/schema.cue
var schemaSource []byte

//go:embed plans/ecommerce.cue
var ecommerceSource []byte

// DefaultPlanFile is the file name reported for the embedded plan.
const DefaultPlanFile = "ecommerce.cue"

// DefaultPlanSource returns the embedded e-commerce plan source.
func DefaultPlanSource() []byte {
	return append([]byte(nil), ecommerceSource...)
}

// CompileDefault compiles the embedded e-commerce plan.
func CompileDefault() (*ir.Plan, error) {
	return CompilePlan(ecommerceSource, DefaultPlanFile)
}

// CompileFile compiles the plan in the CUE file at path.
func CompileFile(path string) (*ir.Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return CompilePlan(src, filepath.Base(path))
}

// CompilePlan parses CUE source holding a top-level plan struct, unifies it
// with the #Plan schema, and decodes it into an ir.Plan. Uses the CUE SDK's
// Go API directly (not a CLI subprocess).
//
//	plan: {
//		name:   "ecommerce"
//		target: "orders"
//		tables: [{name: "orders", key: "OrderID", columns: {OrderID: "int"}}]
//		...
//	}
//
// Table columns keep their declaration order. The returned plan's Hash is
// the content hash of source. Structural problems the schema cannot express
// (unknown table references, unknown primitives) are left to Validate.
func CompilePlan(source []byte, filename string) (*ir.Plan, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(source, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	planVal := v.LookupPath(cue.ParsePath("plan"))
	if !planVal.Exists() {
		return nil, &CompileError{
			Field:   "plan",
			Message: "plan is required",
			Pos:     v.Pos(),
		}
	}

	unified := schema.LookupPath(cue.ParsePath("#Plan")).Unify(planVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	plan := &ir.Plan{Hash: ir.PlanHash(source)}
	fields := []struct {
		path string
		dst  any
	}{
		{"name", &plan.Name},
		{"target", &plan.Target},
		{"aggregations", &plan.Aggregations},
		{"transforms", &plan.Transforms},
		{"prepare", &plan.Prepare},
		{"relationships", &plan.Relationships},
		{"outputs", &plan.Outputs},
	}
	for _, f := range fields {
		if err := decode(unified, f.path, f.dst); err != nil {
			return nil, err
		}
	}

	tables, err := parseTables(unified.LookupPath(cue.ParsePath("tables")))
	if err != nil {
		return nil, err
	}
	plan.Tables = tables

	return plan, nil
}

// decode resolves defaults at path and decodes the result into dst. Absent
// optional fields leave dst unchanged.
func decode(v cue.Value, path string, dst any) error {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil
	}
	fv, _ = fv.Default()
	if !fv.IsConcrete() {
		return nil
	}
	if err := fv.Decode(dst); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// parseTables decodes the tables list. Columns are read field by field so
// the declared order survives.
func parseTables(v cue.Value) ([]ir.TableDecl, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var tables []ir.TableDecl
	for iter.Next() {
		tv := iter.Value()

		var decl ir.TableDecl
		for path, dst := range map[string]*string{
			"name":       &decl.Name,
			"source":     &decl.Source,
			"key":        &decl.Key,
			"time_index": &decl.TimeIndex,
			"sort_by":    &decl.SortBy,
			"export":     &decl.Export,
			"store":      &decl.Store,
		} {
			if err := decode(tv, path, dst); err != nil {
				return nil, err
			}
		}

		colsVal := tv.LookupPath(cue.ParsePath("columns"))
		if colsVal.Exists() {
			fieldIter, err := colsVal.Fields()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for fieldIter.Next() {
				typ, err := fieldIter.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				decl.Columns = append(decl.Columns, ir.Column{
					Name: fieldIter.Label(),
					Type: ir.ColumnType(typ),
				})
			}
		}
		tables = append(tables, decl)
	}
	return tables, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsCompileError returns true if err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
