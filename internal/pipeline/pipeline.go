package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/featsynth/internal/engine"
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/merge"
	"github.com/roach88/featsynth/internal/primitive"
	"github.com/roach88/featsynth/internal/selection"
	"github.com/roach88/featsynth/internal/store"
)

// Options configures a Runner. Source is required; Exporter and Warehouse
// are skipped when nil.
type Options struct {
	Source    Source
	Exporter  Exporter
	Warehouse Warehouse

	// RunIDs defaults to UUIDv7Generator.
	RunIDs RunIDGenerator

	// Registry defaults to primitive.Default().
	Registry *primitive.Registry
}

// Runner executes plans.
type Runner struct {
	opts Options
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.RunIDs == nil {
		opts.RunIDs = UUIDv7Generator{}
	}
	if opts.Registry == nil {
		opts.Registry = primitive.Default()
	}
	return &Runner{opts: opts}
}

// Analysis is the state of a run after synthesis.
type Analysis struct {
	Plan *ir.Plan

	// Tables holds the prepared tables by name.
	Tables map[string]*ir.Table

	EntitySet *entity.EntitySet
	Integrity []entity.Integrity
	Frame     *engine.FeatureFrame
}

// Failure is a non-fatal per-table failure.
type Failure struct {
	Table string
	Stage string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Stage, f.Table, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is a completed run.
type Result struct {
	RunID    string
	Analysis *Analysis

	// Tables are the finished tables in plan table order.
	Tables []*ir.Table

	Exports  []string
	Writes   []store.WriteResult
	Failures []Failure
}

// Table returns the finished table with the given plan name.
func (r *Result) Table(name string) (*ir.Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Err joins every non-fatal failure, or returns nil.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Analyze loads, prepares, and links every table of plan, then synthesizes
// the feature frame for plan.Target.
func (r *Runner) Analyze(ctx context.Context, plan *ir.Plan) (*Analysis, error) {
	if r.opts.Source == nil {
		return nil, errors.New("pipeline: no source configured")
	}

	slog.Info("loading tables", "plan", plan.Name, "count", len(plan.Tables))
	loaded := make(map[string]*ir.Table, len(plan.Tables))
	for _, decl := range plan.Tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := r.opts.Source.Load(ctx, decl)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		slog.Debug("table loaded", "table", decl.Name, "rows", t.Len())
		loaded[decl.Name] = t
	}

	prepared, err := Prepare(plan, loaded)
	if err != nil {
		return nil, err
	}

	es, err := BuildEntitySet(plan, prepared)
	if err != nil {
		return nil, err
	}
	integrity := es.Validate()
	for _, rep := range integrity {
		if rep.Orphaned > 0 {
			slog.Warn("orphaned rows excluded from aggregation",
				"relationship", rep.Relationship,
				"count", rep.Orphaned,
				"keys", strings.Join(rep.OrphanKeys, ","))
		}
	}
	slog.Info("entity set ready", "tables", len(es.Tables()), "relationships", len(es.Relationships()))

	eng, err := r.engine(es, plan)
	if err != nil {
		return nil, err
	}
	frame, err := eng.Synthesize(plan.Target)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	slog.Info("features synthesized", "target", plan.Target, "rows", frame.Len(), "features", len(frame.Names()))

	return &Analysis{
		Plan:      plan,
		Tables:    prepared,
		EntitySet: es,
		Integrity: integrity,
		Frame:     frame,
	}, nil
}

func (r *Runner) engine(es *entity.EntitySet, plan *ir.Plan) (*engine.Engine, error) {
	var opts []engine.EngineOption
	if len(plan.Aggregations) > 0 {
		aggs, err := r.opts.Registry.Aggregations(plan.Aggregations...)
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w", err)
		}
		opts = append(opts, engine.WithAggregations(aggs...))
	}
	if len(plan.Transforms) > 0 {
		ts, err := r.opts.Registry.Transforms(plan.Transforms...)
		if err != nil {
			return nil, fmt.Errorf("synthesize: %w", err)
		}
		opts = append(opts, engine.WithTransforms(ts...))
	}
	return engine.New(es, opts...), nil
}

// BuildEntitySet adds every plan table in declaration order and links the
// declared relationships.
func BuildEntitySet(plan *ir.Plan, tables map[string]*ir.Table) (*entity.EntitySet, error) {
	es := entity.New(plan.Name)
	for _, decl := range plan.Tables {
		t, ok := tables[decl.Name]
		if !ok {
			return nil, &entity.SchemaError{Table: decl.Name, Message: "table not loaded"}
		}
		var opts []entity.TableOption
		if decl.TimeIndex != "" {
			opts = append(opts, entity.WithTimeIndex(decl.TimeIndex))
		}
		if _, err := es.Add(decl.Name, t.Schema, t.Rows(), decl.Key, opts...); err != nil {
			return nil, fmt.Errorf("build entity set: %w", err)
		}
	}
	for _, rel := range plan.Relationships {
		if _, err := es.Link(rel.Parent, rel.ParentKey, rel.Child, rel.ChildKey); err != nil {
			return nil, fmt.Errorf("build entity set: %w", err)
		}
	}
	return es, nil
}

// Materialize selects and merges the features of every plan table. Tables
// without an output declaration are copied, sorted, and uppercased.
func Materialize(a *Analysis) ([]*ir.Table, error) {
	plan := a.Plan
	out := make([]*ir.Table, 0, len(plan.Tables))
	for _, decl := range plan.Tables {
		base, ok := a.EntitySet.Table(decl.Name)
		if !ok {
			return nil, &entity.SchemaError{Table: decl.Name, Message: "table not in entity set"}
		}

		t, err := materialize(a.Frame, plan, decl, base)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", decl.Name, err)
		}
		slog.Info("table merged", "table", decl.Name, "rows", t.Len(), "columns", len(t.Schema))
		out = append(out, t)
	}
	return out, nil
}

func materialize(frame *engine.FeatureFrame, plan *ir.Plan, decl ir.TableDecl, base *ir.Table) (*ir.Table, error) {
	output, ok := plan.Output(decl.Name)
	if !ok {
		p, err := selection.Select(frame, nil)
		if err != nil {
			return nil, err
		}
		return merge.Direct(base, p, decl.SortKey())
	}

	switch output.Mode {
	case ir.OutputDirect:
		if decl.Name != frame.Target {
			return nil, fmt.Errorf("direct output must be the target table %s", frame.Target)
		}
		p, err := selection.Select(frame, output.Features)
		if err != nil {
			return nil, err
		}
		return merge.Direct(base, p, decl.SortKey())
	case ir.OutputCollapse:
		p, err := selection.Select(frame, withGroupKey(output))
		if err != nil {
			return nil, err
		}
		return merge.Collapse(base, p, output.By, decl.SortKey())
	default:
		return nil, fmt.Errorf("unknown output mode %q", output.Mode)
	}
}

// withGroupKey prepends the identity feature for output.By unless the
// output already selects a column by that name.
func withGroupKey(output ir.OutputDecl) []ir.FeatureRename {
	for _, f := range output.Features {
		if f.OutputName() == output.By {
			return output.Features
		}
	}
	return append([]ir.FeatureRename{{Feature: output.By}}, output.Features...)
}

// Run executes plan end to end.
//
// The returned error is fatal: nothing was exported or stored. Per-table
// export and store failures are in Result.Failures; see Result.Err.
func (r *Runner) Run(ctx context.Context, plan *ir.Plan) (*Result, error) {
	res := &Result{RunID: r.opts.RunIDs.Generate()}
	slog.Info("run started", "run_id", res.RunID, "plan", plan.Name)

	a, err := r.Analyze(ctx, plan)
	if err != nil {
		return nil, err
	}
	res.Analysis = a

	res.Tables, err = Materialize(a)
	if err != nil {
		return nil, err
	}

	for i, decl := range plan.Tables {
		t := res.Tables[i]
		if r.opts.Exporter != nil {
			r.export(ctx, res, decl, t)
		}
		if r.opts.Warehouse != nil {
			r.store(ctx, res, plan, decl, t, int64(i))
		}
	}

	slog.Info("run finished", "run_id", res.RunID, "tables", len(res.Tables), "failures", len(res.Failures))
	return res, nil
}

func (r *Runner) export(ctx context.Context, res *Result, decl ir.TableDecl, t *ir.Table) {
	path, err := r.opts.Exporter.Export(ctx, decl, t)
	if err != nil {
		slog.Warn("export failed", "table", decl.Name, "error", err)
		res.Failures = append(res.Failures, Failure{Table: decl.Name, Stage: "export", Err: err})
		return
	}
	if path != "" {
		slog.Info("table exported", "table", decl.Name, "path", path)
		res.Exports = append(res.Exports, path)
	}
}

func (r *Runner) store(ctx context.Context, res *Result, plan *ir.Plan, decl ir.TableDecl, t *ir.Table, seq int64) {
	name := StoreName(decl)
	wr, err := r.opts.Warehouse.Replace(ctx, name, t)
	if wr.DeleteErr != nil {
		slog.Warn("delete before write failed", "table", name, "error", wr.DeleteErr)
	}
	if err != nil {
		slog.Warn("table write failed", "table", name, "error", err)
		res.Failures = append(res.Failures, Failure{Table: name, Stage: "store", Err: err})
		return
	}
	slog.Info("table stored", "table", name, "rows", wr.Rows, "recreated", wr.Recreated)
	res.Writes = append(res.Writes, wr)

	rec := store.RunRecord{
		RunID:       res.RunID,
		Seq:         seq,
		Plan:        plan.Name,
		PlanHash:    plan.Hash,
		Table:       name,
		Rows:        int64(wr.Rows),
		Fingerprint: ir.Fingerprint(t),
	}
	if err := r.opts.Warehouse.RecordRun(ctx, rec); err != nil {
		slog.Warn("run log write failed", "table", name, "error", err)
		res.Failures = append(res.Failures, Failure{Table: name, Stage: "record", Err: err})
	}
}

// StoreName is the warehouse table for decl: its Store name, or its
// uppercased name when none is declared.
func StoreName(decl ir.TableDecl) string {
	if decl.Store != "" {
		return decl.Store
	}
	return strings.ToUpper(decl.Name)
}
