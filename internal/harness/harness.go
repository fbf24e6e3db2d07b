package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/featsynth/internal/compiler"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/pipeline"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against an in-memory source with no exporter or
// warehouse, so runs are isolated and leave nothing on disk.
//
// Execution flow:
// 1. Compile and validate the plan
// 2. Build input tables from the scenario rows
// 3. Run the pipeline with a fixed run ID
// 4. Evaluate expect_error, expect_orphans, and expect
//
// The returned error is for scenarios that cannot run at all (bad plan,
// unconvertible rows). A pipeline failure is a scenario outcome: it passes
// when it matches expect_error and fails otherwise.
func Run(scenario *Scenario) (*Result, error) {
	plan, err := loadPlan(scenario.Plan)
	if err != nil {
		return nil, err
	}

	src := make(pipeline.MemorySource, len(plan.Tables))
	for _, decl := range plan.Tables {
		t, err := buildTable(decl, scenario.Tables[decl.Name])
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		src[decl.Name] = t
	}
	for name := range scenario.Tables {
		if _, ok := plan.Table(name); !ok {
			return nil, fmt.Errorf("scenario %s: table %q is not in plan %s", scenario.Name, name, plan.Name)
		}
	}

	runID := scenario.RunID
	if runID == "" {
		runID = "run-" + scenario.Name
	}
	runner := pipeline.New(pipeline.Options{
		Source: src,
		RunIDs: pipeline.NewFixedGenerator(runID),
	})

	result := NewResult()
	result.RunID = runID

	res, runErr := runner.Run(context.Background(), plan)
	if runErr != nil {
		result.Err = runErr
		if scenario.ExpectError == "" {
			result.AddError(fmt.Sprintf("run failed: %v", runErr))
		} else if !strings.Contains(runErr.Error(), scenario.ExpectError) {
			result.AddError((&AssertionError{
				Type:     "expect_error",
				Expected: fmt.Sprintf("error containing %q", scenario.ExpectError),
				Actual:   runErr.Error(),
			}).Error())
		}
		return result, nil
	}

	result.Tables = res.Tables
	result.Integrity = res.Analysis.Integrity
	if scenario.ExpectError != "" {
		result.AddError((&AssertionError{
			Type:     "expect_error",
			Expected: fmt.Sprintf("error containing %q", scenario.ExpectError),
			Actual:   "run succeeded",
		}).Error())
	}

	for _, msg := range EvaluateExpectations(result, scenario) {
		result.AddError(msg)
	}
	return result, nil
}

func loadPlan(path string) (*ir.Plan, error) {
	var (
		plan *ir.Plan
		err  error
	)
	if path == "" {
		plan, err = compiler.CompileDefault()
	} else {
		plan, err = compiler.CompileFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("compile plan: %w", err)
	}

	if errs := compiler.Validate(plan); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid plan %s:\n  %s", plan.Name, strings.Join(msgs, "\n  "))
	}
	return plan, nil
}
