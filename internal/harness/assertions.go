package harness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/featsynth/internal/ir"
)

// floatTolerance is the absolute difference under which two floats match.
const floatTolerance = 1e-9

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Expectation kind: rows, row, value, orphans, expect_error
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Row      ir.Row // Row under test, when one was found
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	if e.Row != nil {
		fmt.Fprintf(&buf, "\n\nRow:\n")
		for _, k := range sortedKeys(e.Row) {
			fmt.Fprintf(&buf, "  %s = %s\n", k, describe(e.Row[k]))
		}
	}
	return buf.String()
}

// EvaluateExpectations checks the scenario's expect and expect_orphans
// against result. Returns a message per failed expectation, in scenario
// order.
func EvaluateExpectations(result *Result, scenario *Scenario) []string {
	var errors []string

	for i, exp := range scenario.Expect {
		if err := assertTable(result, exp); err != nil {
			errors = append(errors, fmt.Sprintf("expect[%d]: %v", i, err))
		}
	}

	for _, rel := range sortedKeys(scenario.ExpectOrphans) {
		if err := assertOrphans(result, rel, scenario.ExpectOrphans[rel]); err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func assertTable(result *Result, exp Expectation) error {
	t, ok := result.Table(exp.Table)
	if !ok {
		return &AssertionError{
			Type:     "table",
			Expected: fmt.Sprintf("output table %s", exp.Table),
			Actual:   "table not in output",
		}
	}

	if exp.Rows != nil && t.Len() != *exp.Rows {
		return &AssertionError{
			Type:     "rows",
			Expected: fmt.Sprintf("%d rows in %s", *exp.Rows, exp.Table),
			Actual:   fmt.Sprintf("%d rows", t.Len()),
		}
	}
	if exp.Key == nil {
		return nil
	}

	keyCol, _ := t.Schema.Lookup(t.Key)
	key, err := ir.FromAny(exp.Key, keyCol.Type)
	if err != nil {
		return fmt.Errorf("key %v: %w", exp.Key, err)
	}
	row, ok := t.Lookup(key)
	if !ok {
		return &AssertionError{
			Type:     "row",
			Expected: fmt.Sprintf("row in %s where %s = %s", exp.Table, t.Key, describe(key)),
			Actual:   "row not found",
		}
	}

	for _, name := range sortedKeys(exp.Values) {
		col, exists := t.Schema.Lookup(name)
		if !exists {
			return &AssertionError{
				Type:     "value",
				Expected: fmt.Sprintf("column %q to exist", name),
				Actual:   fmt.Sprintf("columns are %v", t.Schema.Names()),
				Row:      row,
			}
		}
		want, err := ir.FromAny(exp.Values[name], col.Type)
		if err != nil {
			return fmt.Errorf("value for %s: %w", name, err)
		}
		if got := row.Get(name); !valuesEqual(want, got) {
			return &AssertionError{
				Type:     "value",
				Expected: fmt.Sprintf("%s = %s", name, describe(want)),
				Actual:   fmt.Sprintf("%s = %s", name, describe(got)),
				Row:      row,
			}
		}
	}
	return nil
}

func assertOrphans(result *Result, relationship string, want int) error {
	for _, rep := range result.Integrity {
		if rep.Relationship != relationship {
			continue
		}
		if rep.Orphaned != want {
			return &AssertionError{
				Type:     "orphans",
				Expected: fmt.Sprintf("%d orphaned rows for %s", want, relationship),
				Actual:   fmt.Sprintf("%d orphaned (keys %v)", rep.Orphaned, rep.OrphanKeys),
			}
		}
		return nil
	}

	known := make([]string, len(result.Integrity))
	for i, rep := range result.Integrity {
		known[i] = rep.Relationship
	}
	return &AssertionError{
		Type:     "orphans",
		Expected: fmt.Sprintf("relationship %s", relationship),
		Actual:   fmt.Sprintf("not found; relationships are %v", known),
	}
}

// valuesEqual compares two values. Numbers compare by magnitude so an
// expected 20 matches a Float 20; floats match within floatTolerance.
func valuesEqual(want, got ir.Value) bool {
	wf, wok := ir.AsFloat(want)
	gf, gok := ir.AsFloat(got)
	if wok && gok {
		return math.Abs(wf-gf) <= floatTolerance
	}
	return ir.Equal(want, got)
}

// describe renders a value with its type for failure messages.
func describe(v ir.Value) string {
	if ir.IsNull(v) {
		return "null"
	}
	return fmt.Sprintf("%s (%s)", ir.Format(v), ir.TypeOf(v))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
