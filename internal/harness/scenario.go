package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/featsynth/internal/ir"
)

// Scenario defines one pipeline run and the output it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Plan is a CUE plan file. Empty means the embedded e-commerce plan.
	// LoadScenario resolves it relative to the scenario file.
	Plan string `yaml:"plan,omitempty"`

	// RunID is the fixed run ID. Defaults to "run-{name}".
	RunID string `yaml:"run_id,omitempty"`

	// Tables holds the raw input rows by plan table name.
	Tables map[string]TableData `yaml:"tables"`

	// Expect lists subset matches on the merged output tables.
	Expect []Expectation `yaml:"expect,omitempty"`

	// ExpectError is a substring of the fatal error the run must fail with,
	// usually an error code such as UNKNOWN_FEATURE.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectOrphans maps a relationship ("orders.CustomerID ->
	// customer.CustomerID") to its expected orphan count.
	ExpectOrphans map[string]int `yaml:"expect_orphans,omitempty"`
}

// TableData is one input table.
type TableData struct {
	// Columns fixes the column order. Optional.
	Columns []string `yaml:"columns,omitempty"`

	Rows []map[string]any `yaml:"rows"`
}

// Expectation validates one output table.
type Expectation struct {
	// Table is the plan table name (lowercase, as declared).
	Table string `yaml:"table"`

	// Rows, when set, is the expected row count.
	Rows *int `yaml:"rows,omitempty"`

	// Key selects the row by the table's primary key.
	Key any `yaml:"key,omitempty"`

	// Values are expected column values of the selected row, by uppercased
	// output column name. Subset match; a nil value expects Null.
	Values map[string]any `yaml:"values,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Plan != "" && !filepath.IsAbs(scenario.Plan) {
		scenario.Plan = filepath.Join(filepath.Dir(path), scenario.Plan)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Plan paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Tables) == 0 {
		return fmt.Errorf("tables is required and must be non-empty")
	}
	if len(s.Expect) == 0 && s.ExpectError == "" && len(s.ExpectOrphans) == 0 {
		return fmt.Errorf("at least one of expect, expect_error, or expect_orphans is required")
	}
	if s.ExpectError != "" && len(s.Expect) > 0 {
		return fmt.Errorf("expect_error and expect are mutually exclusive")
	}

	for i, e := range s.Expect {
		if e.Table == "" {
			return fmt.Errorf("expect[%d]: table is required", i)
		}
		if e.Key == nil && e.Rows == nil {
			return fmt.Errorf("expect[%d]: key or rows is required", i)
		}
		if e.Key == nil && len(e.Values) > 0 {
			return fmt.Errorf("expect[%d]: values need a key", i)
		}
	}
	return nil
}

// buildTable converts scenario rows into a table using decl's column types.
func buildTable(decl ir.TableDecl, data TableData) (*ir.Table, error) {
	schema := make(ir.Schema, 0)
	for _, name := range columnOrder(decl, data) {
		schema = append(schema, ir.Column{Name: name, Type: decl.ColumnType(name)})
	}

	rows := make([]ir.Row, len(data.Rows))
	for i, raw := range data.Rows {
		row := make(ir.Row, len(schema))
		for name, v := range raw {
			if !schema.Has(name) {
				return nil, fmt.Errorf("table %s row %d: column %q not in columns", decl.Name, i+1, name)
			}
			val, err := ir.FromAny(v, decl.ColumnType(name))
			if err != nil {
				return nil, fmt.Errorf("table %s row %d, column %s: %w", decl.Name, i+1, name, err)
			}
			row[name] = val
		}
		for _, c := range schema {
			if _, ok := row[c.Name]; !ok {
				row[c.Name] = ir.Null{}
			}
		}
		rows[i] = row
	}
	return ir.NewTable(decl.Name, schema, decl.Key, rows), nil
}

// columnOrder returns data.Columns when given; otherwise the declared
// columns, the key, then every other row key sorted by name.
func columnOrder(decl ir.TableDecl, data TableData) []string {
	if len(data.Columns) > 0 {
		return data.Columns
	}

	seen := make(map[string]bool)
	var order []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, c := range decl.Columns {
		add(c.Name)
	}
	add(decl.Key)

	var rest []string
	for _, row := range data.Rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				rest = append(rest, name)
			}
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
