package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/featsynth/internal/csvio"
)

// Snapshot renders a result as deterministic text: every output table as
// CSV in plan order, then the integrity report.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# scenario: %s\n# run: %s\n", scenarioName, result.RunID)

	for _, t := range result.Tables {
		fmt.Fprintf(&buf, "\n## %s (key %s, %d rows)\n", t.Name, t.Key, t.Len())
		if err := csvio.Write(&buf, t); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", t.Name, err)
		}
	}

	if len(result.Integrity) > 0 {
		buf.WriteString("\n## integrity\n")
		for _, rep := range result.Integrity {
			fmt.Fprintf(&buf, "%s: referenced=%d orphaned=%d null=%d",
				rep.Relationship, rep.Referenced, rep.Orphaned, rep.NullKeys)
			if len(rep.OrphanKeys) > 0 {
				fmt.Fprintf(&buf, " keys=%s", strings.Join(rep.OrphanKeys, ","))
			}
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its output tables against
// a golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)
	return nil
}
