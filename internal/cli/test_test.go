package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenarioDir = filepath.Join("..", "harness", "testdata", "scenarios")
	goldenDir   = filepath.Join("..", "harness", "testdata", "golden")
)

const failingScenario = `
name: wrong_total
description: "expects a total the pipeline does not produce"
tables:
  orders:
    rows:
      - {OrderID: 1, CustomerID: C1, ProductID: P1, OrderDate: "2024-01-08", OrderQuantity: 2}
  customer:
    rows:
      - {CustomerID: C1}
  products:
    rows:
      - {ProductID: P1, SellerID: S1, ProductPrice: 10}
  sellers:
    rows:
      - {SellerID: S1}
expect:
  - table: orders
    key: 1
    values: {ORDERTOTAL: 21}
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandScenarios(t *testing.T) {
	out, err := execute(t, "test", scenarioDir, "--golden", goldenDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ single_order")
	assert.Contains(t, out, "✓ monthly_load")
	assert.Contains(t, out, "✓ duplicate_customer")
	assert.Contains(t, out, "0 failed")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "--format", "json", "test", scenarioDir, "--filter", "single*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "single_order", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "wrong_total.yaml"), failingScenario)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_total")
	assert.Contains(t, out, "ORDERTOTAL = 21 (float)")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wrong_total.yaml")
	writeFile(t, path, failingScenario)

	out, err := execute(t, "--format", "json", "test", path)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandGoldenUpdateAndMismatch(t *testing.T) {
	golden := t.TempDir()
	single := filepath.Join(scenarioDir, "single_order.yaml")

	out, err := execute(t, "test", single, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ single_order")

	written, err := os.ReadFile(filepath.Join(golden, "single_order.golden"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(goldenDir, "single_order.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))

	writeFile(t, filepath.Join(golden, "single_order.golden"), "stale\n")
	out, err = execute(t, "test", single, "--golden", golden)
	require.Error(t, err)
	assert.Contains(t, out, "does not match")
}

func TestTestCommandUpdateNeedsGolden(t *testing.T) {
	_, err := execute(t, "test", scenarioDir, "--update")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
