package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileDefaultPlan(t *testing.T) {
	out, err := execute(t, "compile")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled plan ecommerce: 4 table(s), 3 relationship(s), 4 output(s)")
	assert.Contains(t, out, "Target: orders")
	assert.Contains(t, out, "  orders: key OrderID, source Orders.csv")
	assert.Contains(t, out, "  customer.CustomerID → orders.CustomerID")
	assert.Contains(t, out, "  customer: collapse by CustomerID, 3 feature(s)")
	assert.NotContains(t, out, "warning:")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Hash, 64)
	require.NotNil(t, resp.Data.Plan)
	assert.Equal(t, "orders", resp.Data.Plan.Target)
	assert.Len(t, resp.Data.Plan.Tables, 4)
}

func TestCompileWritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")

	out, err := execute(t, "compile", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled plan to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "ecommerce", result.Plan.Name)
}

func TestCompileSyntaxError(t *testing.T) {
	out, err := execute(t, "compile", filepath.Join("testdata", "bad_syntax.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, ErrCodeCompile)
}

func TestCompileMissingFile(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "read plan")
}

func TestCompileInvalidPlan(t *testing.T) {
	out, err := execute(t, "compile", filepath.Join("testdata", "invalid_plan.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E207: outputs[0].mode")
	assert.Contains(t, out, "E206: outputs[1].by")
}

func TestCompilePlanFlagFromConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "featsynth.yaml")
	plan, err := filepath.Abs(filepath.Join("testdata", "invalid_plan.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, []byte("plan: "+plan+"\n"), 0o644))

	_, err = execute(t, "--config", cfg, "compile")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "config plan is compiled")

	_, err = execute(t, "--config", cfg, "--plan", filepath.Join("..", "compiler", "plans", "ecommerce.cue"), "compile")
	assert.NoError(t, err, "--plan overrides the config")
}

func TestCompileBadConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "featsynth.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("warehouse:\n  driver: snowflake\n"), 0o644))

	out, err := execute(t, "--config", cfg, "compile")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
	assert.Contains(t, out, `unknown warehouse driver "snowflake"`)
}
