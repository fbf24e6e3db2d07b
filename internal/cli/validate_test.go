package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateData(t *testing.T) {
	out, err := execute(t, "validate", "--data", dataDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Plan ecommerce valid")
	assert.Contains(t, out, "  orders [Rows: 3, Columns: 9]")
	assert.Contains(t, out, "  products [Rows: 2, Columns: 4]", "unordered products are dropped")
	assert.Contains(t, out, "orders.ProductID -> products.ProductID: 3 referenced, 0 orphaned, 0 null")
	assert.Contains(t, out, "orders.CustomerID -> customer.CustomerID: 2 referenced, 1 orphaned, 0 null")
	assert.Contains(t, out, "orphan keys: C9")
}

func TestValidateJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "--data", dataDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Integrity, 3)
	assert.Equal(t, 1, resp.Data.Integrity[1].Orphaned)
	assert.Equal(t, []string{"C9"}, resp.Data.Integrity[1].OrphanKeys)
}

func TestValidatePlanOnly(t *testing.T) {
	out, err := execute(t, "validate", "--plan-only", "--data", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Plan ecommerce valid")
	assert.NotContains(t, out, "Tables:")
}

func TestValidateMissingData(t *testing.T) {
	out, err := execute(t, "validate", "--data", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
	assert.Contains(t, out, "Orders.csv")
}

func TestValidateSchemaError(t *testing.T) {
	dir := t.TempDir()
	copyData(t, dir)
	writeFile(t, filepath.Join(dir, "Customers.csv"),
		"CustomerID,CustomerName,CustomerSignupDate\nC1,Ada,2023-12-01\nC1,Ada again,2023-12-05\n")

	out, err := execute(t, "--format", "json", "validate", "--data", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "SCHEMA", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "customer")
}

func TestValidateCycleWarning(t *testing.T) {
	plan := filepath.Join(t.TempDir(), "cyclic.cue")
	writeFile(t, plan, `plan: {
	name:   "cyclic"
	target: "orders"
	tables: [{name: "orders", key: "OrderID"}, {name: "customer", key: "CustomerID"}]
	relationships: [
		{parent: "customer", parent_key: "CustomerID", child: "orders", child_key: "CustomerID"},
		{parent: "orders", parent_key: "OrderID", child: "customer", child_key: "LastOrderID"},
	]
}
`)

	out, err := execute(t, "--plan", plan, "validate", "--plan-only")
	require.NoError(t, err, "cycles are warnings")
	assert.Contains(t, out, "warning: Relationship cycle")
}
