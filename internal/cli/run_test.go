package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// copyData copies the fixture CSVs into dir.
func copyData(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dataDir, e.Name()))
		require.NoError(t, err)
		writeFile(t, filepath.Join(dir, e.Name()), string(data))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// replaceOnce replaces the single occurrence of old in s.
func replaceOnce(t *testing.T, s, old, repl string) string {
	t.Helper()
	require.Equal(t, 1, strings.Count(s, old), "expected one %s", old)
	return strings.Replace(s, old, repl, 1)
}

func TestRun_ExportsAndUploads(t *testing.T) {
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "Data")
	dsn := filepath.Join(tmp, "warehouse.db")

	out, err := execute(t, "run", "--data", dataDir, "--out", outDir, "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)

	assert.Contains(t, out, "Uploaded 3 rows to ORDERS")
	assert.Contains(t, out, "Uploaded 2 rows to CUSTOMERS")
	assert.Contains(t, out, "Uploaded 2 rows to PRODUCTS")
	assert.Contains(t, out, "Uploaded 2 rows to SELLERS")
	assert.Contains(t, out, "! orders.CustomerID -> customer.CustomerID: 1 orphaned row(s) excluded")
	assert.Contains(t, out, "Exported "+filepath.Join(outDir, "orders_transformed.csv"))
	assert.Contains(t, out, "4 table(s) merged")

	assert.Equal(t,
		"CUSTOMERID,CUSTOMERNAME,CUSTOMERSIGNUPDATE,CUSTOMERORDERCOUNT,TOTALITEMSPURCHASED,AVERAGESPENT\n"+
			"C1,Ada,2023-12-01,1,2,20\n"+
			"C2,Grace,2023-12-02,1,1,2.5\n",
		readFile(t, filepath.Join(outDir, "customers_transformed.csv")))
	assert.Equal(t,
		"SELLERID,SELLERNAME,SELLERORDERCOUNT,TOTALITEMSSOLD,TOTALREVENUE\n"+
			"S1,Acme,2,5,50\n"+
			"S2,Globex,1,1,2.5\n",
		readFile(t, filepath.Join(outDir, "sellers_transformed.csv")))
}

func TestRun_JSONRecordsRuns(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "warehouse.db")

	out, err := execute(t, "--format", "json", "run", "--data", dataDir, "--out", "", "--driver", "sqlite", "--dsn", dsn)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ecommerce", resp.Data.Plan)
	assert.Len(t, resp.Data.Uploads, 4)
	assert.Empty(t, resp.Data.Exports, "--out \"\" disables export")
	require.Len(t, resp.Data.Tables, 4)
	assert.Equal(t, TableSummary{Name: "orders", Rows: 3, Columns: 15}, resp.Data.Tables[0])

	st, err := store.OpenSQLite(dsn)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.Runs(context.Background(), resp.Data.RunID)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, "ORDERS", runs[0].Table)
	assert.Equal(t, int64(3), runs[0].Rows)
	assert.Len(t, runs[0].Fingerprint, 64)
}

func TestRun_RerunReplacesRows(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	args := []string{"run", "--data", dataDir, "--out", "", "--driver", "sqlite", "--dsn", dsn}

	_, err := execute(t, args...)
	require.NoError(t, err)
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded 3 rows to ORDERS")

	st, err := store.OpenSQLite(dsn)
	require.NoError(t, err)
	defer st.Close()

	tbl, err := st.ReadTable(context.Background(), "SELLERS", ir.Schema{{Name: "SELLERID", Type: ir.TypeString}}, "SELLERID")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len(), "replace leaves one copy of the rows")
}

func TestRun_NoWarehouse(t *testing.T) {
	out, err := execute(t, "run", "--data", dataDir, "--out", "", "--driver", "none")
	require.NoError(t, err)
	assert.NotContains(t, out, "Uploaded")
	assert.NotContains(t, out, "Exported")
	assert.Contains(t, out, "4 table(s) merged")
}

func TestRun_EnvSelectsWarehouse(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "env.db")
	clearEnv(t)
	t.Setenv("FEATSYNTH_WAREHOUSE_DRIVER", "sqlite")
	t.Setenv("FEATSYNTH_WAREHOUSE_DSN", dsn)

	out := &bytes.Buffer{}
	root := NewRootCommand()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--data", dataDir, "--out", ""})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Uploaded 2 rows to PRODUCTS")
	assert.FileExists(t, dsn)
}

func TestRun_BadDriverFlag(t *testing.T) {
	out, err := execute(t, "run", "--data", dataDir, "--driver", "snowflake")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestRun_UnknownFeatureWritesNothing(t *testing.T) {
	tmp := t.TempDir()
	outDir := filepath.Join(tmp, "Data")
	plan := filepath.Join(tmp, "typo.cue")
	src := readFile(t, filepath.Join("..", "compiler", "plans", "ecommerce.cue"))
	writeFile(t, plan, replaceOnce(t, src, `"customer.COUNT(orders)"`, `"customer.COUNT(order)"`))

	out, err := execute(t, "--plan", plan, "run", "--data", dataDir, "--out", outDir, "--driver", "none")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNKNOWN_FEATURE]")
	assert.NoDirExists(t, outDir, "fatal errors stop before any export")
}

func TestRun_StoreOpenFailure(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "missing", "dir", "warehouse.db")

	out, err := execute(t, "run", "--data", dataDir, "--out", "", "--driver", "sqlite", "--dsn", dsn)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}
