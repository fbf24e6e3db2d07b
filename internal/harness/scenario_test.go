package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/ir"
)

const minimalScenario = `
name: minimal
description: "one table"
tables:
  sellers:
    rows:
      - {SellerID: S1}
expect:
  - table: sellers
    rows: 1
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Expect, 1)
	require.NotNil(t, s.Expect[0].Rows)
	assert.Equal(t, 1, *s.Expect[0].Rows)
	assert.Equal(t, "S1", s.Tables["sellers"].Rows[0]["SellerID"])
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "expects: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\ntables: {a: {rows: []}}\nexpect_error: X\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\ntables: {a: {rows: []}}\nexpect_error: X\n",
			wantErr: "description is required",
		},
		{
			name:    "no tables",
			yaml:    "name: n\ndescription: d\nexpect_error: X\n",
			wantErr: "tables is required",
		},
		{
			name:    "nothing expected",
			yaml:    "name: n\ndescription: d\ntables: {a: {rows: []}}\n",
			wantErr: "at least one of",
		},
		{
			name:    "error and expect",
			yaml:    "name: n\ndescription: d\ntables: {a: {rows: []}}\nexpect_error: X\nexpect: [{table: a, rows: 0}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "expect without table",
			yaml:    "name: n\ndescription: d\ntables: {a: {rows: []}}\nexpect: [{rows: 0}]\n",
			wantErr: "table is required",
		},
		{
			name:    "values without key",
			yaml:    "name: n\ndescription: d\ntables: {a: {rows: []}}\nexpect: [{table: a, rows: 0, values: {X: 1}}]\n",
			wantErr: "values need a key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesPlanPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"plan: plans/p.cue\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plans", "p.cue"), s.Plan)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestBuildTable(t *testing.T) {
	decl := ir.TableDecl{
		Name: "orders",
		Key:  "OrderID",
		Columns: []ir.Column{
			{Name: "OrderDate", Type: ir.TypeTimestamp},
			{Name: "OrderID", Type: ir.TypeInt},
		},
	}
	data := TableData{Rows: []map[string]any{
		{"OrderID": 1, "ProductID": "P1", "CustomerID": "C1", "OrderDate": "2024-01-08"},
		{"OrderID": 2, "CustomerID": 7},
	}}

	tbl, err := buildTable(decl, data)
	require.NoError(t, err)

	assert.Equal(t, []string{"OrderDate", "OrderID", "CustomerID", "ProductID"}, tbl.Schema.Names(),
		"declared columns, then the rest sorted")
	assert.Equal(t, ir.Int(1), tbl.Row(0).Get("OrderID"))
	assert.Equal(t, ir.String("7"), tbl.Row(1).Get("CustomerID"), "undeclared columns are strings")
	assert.Equal(t, ir.Null{}, tbl.Row(1).Get("OrderDate"))
	assert.True(t, tbl.Contains(ir.Int(2)))
}

func TestBuildTable_ExplicitColumns(t *testing.T) {
	decl := ir.TableDecl{Name: "sellers", Key: "SellerID"}

	tbl, err := buildTable(decl, TableData{
		Columns: []string{"SellerName", "SellerID"},
		Rows:    []map[string]any{{"SellerID": "S1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SellerName", "SellerID"}, tbl.Schema.Names())

	_, err = buildTable(decl, TableData{
		Columns: []string{"SellerID"},
		Rows:    []map[string]any{{"SellerID": "S1", "Region": "EU"}},
	})
	assert.ErrorContains(t, err, `column "Region" not in columns`)
}

func TestBuildTable_EmptyKeepsKey(t *testing.T) {
	tbl, err := buildTable(ir.TableDecl{Name: "sellers", Key: "SellerID"}, TableData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"SellerID"}, tbl.Schema.Names())
	assert.Equal(t, 0, tbl.Len())
}
