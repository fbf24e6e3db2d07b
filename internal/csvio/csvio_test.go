package csvio

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/testutil"
)

var ordersDecl = ir.TableDecl{
	Name:      "orders",
	Source:    "Orders.csv",
	Key:       "OrderID",
	TimeIndex: "OrderDate",
	Export:    "orders_transformed.csv",
	Columns: []ir.Column{
		{Name: "OrderID", Type: ir.TypeInt},
		{Name: "OrderDate", Type: ir.TypeTimestamp},
		{Name: "ShipDate", Type: ir.TypeTimestamp},
		{Name: "OrderQuantity", Type: ir.TypeInt},
	},
}

func TestRead(t *testing.T) {
	src := "\ufeffOrderID,CustomerID,ProductID,OrderDate,OrderQuantity\n" +
		"1,C1,P1,2024-01-08,2\n" +
		"2, C2 ,P2,2024-01-09 10:15:00,\n"

	tbl, err := Read(context.Background(), strings.NewReader(src), ordersDecl)
	require.NoError(t, err)

	assert.Equal(t, "orders", tbl.Name)
	assert.Equal(t, "OrderID", tbl.Key)
	assert.Equal(t, []string{"OrderID", "CustomerID", "ProductID", "OrderDate", "OrderQuantity", "ShipDate"}, tbl.Schema.Names())

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, ir.Int(1), tbl.Row(0).Get("OrderID"))
	assert.Equal(t, testutil.Date("2024-01-08"), tbl.Row(0).Get("OrderDate"))
	assert.Equal(t, ir.String("C2"), tbl.Row(1).Get("CustomerID"), "cells are trimmed")
	assert.Equal(t, ir.Null{}, tbl.Row(1).Get("OrderQuantity"), "empty cell is null")
	assert.Equal(t, ir.Null{}, tbl.Row(0).Get("ShipDate"), "declared but absent column is null")
	assert.True(t, tbl.Contains(ir.Int(2)))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "read header"},
		{"bad int", "OrderID\nx\n", "line 2, column OrderID"},
		{"ragged row", "OrderID,CustomerID\n1\n", "wrong number of fields"},
		{"duplicate header", "OrderID,OrderID\n1,2\n", "duplicate header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader(tt.src), ordersDecl)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSourceLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Orders.csv"), []byte("OrderID,OrderDate\n1,2024-01-08\n"), 0o644))

	tbl, err := Source{Dir: dir}.Load(context.Background(), ordersDecl)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	missing := ordersDecl
	missing.Source = "Missing.csv"
	_, err = Source{Dir: dir}.Load(context.Background(), missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table orders")
}

func TestWrite(t *testing.T) {
	tbl := ir.NewTable("sellers", ir.Schema{
		{Name: "SellerID", Type: ir.TypeString},
		{Name: "TotalRevenue", Type: ir.TypeFloat},
		{Name: "SellerOrderCount", Type: ir.TypeInt},
	}, "SellerID", []ir.Row{
		{"SellerID": ir.String("S1"), "TotalRevenue": ir.Float(20), "SellerOrderCount": ir.Int(1)},
		{"SellerID": ir.String("S, Inc"), "TotalRevenue": ir.Float(2.5)},
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl))
	assert.Equal(t, "SELLERID,TOTALREVENUE,SELLERORDERCOUNT\nS1,20,1\n\"S, Inc\",2.5,\n", buf.String())
}

func TestWrite_WholeNumbersMatchAcrossTypes(t *testing.T) {
	tbl := ir.NewTable("customer", ir.Schema{
		{Name: "CustomerID", Type: ir.TypeString},
		{Name: "OrderCount", Type: ir.TypeInt},
		{Name: "AverageCount", Type: ir.TypeFloat},
	}, "CustomerID", []ir.Row{
		{"CustomerID": ir.String("C1"), "OrderCount": ir.Int(2), "AverageCount": ir.Float(2)},
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl))
	assert.Equal(t, "CUSTOMERID,ORDERCOUNT,AVERAGECOUNT\nC1,2,2\n", buf.String())
}

func TestExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Data")
	tbl := ir.NewTable("orders", testutil.OrdersSchema(), "OrderID", []ir.Row{
		testutil.Order(1, "C1", "P1", "S1", "2024-01-08", 2, 10),
	})

	path, err := Exporter{Dir: dir}.Export(context.Background(), ordersDecl, tbl)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orders_transformed.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ORDERID,CUSTOMERID,PRODUCTID,SELLERID,ORDERDATE,SHIPDATE,ORDERQUANTITY,PRODUCTPRICE,ORDERTOTAL", lines[0])
	assert.Equal(t, "1,C1,P1,S1,2024-01-08,,2,10,20", lines[1])

	noExport := ordersDecl
	noExport.Export = ""
	path, err = Exporter{Dir: dir}.Export(context.Background(), noExport, tbl)
	require.NoError(t, err)
	assert.Empty(t, path)
}
