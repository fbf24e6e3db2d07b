package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/testutil"
)

func TestPrepare_EcommerceSteps(t *testing.T) {
	withSeller := testutil.RawOrder(2, "C1", "P2", "2024-01-09", 3)
	tables := testutil.RawTables(
		[]ir.Row{
			testutil.RawOrder(1, "C1", "P1", "2024-01-08", 2),
			withSeller,
			testutil.RawOrder(3, "C1", "P404", "2024-01-10", 1),
		},
		nil,
		[]ir.Row{
			testutil.Product("P1", "S1", 10),
			testutil.Product("P2", "S2", 0.1),
			testutil.Product("P3", "S1", 99),
		},
		nil,
	)

	out, err := Prepare(testutil.EcommercePlan(), tables)
	require.NoError(t, err)

	products := out["products"]
	assert.Equal(t, []ir.Value{ir.String("P1"), ir.String("P2")}, products.Column("ProductID"), "unordered products dropped")

	orders := out["orders"]
	assert.Equal(t, []string{"OrderID", "CustomerID", "ProductID", "OrderDate", "ShipDate", "OrderQuantity", "SellerID", "ProductPrice", "OrderTotal"}, orders.Schema.Names())
	assert.Equal(t, []ir.Value{ir.String("S1"), ir.String("S2"), ir.Null{}}, orders.Column("SellerID"))
	assert.Equal(t, []ir.Value{ir.Float(20), ir.Float(0.3), ir.Null{}}, orders.Column("OrderTotal"), "decimal product; unmatched product has no total")

	col, _ := orders.Schema.Lookup("OrderTotal")
	assert.Equal(t, ir.TypeFloat, col.Type)

	// Inputs are untouched.
	assert.Equal(t, 3, tables["products"].Len())
	assert.False(t, tables["orders"].Schema.Has("OrderTotal"))
}

func TestPrepare_LookupKeepsExistingValues(t *testing.T) {
	order := testutil.Order(1, "C1", "P1", "S9", "2024-01-08", 2, 0)
	order["ProductPrice"] = ir.Null{}
	plan := &ir.Plan{Prepare: []ir.PrepareStep{
		{Kind: ir.StepLookup, Table: "orders", From: "products", On: "ProductID", Columns: []string{"SellerID", "ProductPrice"}},
	}}
	tables := map[string]*ir.Table{
		"orders":   ir.NewTable("orders", testutil.OrdersSchema(), "OrderID", []ir.Row{order}),
		"products": ir.NewTable("products", testutil.ProductsSchema(), "ProductID", []ir.Row{testutil.Product("P1", "S1", 10)}),
	}

	out, err := Prepare(plan, tables)
	require.NoError(t, err)
	row := out["orders"].Row(0)
	assert.Equal(t, ir.String("S9"), row.Get("SellerID"), "non-null value kept")
	assert.Equal(t, ir.Float(10), row.Get("ProductPrice"), "null value filled")
}

func TestPrepare_Errors(t *testing.T) {
	tables := testutil.RawTables(nil, nil, nil, nil)

	tests := []struct {
		name string
		step ir.PrepareStep
	}{
		{"unknown table", ir.PrepareStep{Kind: ir.StepSemiJoin, Table: "returns", From: "orders", On: "ProductID"}},
		{"unknown column", ir.PrepareStep{Kind: ir.StepLookup, Table: "orders", From: "products", On: "ProductID", Columns: []string{"Discount"}}},
		{"no operands", ir.PrepareStep{Kind: ir.StepDerive, Table: "orders", Column: "OrderTotal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(&ir.Plan{Prepare: []ir.PrepareStep{tt.step}}, tables)
			require.Error(t, err)
			assert.True(t, entity.IsSchemaError(err))
		})
	}

	_, err := Prepare(&ir.Plan{Prepare: []ir.PrepareStep{{Kind: "pivot", Table: "orders"}}}, tables)
	assert.ErrorContains(t, err, `unknown step kind "pivot"`)
}

func TestFixedGenerator(t *testing.T) {
	gen := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", gen.Generate())
	assert.Equal(t, "b", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
