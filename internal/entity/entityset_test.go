package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/testutil"
)

// newTestSet builds customer + orders with a customer→orders link.
func newTestSet(t *testing.T, orders ...ir.Row) (*EntitySet, *Relationship) {
	t.Helper()
	es := New("orders")

	_, err := es.Add("customer", testutil.CustomersSchema(), []ir.Row{
		testutil.Customer("C1", "Ada", "2023-12-01"),
		testutil.Customer("C2", "Grace", "2023-12-02"),
	}, "CustomerID", WithTimeIndex("CustomerSignupDate"))
	require.NoError(t, err)

	_, err = es.Add("orders", testutil.OrdersSchema(), orders, "OrderID", WithTimeIndex("OrderDate"))
	require.NoError(t, err)

	rel, err := es.Link("customer", "CustomerID", "orders", "CustomerID")
	require.NoError(t, err)
	return es, rel
}

func TestAdd_CopiesRows(t *testing.T) {
	rows := []ir.Row{testutil.Customer("C1", "Ada", "2023-12-01")}
	es := New("test")

	tbl, err := es.Add("customer", testutil.CustomersSchema(), rows, "CustomerID")
	require.NoError(t, err)

	rows[0]["CustomerName"] = ir.String("changed")
	assert.Equal(t, ir.String("Ada"), tbl.Row(0).Get("CustomerName"))
}

func TestAdd_FillsMissingCellsWithNull(t *testing.T) {
	es := New("test")
	tbl, err := es.Add("sellers", testutil.SellersSchema(), []ir.Row{{"SellerID": ir.String("S1")}}, "SellerID")
	require.NoError(t, err)

	v, ok := tbl.Row(0)["SellerName"]
	require.True(t, ok)
	assert.Equal(t, ir.Null{}, v)
}

func TestAdd_WidensIntToFloat(t *testing.T) {
	es := New("test")
	row := testutil.Product("P1", "S1", 0)
	row["ProductPrice"] = ir.Int(10)

	tbl, err := es.Add("products", testutil.ProductsSchema(), []ir.Row{row}, "ProductID")
	require.NoError(t, err)
	assert.Equal(t, ir.Float(10), tbl.Row(0).Get("ProductPrice"))
}

func TestAdd_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		rows    []ir.Row
		key     string
		opts    []TableOption
		column  string
		message string
	}{
		{
			name:    "missing key column",
			key:     "ID",
			column:  "ID",
			message: "primary key column not in schema",
		},
		{
			name: "duplicate key",
			rows: []ir.Row{
				testutil.Customer("C1", "Ada", "2023-12-01"),
				testutil.Customer("C1", "Ada again", "2023-12-02"),
			},
			key:     "CustomerID",
			column:  "CustomerID",
			message: "repeated",
		},
		{
			name:    "null key",
			rows:    []ir.Row{{"CustomerName": ir.String("nobody")}},
			key:     "CustomerID",
			column:  "CustomerID",
			message: "null primary key",
		},
		{
			name:    "unknown time index",
			key:     "CustomerID",
			opts:    []TableOption{WithTimeIndex("SignupAt")},
			column:  "SignupAt",
			message: "time index column not in schema",
		},
		{
			name:    "non-timestamp time index",
			key:     "CustomerID",
			opts:    []TableOption{WithTimeIndex("CustomerName")},
			column:  "CustomerName",
			message: "must be a timestamp",
		},
		{
			name:    "undeclared column",
			rows:    []ir.Row{{"CustomerID": ir.String("C1"), "Email": ir.String("a@b")}},
			key:     "CustomerID",
			column:  "Email",
			message: "not in schema",
		},
		{
			name:    "wrong value type",
			rows:    []ir.Row{{"CustomerID": ir.Int(1)}},
			key:     "CustomerID",
			column:  "CustomerID",
			message: "holds a int in a string column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := New("test")
			_, err := es.Add("customer", testutil.CustomersSchema(), tt.rows, tt.key, tt.opts...)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err))

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "customer", se.Table)
			assert.Equal(t, tt.column, se.Column)
			assert.Contains(t, se.Message, tt.message)

			_, exists := es.Table("customer")
			assert.False(t, exists, "failed Add must not register the table")
		})
	}
}

func TestAdd_DuplicateTableName(t *testing.T) {
	es := New("test")
	_, err := es.Add("sellers", testutil.SellersSchema(), nil, "SellerID")
	require.NoError(t, err)

	_, err = es.Add("sellers", testutil.SellersSchema(), nil, "SellerID")
	assert.True(t, IsSchemaError(err))
}

func TestLink_SchemaErrors(t *testing.T) {
	es, _ := newTestSet(t)

	tests := []struct {
		name                              string
		parent, parentKey, child, childFK string
	}{
		{"unknown parent", "sellers", "SellerID", "orders", "SellerID"},
		{"unknown child", "customer", "CustomerID", "returns", "CustomerID"},
		{"missing parent key", "customer", "ID", "orders", "CustomerID"},
		{"parent key not primary", "customer", "CustomerName", "orders", "CustomerID"},
		{"missing child column", "customer", "CustomerID", "orders", "BuyerID"},
		{"duplicate link", "customer", "CustomerID", "orders", "CustomerID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := es.Link(tt.parent, tt.parentKey, tt.child, tt.childFK)
			assert.True(t, IsSchemaError(err), "expected SchemaError, got %v", err)
		})
	}
	assert.Len(t, es.Relationships(), 1, "failed links must not be registered")
}

func TestChildrenOf(t *testing.T) {
	es, _ := newTestSet(t,
		testutil.Order(1, "C1", "P1", "S1", "2024-01-08", 2, 10),
		testutil.Order(2, "C2", "P1", "S1", "2024-01-09", 1, 10),
		testutil.Order(3, "C1", "P2", "S1", "2024-01-10", 4, 5),
	)

	children := es.ChildrenOf("customer", ir.String("C1"), "orders")
	require.Len(t, children, 2)
	assert.Equal(t, ir.Int(1), children[0].Get("OrderID"), "children keep child row order")
	assert.Equal(t, ir.Int(3), children[1].Get("OrderID"))

	assert.Empty(t, es.ChildrenOf("customer", ir.String("C9"), "orders"), "unknown key yields no children")
	assert.NotNil(t, es.ChildrenOf("customer", ir.String("C9"), "orders"))
	assert.Empty(t, es.ChildrenOf("orders", ir.Int(1), "customer"), "unlinked direction yields no children")
}

func TestValidate_CountsOrphans(t *testing.T) {
	orphan := testutil.Order(3, "C404", "P1", "S1", "2024-01-10", 1, 10)
	noCustomer := testutil.Order(4, "", "P1", "S1", "2024-01-11", 1, 10)
	noCustomer["CustomerID"] = ir.Null{}

	es, rel := newTestSet(t,
		testutil.Order(1, "C1", "P1", "S1", "2024-01-08", 2, 10),
		testutil.Order(2, "C1", "P1", "S1", "2024-01-09", 1, 10),
		orphan,
		noCustomer,
	)

	reports := es.Validate()
	require.Len(t, reports, 1)
	assert.Equal(t, Integrity{
		Relationship: "orders.CustomerID -> customer.CustomerID",
		Referenced:   2,
		Orphaned:     1,
		NullKeys:     1,
		OrphanKeys:   []string{"C404"},
	}, reports[0])

	assert.True(t, rel.Resolves(0))
	assert.False(t, rel.Resolves(2), "orphan does not resolve")
	assert.False(t, rel.Resolves(3), "null key does not resolve")
	assert.Empty(t, rel.ChildRows(ir.String("C404")), "orphans are excluded from grouping")
}

func TestValidate_OrphanCountIncreasesByOne(t *testing.T) {
	base := []ir.Row{testutil.Order(1, "C1", "P1", "S1", "2024-01-08", 2, 10)}
	es, _ := newTestSet(t, base...)
	before := es.Validate()[0].Orphaned

	withOrphan := append(base, testutil.Order(2, "C999", "P1", "S1", "2024-01-09", 1, 10))
	es2, _ := newTestSet(t, withOrphan...)
	after := es2.Validate()[0].Orphaned

	assert.Equal(t, before+1, after)
	assert.Equal(t, 1, es2.Validate()[0].Referenced)
}

func TestEntitySetString(t *testing.T) {
	es, _ := newTestSet(t, testutil.Order(1, "C1", "P1", "S1", "2024-01-08", 2, 10))

	s := es.String()
	assert.True(t, strings.HasPrefix(s, "Entityset: orders\n"))
	assert.Contains(t, s, "customer [Rows: 2, Columns: 3]")
	assert.Contains(t, s, "orders [Rows: 1, Columns: 9]")
	assert.Contains(t, s, "orders.CustomerID -> customer.CustomerID")
}
