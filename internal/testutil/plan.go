package testutil

import (
	"github.com/roach88/featsynth/internal/ir"
)

// EcommercePlan mirrors the embedded ecommerce.cue plan as a Go literal, for
// packages that cannot import the compiler.
func EcommercePlan() *ir.Plan {
	return &ir.Plan{
		Name:         "ecommerce",
		Target:       "orders",
		Aggregations: []string{"sum", "mean", "mode", "count"},
		Transforms:   []string{"weekday", "month", "year"},
		Tables: []ir.TableDecl{
			{
				Name: "orders", Source: "Orders.csv", Key: "OrderID", TimeIndex: "OrderDate",
				SortBy: "OrderDate", Export: "orders_transformed.csv", Store: "ORDERS",
				Columns: []ir.Column{
					{Name: "OrderID", Type: ir.TypeInt},
					{Name: "OrderDate", Type: ir.TypeTimestamp},
					{Name: "ShipDate", Type: ir.TypeTimestamp},
					{Name: "OrderQuantity", Type: ir.TypeInt},
				},
			},
			{
				Name: "customer", Source: "Customers.csv", Key: "CustomerID", TimeIndex: "CustomerSignupDate",
				SortBy: "CustomerID", Export: "customers_transformed.csv", Store: "CUSTOMERS",
				Columns: []ir.Column{
					{Name: "CustomerSignupDate", Type: ir.TypeTimestamp},
				},
			},
			{
				Name: "products", Source: "Products.csv", Key: "ProductID",
				Export: "products_transformed.csv", Store: "PRODUCTS",
				Columns: []ir.Column{
					{Name: "ProductPrice", Type: ir.TypeFloat},
				},
			},
			{
				Name: "sellers", Source: "Seller.csv", Key: "SellerID",
				Export: "sellers_transformed.csv", Store: "SELLERS",
			},
		},
		Prepare: []ir.PrepareStep{
			{Kind: ir.StepSemiJoin, Table: "products", From: "orders", On: "ProductID"},
			{Kind: ir.StepLookup, Table: "orders", From: "products", On: "ProductID", Columns: []string{"SellerID", "ProductPrice"}},
			{Kind: ir.StepDerive, Table: "orders", Column: "OrderTotal", Columns: []string{"ProductPrice", "OrderQuantity"}},
		},
		Relationships: []ir.RelationshipDecl{
			{Parent: "products", ParentKey: "ProductID", Child: "orders", ChildKey: "ProductID"},
			{Parent: "customer", ParentKey: "CustomerID", Child: "orders", ChildKey: "CustomerID"},
			{Parent: "sellers", ParentKey: "SellerID", Child: "orders", ChildKey: "SellerID"},
		},
		Outputs: []ir.OutputDecl{
			{
				Table: "orders", Mode: ir.OutputDirect,
				Features: []ir.FeatureRename{
					{Feature: "WEEKDAY(OrderDate)", As: "OrderWeekday"},
					{Feature: "YEAR(OrderDate)", As: "OrderYear"},
					{Feature: "MONTH(OrderDate)", As: "OrderMonth"},
					{Feature: "WEEKDAY(ShipDate)", As: "ShipWeekday"},
					{Feature: "MONTH(ShipDate)", As: "ShipMonth"},
					{Feature: "YEAR(ShipDate)", As: "ShipYear"},
				},
			},
			{
				Table: "customer", Mode: ir.OutputCollapse, By: "CustomerID",
				Features: []ir.FeatureRename{
					{Feature: "customer.COUNT(orders)", As: "CustomerOrderCount"},
					{Feature: "customer.SUM(orders.OrderQuantity)", As: "TotalItemsPurchased"},
					{Feature: "customer.MEAN(orders.OrderTotal)", As: "AverageSpent"},
				},
			},
			{
				Table: "sellers", Mode: ir.OutputCollapse, By: "SellerID",
				Features: []ir.FeatureRename{
					{Feature: "sellers.COUNT(orders)", As: "SellerOrderCount"},
					{Feature: "sellers.SUM(orders.OrderQuantity)", As: "TotalItemsSold"},
					{Feature: "sellers.SUM(orders.OrderTotal)", As: "TotalRevenue"},
				},
			},
			{
				Table: "products", Mode: ir.OutputCollapse, By: "ProductID",
				Features: []ir.FeatureRename{
					{Feature: "products.SUM(orders.OrderQuantity)", As: "QuantitySold"},
					{Feature: "products.SUM(orders.OrderTotal)", As: "TotalRevenue"},
				},
			},
		},
	}
}

// RawTables builds the four source tables as the CSV source would deliver
// them: orders without SellerID, ProductPrice, or OrderTotal.
func RawTables(orders, customers, products, sellers []ir.Row) map[string]*ir.Table {
	return map[string]*ir.Table{
		"orders":   ir.NewTable("orders", RawOrdersSchema(), "OrderID", orders),
		"customer": ir.NewTable("customer", CustomersSchema(), "CustomerID", customers),
		"products": ir.NewTable("products", ProductsSchema(), "ProductID", products),
		"sellers":  ir.NewTable("sellers", SellersSchema(), "SellerID", sellers),
	}
}
