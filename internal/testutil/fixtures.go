package testutil

import (
	"github.com/roach88/featsynth/internal/ir"
)

// OrdersSchema is the prepared orders table: raw order columns plus the
// SellerID, ProductPrice, and OrderTotal columns the lookup and derive steps add.
func OrdersSchema() ir.Schema {
	return ir.Schema{
		{Name: "OrderID", Type: ir.TypeInt},
		{Name: "CustomerID", Type: ir.TypeString},
		{Name: "ProductID", Type: ir.TypeString},
		{Name: "SellerID", Type: ir.TypeString},
		{Name: "OrderDate", Type: ir.TypeTimestamp},
		{Name: "ShipDate", Type: ir.TypeTimestamp},
		{Name: "OrderQuantity", Type: ir.TypeInt},
		{Name: "ProductPrice", Type: ir.TypeFloat},
		{Name: "OrderTotal", Type: ir.TypeFloat},
	}
}

// RawOrdersSchema is the orders table as the CSV source delivers it.
func RawOrdersSchema() ir.Schema {
	return ir.Schema{
		{Name: "OrderID", Type: ir.TypeInt},
		{Name: "CustomerID", Type: ir.TypeString},
		{Name: "ProductID", Type: ir.TypeString},
		{Name: "OrderDate", Type: ir.TypeTimestamp},
		{Name: "ShipDate", Type: ir.TypeTimestamp},
		{Name: "OrderQuantity", Type: ir.TypeInt},
	}
}

// CustomersSchema is the customer table.
func CustomersSchema() ir.Schema {
	return ir.Schema{
		{Name: "CustomerID", Type: ir.TypeString},
		{Name: "CustomerName", Type: ir.TypeString},
		{Name: "CustomerSignupDate", Type: ir.TypeTimestamp},
	}
}

// ProductsSchema is the products table.
func ProductsSchema() ir.Schema {
	return ir.Schema{
		{Name: "ProductID", Type: ir.TypeString},
		{Name: "ProductName", Type: ir.TypeString},
		{Name: "SellerID", Type: ir.TypeString},
		{Name: "ProductPrice", Type: ir.TypeFloat},
	}
}

// SellersSchema is the sellers table.
func SellersSchema() ir.Schema {
	return ir.Schema{
		{Name: "SellerID", Type: ir.TypeString},
		{Name: "SellerName", Type: ir.TypeString},
	}
}

// Order builds a prepared order row with OrderTotal = price × qty.
// ShipDate is left null; set it on the returned row when a test needs it.
func Order(id int64, customer, product, seller, date string, qty int64, price float64) ir.Row {
	return ir.Row{
		"OrderID":       ir.Int(id),
		"CustomerID":    ir.String(customer),
		"ProductID":     ir.String(product),
		"SellerID":      ir.String(seller),
		"OrderDate":     Date(date),
		"ShipDate":      ir.Null{},
		"OrderQuantity": ir.Int(qty),
		"ProductPrice":  ir.Float(price),
		"OrderTotal":    ir.Float(price * float64(qty)),
	}
}

// RawOrder builds an order row as the CSV source delivers it.
func RawOrder(id int64, customer, product, date string, qty int64) ir.Row {
	return ir.Row{
		"OrderID":       ir.Int(id),
		"CustomerID":    ir.String(customer),
		"ProductID":     ir.String(product),
		"OrderDate":     Date(date),
		"ShipDate":      ir.Null{},
		"OrderQuantity": ir.Int(qty),
	}
}

// Customer builds a customer row.
func Customer(id, name, signup string) ir.Row {
	return ir.Row{
		"CustomerID":         ir.String(id),
		"CustomerName":       ir.String(name),
		"CustomerSignupDate": Date(signup),
	}
}

// Product builds a product row.
func Product(id, seller string, price float64) ir.Row {
	return ir.Row{
		"ProductID":    ir.String(id),
		"ProductName":  ir.String("product " + id),
		"SellerID":     ir.String(seller),
		"ProductPrice": ir.Float(price),
	}
}

// Seller builds a seller row.
func Seller(id, name string) ir.Row {
	return ir.Row{
		"SellerID":   ir.String(id),
		"SellerName": ir.String(name),
	}
}

// Date parses a date or datetime for fixtures. Empty text is Null.
// Panics on malformed input; fixtures are literals.
func Date(s string) ir.Value {
	v, err := ir.ParseValue(s, ir.TypeTimestamp)
	if err != nil {
		panic(err)
	}
	return v
}
