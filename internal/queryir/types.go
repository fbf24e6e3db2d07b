package queryir

import "github.com/roach88/featsynth/internal/ir"

// Statement is a warehouse statement. Sealed to this package.
type Statement interface {
	statementNode()
}

// ColumnDef is a typed column in a CreateTable.
type ColumnDef struct {
	Name string
	Type ir.ColumnType
}

// CreateTable creates Table when it does not exist.
//
//	CREATE TABLE IF NOT EXISTS <table> (<col> <type>, ...)
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (CreateTable) statementNode() {}

// DeleteAll removes every row of Table.
//
//	DELETE FROM <table>
type DeleteAll struct {
	Table string
}

func (DeleteAll) statementNode() {}

// DropTable removes Table and its rows when it exists.
//
//	DROP TABLE IF EXISTS <table>
type DropTable struct {
	Table string
}

func (DropTable) statementNode() {}

// TableColumns lists the declared columns of Table in declaration order, as
// (name, type) rows. A missing table yields no rows rather than an error.
// The table name is bound as the single parameter.
type TableColumns struct {
	Table string
}

func (TableColumns) statementNode() {}

// Insert adds one row; the store binds one parameter per column, in order.
//
//	INSERT INTO <table> (<col>, ...) VALUES (?, ...)
type Insert struct {
	Table   string
	Columns []string
}

func (Insert) statementNode() {}

// Select reads Columns of every row of Table, ordered by OrderBy ascending.
//
//	SELECT <col>, ... FROM <table> ORDER BY <col>, ...
type Select struct {
	Table   string
	Columns []string
	OrderBy []string
}

func (Select) statementNode() {}

// CreateTableFor derives a CreateTable from a table's schema.
func CreateTableFor(name string, t *ir.Table) CreateTable {
	cols := make([]ColumnDef, len(t.Schema))
	for i, c := range t.Schema {
		cols[i] = ColumnDef{Name: c.Name, Type: c.Type}
	}
	return CreateTable{Table: name, Columns: cols}
}

// InsertFor derives an Insert covering every column of a table's schema.
func InsertFor(name string, t *ir.Table) Insert {
	return Insert{Table: name, Columns: t.Schema.Names()}
}
