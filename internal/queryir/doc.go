// Package queryir is the statement IR between the pipeline's warehouse
// writes and the SQL dialects that execute them.
//
// The store never builds SQL text itself. It builds statements from this
// package and hands them to a querysql.Compiler for the target dialect:
//
//	[ir.Table] → [queryir.Statement] → [sqlite SQL]
//	                                 → [duckdb SQL]
//
// STATEMENTS:
//
//   - CreateTable: CREATE TABLE IF NOT EXISTS with typed columns
//   - DeleteAll:   DELETE FROM with no filter (replace semantics)
//   - DropTable:   DROP TABLE IF EXISTS, when the stored columns changed
//   - TableColumns: the stored table's declared columns, empty when absent
//   - Insert:      single-row parameterized INSERT, executed once per row
//   - Select:      full-table read with an explicit column list and order
//
// SEALED INTERFACE:
//
// Statement is sealed with a marker method so dialect compilers can switch
// exhaustively:
//
//	switch s := stmt.(type) {
//	case CreateTable:
//	case DeleteAll:
//	case DropTable:
//	case TableColumns:
//	case Insert:
//	case Select:
//	}
//
// Column lists are always explicit. Values never appear in statements; the
// store binds them as parameters.
package queryir
