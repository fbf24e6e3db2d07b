// Package querysql compiles queryir statements to SQL for a warehouse
// dialect and converts cell values to and from driver values.
package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/queryir"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	SQLite Dialect = "sqlite"
	DuckDB Dialect = "duckdb"
)

// Dialects lists the supported backends in preference order.
var Dialects = []Dialect{SQLite, DuckDB}

// columnTypes maps ir column types to each dialect's declared types. The
// sqlite names are the declared types go-sqlite3 converts back on scan.
var columnTypes = map[Dialect]map[ir.ColumnType]string{
	SQLite: {
		ir.TypeString:    "TEXT",
		ir.TypeInt:       "INTEGER",
		ir.TypeFloat:     "REAL",
		ir.TypeBool:      "BOOLEAN",
		ir.TypeTimestamp: "TIMESTAMP",
	},
	DuckDB: {
		ir.TypeString:    "VARCHAR",
		ir.TypeInt:       "BIGINT",
		ir.TypeFloat:     "DOUBLE",
		ir.TypeBool:      "BOOLEAN",
		ir.TypeTimestamp: "TIMESTAMP",
	},
}

// Compiler compiles statements for one dialect.
//
// CRITICAL: values are never interpolated. Inserts compile to ? placeholders
// and callers bind Args.
type Compiler struct {
	dialect Dialect
}

// New returns a compiler for d.
func New(d Dialect) (*Compiler, error) {
	if _, ok := columnTypes[d]; !ok {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	return &Compiler{dialect: d}, nil
}

// TypeName returns the dialect's declared type for t.
func (c *Compiler) TypeName(t ir.ColumnType) string {
	return columnTypes[c.dialect][t]
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect { return c.dialect }

// Compile converts a statement to SQL text. Statements failing
// queryir.Validate are rejected with every problem listed.
func (c *Compiler) Compile(stmt queryir.Statement) (string, error) {
	if problems := queryir.Validate(stmt); len(problems) > 0 {
		return "", fmt.Errorf("invalid %T: %s", stmt, strings.Join(problems, "; "))
	}

	switch s := stmt.(type) {
	case queryir.CreateTable:
		cols := make([]string, len(s.Columns))
		for i, col := range s.Columns {
			cols[i] = quote(col.Name) + " " + columnTypes[c.dialect][col.Type]
		}
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(s.Table), strings.Join(cols, ", ")), nil
	case queryir.DeleteAll:
		return "DELETE FROM " + quote(s.Table), nil
	case queryir.DropTable:
		return "DROP TABLE IF EXISTS " + quote(s.Table), nil
	case queryir.TableColumns:
		if c.dialect == DuckDB {
			return "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position", nil
		}
		return "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", nil
	case queryir.Insert:
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.Columns)), ", ")
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(s.Table), quoteAll(s.Columns), placeholders), nil
	case queryir.Select:
		sql := fmt.Sprintf("SELECT %s FROM %s", quoteAll(s.Columns), quote(s.Table))
		if len(s.OrderBy) > 0 {
			order := make([]string, len(s.OrderBy))
			for i, o := range s.OrderBy {
				order[i] = quote(o) + " ASC"
			}
			sql += " ORDER BY " + strings.Join(order, ", ")
		}
		return sql, nil
	default:
		return "", fmt.Errorf("unsupported statement type: %T", stmt)
	}
}

// quote wraps an identifier in double quotes. Validate has already rejected
// names that are not plain identifiers.
func quote(name string) string {
	return `"` + name + `"`
}

func quoteAll(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return strings.Join(out, ", ")
}

// Args returns the driver parameters for row, one per column, in order.
func Args(row ir.Row, columns []string) []any {
	out := make([]any, len(columns))
	for i, col := range columns {
		out[i] = toParam(row.Get(col))
	}
	return out
}

func toParam(v ir.Value) any {
	switch val := v.(type) {
	case ir.String:
		return string(val)
	case ir.Int:
		return int64(val)
	case ir.Float:
		return float64(val)
	case ir.Bool:
		return bool(val)
	case ir.Timestamp:
		return val.T
	default:
		return nil
	}
}

// FromDriver converts a scanned driver value into a value of type t.
func FromDriver(v any, t ir.ColumnType) (ir.Value, error) {
	switch val := v.(type) {
	case []byte:
		return ir.ParseValue(string(val), t)
	case int32:
		return ir.FromAny(int64(val), t)
	case int16:
		return ir.FromAny(int64(val), t)
	case int8:
		return ir.FromAny(int64(val), t)
	case float32:
		return ir.FromAny(float64(val), t)
	case time.Time:
		return ir.NewTimestamp(val), nil
	default:
		return ir.FromAny(v, t)
	}
}
