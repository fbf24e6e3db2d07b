package store

import (
	"context"
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/queryir"
	"github.com/roach88/featsynth/internal/querysql"
)

// ReadTable reads every row of the warehouse table name, decoding columns
// with schema's types. Rows are ordered by orderBy, or by key when orderBy
// is empty.
func (s *Store) ReadTable(ctx context.Context, name string, schema ir.Schema, key string, orderBy ...string) (*ir.Table, error) {
	if len(orderBy) == 0 && key != "" {
		orderBy = []string{key}
	}
	sel := queryir.Select{Table: name, Columns: schema.Names(), OrderBy: orderBy}
	sqlText, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rows.Close()

	var out []ir.Row
	for rows.Next() {
		cells := make([]any, len(schema))
		ptrs := make([]any, len(schema))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("read %s: scan: %w", name, err)
		}

		row := make(ir.Row, len(schema))
		for i, col := range schema {
			v, err := querysql.FromDriver(cells[i], col.Type)
			if err != nil {
				return nil, fmt.Errorf("read %s: column %s: %w", name, col.Name, err)
			}
			row[col.Name] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return ir.NewTable(name, schema, key, out), nil
}
