// Package csvio reads source tables from CSV files and exports finished
// tables back to CSV.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/featsynth/internal/ir"
)

// utf8BOM is stripped from the first header cell; spreadsheet exports
// commonly carry one.
const utf8BOM = "\ufeff"

// Source loads declared tables from CSV files under Dir.
type Source struct {
	Dir string
}

// Load reads <Dir>/<decl.Source>. The header fixes column order; each
// column takes its declared type and undeclared columns load as strings.
// Declared columns missing from the file are appended as all-null columns.
// Empty cells are Null.
func (s Source) Load(ctx context.Context, decl ir.TableDecl) (*ir.Table, error) {
	if decl.Source == "" {
		return nil, fmt.Errorf("table %s: no source file declared", decl.Name)
	}
	path := filepath.Join(s.Dir, decl.Source)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", decl.Name, err)
	}
	defer f.Close()

	t, err := Read(ctx, f, decl)
	if err != nil {
		return nil, fmt.Errorf("table %s: %s: %w", decl.Name, path, err)
	}
	return t, nil
}

// Read parses CSV from r as the table decl declares.
func Read(ctx context.Context, r io.Reader, decl ir.TableDecl) (*ir.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	schema := make(ir.Schema, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if schema.Has(h) {
			return nil, fmt.Errorf("duplicate header %q", h)
		}
		schema = append(schema, ir.Column{Name: h, Type: decl.ColumnType(h)})
	}
	for _, c := range decl.Columns {
		if !schema.Has(c.Name) {
			schema = append(schema, c)
		}
	}

	var rows []ir.Row
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		line, _ := reader.FieldPos(0)
		row := make(ir.Row, len(schema))
		for i, cell := range record {
			v, err := ir.ParseValue(strings.TrimSpace(cell), schema[i].Type)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, header[i], err)
			}
			row[header[i]] = v
		}
		rows = append(rows, row)
	}
	return ir.NewTable(decl.Name, schema, decl.Key, rows), nil
}

// WriteFile exports t to path, creating parent directories. The header is
// the uppercased column names in schema order; cells use ir.Format.
func WriteFile(path string, t *ir.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export %s: %w", t.Name, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export %s: %w", t.Name, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", t.Name, err)
	}
	return f.Close()
}

// Write renders t as CSV to w.
//
// Whole numbers print without a fraction whether the column is int or
// float, so a collapsed count reads "2", never "2.0". The int or float
// distinction only reaches the warehouse column type.
func Write(w io.Writer, t *ir.Table) error {
	cw := csv.NewWriter(w)
	upper := cases.Upper(language.Und)

	header := make([]string, len(t.Schema))
	for i, c := range t.Schema {
		header[i] = upper.String(c.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(t.Schema))
	for _, row := range t.Rows() {
		for i, c := range t.Schema {
			record[i] = ir.Format(row.Get(c.Name))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter writes tables under Dir using each declaration's export name.
type Exporter struct {
	Dir string
}

// Export writes t to <Dir>/<decl.Export> and returns the path. Declarations
// without an export name are skipped with an empty path.
func (e Exporter) Export(_ context.Context, decl ir.TableDecl, t *ir.Table) (string, error) {
	if decl.Export == "" {
		return "", nil
	}
	path := filepath.Join(e.Dir, decl.Export)
	return path, WriteFile(path, t)
}
