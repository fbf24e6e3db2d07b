package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/queryir"
	"github.com/roach88/featsynth/internal/querysql"
)

// WriteResult reports one Replace.
type WriteResult struct {
	// Table is the warehouse table name written.
	Table string

	// Rows is the number of rows inserted.
	Rows int

	// Recreated is true when the stored columns differed from t's schema and
	// the table was dropped and created again.
	Recreated bool

	// DeleteErr is the non-fatal failure of the DELETE step, if any.
	DeleteErr error
}

// String renders the summary printed after an upload.
func (r WriteResult) String() string {
	return fmt.Sprintf("Uploaded %d rows to %s", r.Rows, r.Table)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Replace stores t as the warehouse table name, replacing any previous rows.
//
// Every step runs in one transaction:
//
//  1. Read the stored columns of name.
//  2. When the table is absent, create it. When its columns differ from
//     t's schema, drop and create it. Otherwise DELETE its rows.
//  3. INSERT every row of t.
//
// A failed DELETE is reported in WriteResult.DeleteErr and the write goes on.
// Any other failure rolls back, so the previous rows stay in place.
func (s *Store) Replace(ctx context.Context, name string, t *ir.Table) (WriteResult, error) {
	res := WriteResult{Table: name}

	insert := queryir.InsertFor(name, t)
	insertSQL, err := s.compiler.Compile(insert)
	if err != nil {
		return res, fmt.Errorf("insert %s: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("replace %s: begin: %w", name, err)
	}
	defer tx.Rollback()

	stored, err := s.storedColumns(ctx, tx, name)
	if err != nil {
		return res, fmt.Errorf("replace %s: %w", name, err)
	}

	switch {
	case len(stored) == 0:
		if err := s.exec(ctx, tx, queryir.CreateTableFor(name, t)); err != nil {
			return res, fmt.Errorf("create table %s: %w", name, err)
		}
	case !s.sameColumns(stored, t.Schema):
		if err := s.exec(ctx, tx, queryir.DropTable{Table: name}); err != nil {
			return res, fmt.Errorf("drop table %s: %w", name, err)
		}
		if err := s.exec(ctx, tx, queryir.CreateTableFor(name, t)); err != nil {
			return res, fmt.Errorf("create table %s: %w", name, err)
		}
		res.Recreated = true
	default:
		if err := s.exec(ctx, tx, queryir.DeleteAll{Table: name}); err != nil {
			res.DeleteErr = err
		}
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return res, fmt.Errorf("insert %s: prepare: %w", name, err)
	}
	defer stmt.Close()

	for i, row := range t.Rows() {
		if _, err := stmt.ExecContext(ctx, querysql.Args(row, insert.Columns)...); err != nil {
			return res, fmt.Errorf("insert %s: row %d: %w", name, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("insert %s: commit: %w", name, err)
	}

	res.Rows = t.Len()
	return res, nil
}

// storedColumn is one declared column of a warehouse table.
type storedColumn struct {
	name, typ string
}

// storedColumns returns the declared columns of name, or nil when the
// table does not exist.
func (s *Store) storedColumns(ctx context.Context, tx *sql.Tx, name string) ([]storedColumn, error) {
	sqlText, err := s.compiler.Compile(queryir.TableColumns{Table: name})
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, sqlText, name)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	defer rows.Close()

	var out []storedColumn
	for rows.Next() {
		var c storedColumn
		if err := rows.Scan(&c.name, &c.typ); err != nil {
			return nil, fmt.Errorf("columns: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// sameColumns reports whether stored matches schema by name, order and
// declared type.
func (s *Store) sameColumns(stored []storedColumn, schema ir.Schema) bool {
	if len(stored) != len(schema) {
		return false
	}
	for i, col := range schema {
		if stored[i].name != col.Name || !strings.EqualFold(stored[i].typ, s.compiler.TypeName(col.Type)) {
			return false
		}
	}
	return true
}

// exec compiles and executes a statement that takes no parameters.
func (s *Store) exec(ctx context.Context, db execer, stmt queryir.Statement) error {
	sqlText, err := s.compiler.Compile(stmt)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, sqlText)
	return err
}
