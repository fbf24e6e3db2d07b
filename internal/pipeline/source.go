package pipeline

import (
	"context"
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/store"
)

// Source loads one declared table. csvio.Source reads CSV files;
// MemorySource serves tables already in memory.
type Source interface {
	Load(ctx context.Context, decl ir.TableDecl) (*ir.Table, error)
}

// Exporter writes a finished table to a file and returns its path.
type Exporter interface {
	Export(ctx context.Context, decl ir.TableDecl, t *ir.Table) (string, error)
}

// Warehouse persists finished tables with replace semantics.
// Implemented by *store.Store.
type Warehouse interface {
	Replace(ctx context.Context, name string, t *ir.Table) (store.WriteResult, error)
	RecordRun(ctx context.Context, rec store.RunRecord) error
}

// MemorySource serves tables by name. Load returns a copy, so a run never
// modifies the tables held here.
type MemorySource map[string]*ir.Table

// Load returns a copy of the table named decl.Name.
func (m MemorySource) Load(_ context.Context, decl ir.TableDecl) (*ir.Table, error) {
	t, ok := m[decl.Name]
	if !ok {
		return nil, fmt.Errorf("table %s: not provided", decl.Name)
	}
	out := t.Clone()
	out.Name = decl.Name
	return out, nil
}
