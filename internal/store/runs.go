package store

import (
	"context"
	"fmt"

	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/queryir"
	"github.com/roach88/featsynth/internal/querysql"
)

// RunLogTable is the warehouse table holding RunRecords.
const RunLogTable = "featsynth_runs"

// runLogSchema is the run log layout, in column order.
var runLogSchema = ir.Schema{
	{Name: "run_id", Type: ir.TypeString},
	{Name: "seq", Type: ir.TypeInt},
	{Name: "plan", Type: ir.TypeString},
	{Name: "plan_hash", Type: ir.TypeString},
	{Name: "table_name", Type: ir.TypeString},
	{Name: "rows", Type: ir.TypeInt},
	{Name: "fingerprint", Type: ir.TypeString},
}

// RunRecord is one stored table of one pipeline run.
type RunRecord struct {
	RunID       string `json:"run_id"`
	Seq         int64  `json:"seq"`
	Plan        string `json:"plan"`
	PlanHash    string `json:"plan_hash"`
	Table       string `json:"table"`
	Rows        int64  `json:"rows"`
	Fingerprint string `json:"fingerprint"`
}

func (s *Store) createRunLog(ctx context.Context) error {
	cols := make([]queryir.ColumnDef, len(runLogSchema))
	for i, c := range runLogSchema {
		cols[i] = queryir.ColumnDef{Name: c.Name, Type: c.Type}
	}
	return s.exec(ctx, s.db, queryir.CreateTable{Table: RunLogTable, Columns: cols})
}

// RecordRun appends rec to the run log.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	insert := queryir.Insert{Table: RunLogTable, Columns: runLogSchema.Names()}
	sqlText, err := s.compiler.Compile(insert)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	row := ir.Row{
		"run_id":      ir.String(rec.RunID),
		"seq":         ir.Int(rec.Seq),
		"plan":        ir.String(rec.Plan),
		"plan_hash":   ir.String(rec.PlanHash),
		"table_name":  ir.String(rec.Table),
		"rows":        ir.Int(rec.Rows),
		"fingerprint": ir.String(rec.Fingerprint),
	}
	if _, err := s.db.ExecContext(ctx, sqlText, querysql.Args(row, insert.Columns)...); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns the run log ordered by run ID then seq. A non-empty runID
// limits the result to that run.
func (s *Store) Runs(ctx context.Context, runID string) ([]RunRecord, error) {
	t, err := s.ReadTable(ctx, RunLogTable, runLogSchema, "", "run_id", "seq")
	if err != nil {
		return nil, err
	}

	var out []RunRecord
	for _, r := range t.Rows() {
		rec := RunRecord{
			RunID:       ir.Format(r.Get("run_id")),
			Plan:        ir.Format(r.Get("plan")),
			PlanHash:    ir.Format(r.Get("plan_hash")),
			Table:       ir.Format(r.Get("table_name")),
			Fingerprint: ir.Format(r.Get("fingerprint")),
		}
		if v, ok := r.Get("seq").(ir.Int); ok {
			rec.Seq = int64(v)
		}
		if v, ok := r.Get("rows").(ir.Int); ok {
			rec.Rows = int64(v)
		}
		if runID != "" && rec.RunID != runID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
