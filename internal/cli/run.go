package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/featsynth/internal/config"
	"github.com/roach88/featsynth/internal/csvio"
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/pipeline"
	"github.com/roach88/featsynth/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DataDir   string
	ExportDir string
	Driver    string
	DSN       string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs pipeline.RunIDGenerator
}

// RunSummary is the result of a run.
type RunSummary struct {
	RunID     string             `json:"run_id"`
	Plan      string             `json:"plan"`
	Tables    []TableSummary     `json:"tables"`
	Integrity []entity.Integrity `json:"integrity"`
	Exports   []string           `json:"exports,omitempty"`
	Uploads   []string           `json:"uploads,omitempty"`
	Failures  []string           `json:"failures,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Synthesize features and merge them into every table",
		Long: `Run the full pipeline: load the source CSV files, prepare the tables,
synthesize features for the target table, merge the selected features back
into every table, export each table as CSV, and replace it in the warehouse.

Each table is exported and stored independently. A failed write is reported
and the remaining tables are still written; the command then exits 1.

Settings resolve in order: flags, FEATSYNTH_* environment variables, the
config file, then defaults.

Examples:
  featsynth run --data ./Ecommerce --out ./Data
  featsynth run --driver duckdb --dsn warehouse.duckdb
  featsynth run --driver none --out ""`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "directory holding the source CSV files")
	cmd.Flags().StringVar(&opts.ExportDir, "out", "", "directory for exported CSV files (empty disables export)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "warehouse driver (sqlite|duckdb|none)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "warehouse data source name")

	return cmd
}

// applyFlags overrides cfg with the flags set on cmd.
func (o *RunOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = o.DataDir
	}
	if flags.Changed("out") {
		cfg.ExportDir = o.ExportDir
	}
	if flags.Changed("driver") {
		cfg.Warehouse.Driver = o.Driver
	}
	if flags.Changed("dsn") {
		cfg.Warehouse.DSN = o.DSN
	}
	return cfg.Validate()
}

func runPipeline(opts *RunOptions, cmd *cobra.Command) error {
	cfg, plan, formatter, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return outputCommandError(formatter, ErrCodeConfig, err)
	}

	popts := pipeline.Options{
		Source: csvio.Source{Dir: cfg.DataDir},
		RunIDs: opts.RunIDs,
	}
	if cfg.ExportDir != "" {
		popts.Exporter = csvio.Exporter{Dir: cfg.ExportDir}
	}
	if cfg.Warehouse.Driver != config.DriverNone {
		slog.Info("opening warehouse", "driver", cfg.Warehouse.Driver, "dsn", cfg.Warehouse.DSN)
		st, err := store.Open(cfg.Warehouse.Driver, cfg.Warehouse.DSN)
		if err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing warehouse", "error", closeErr)
			}
		}()
		popts.Warehouse = st
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.New(popts).Run(ctx, plan)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	summary := summarize(res)
	if len(res.Failures) > 0 {
		return outputRunFailures(formatter, summary, res)
	}
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	printRunSummary(formatter, summary)
	return nil
}

func summarize(res *pipeline.Result) RunSummary {
	s := RunSummary{
		RunID:     res.RunID,
		Plan:      res.Analysis.Plan.Name,
		Integrity: res.Analysis.Integrity,
		Exports:   res.Exports,
	}
	for _, t := range res.Tables {
		s.Tables = append(s.Tables, TableSummary{Name: t.Name, Rows: t.Len(), Columns: len(t.Schema)})
	}
	for _, w := range res.Writes {
		s.Uploads = append(s.Uploads, w.String())
	}
	for _, f := range res.Failures {
		s.Failures = append(s.Failures, f.Error())
	}
	return s
}

func printRunSummary(f *OutputFormatter, s RunSummary) {
	w := f.Writer
	for _, rep := range s.Integrity {
		if rep.Orphaned > 0 {
			fmt.Fprintf(w, "! %s: %d orphaned row(s) excluded\n", rep.Relationship, rep.Orphaned)
		}
	}
	for _, path := range s.Exports {
		fmt.Fprintf(w, "Exported %s\n", path)
	}
	for _, u := range s.Uploads {
		fmt.Fprintln(w, u)
	}
	for _, msg := range s.Failures {
		fmt.Fprintf(w, "✗ %s\n", msg)
	}
	fmt.Fprintf(w, "Run %s: %d table(s) merged\n", s.RunID, len(s.Tables))
}

// outputRunFailures reports a run whose output was partly written.
func outputRunFailures(f *OutputFormatter, s RunSummary, res *pipeline.Result) error {
	msg := fmt.Sprintf("%d table write(s) failed", len(res.Failures))
	if f.Format == "json" {
		_ = f.Failure(ErrCodeWriteFailed, msg, s)
	} else {
		printRunSummary(f, s)
	}
	return WrapExitError(ExitFailure, msg, res.Err())
}
