package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/featsynth/internal/compiler"
	"github.com/roach88/featsynth/internal/csvio"
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/pipeline"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	DataDir  string // overrides the config's data_dir
	PlanOnly bool   // check the plan without loading data
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Plan      string                     `json:"plan,omitempty"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
	Warnings  []compiler.CycleWarning    `json:"warnings,omitempty"`
	Tables    []TableSummary             `json:"tables,omitempty"`
	Integrity []entity.Integrity         `json:"integrity,omitempty"`
}

// TableSummary describes one table's shape.
type TableSummary struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the plan and the source data",
		Long: `Compile and validate the plan, then load and prepare the source tables,
build the entity set, and report referential integrity per relationship.

Orphaned rows are reported but do not fail validation. Schema problems
(missing key columns, duplicate keys, unknown tables) exit with code 1.

Examples:
  featsynth validate --data ./Ecommerce
  featsynth validate --plan ./plans/ecommerce.cue --plan-only
  featsynth validate --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "directory holding the source CSV files")
	cmd.Flags().BoolVar(&opts.PlanOnly, "plan-only", false, "validate the plan without loading data")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	cfg, plan, formatter, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	result := ValidationResult{
		Valid:    true,
		Plan:     plan.Name,
		Warnings: compiler.AnalyzeCycles(plan),
	}
	for _, w := range result.Warnings {
		formatter.VerboseLog("warning: %s", w.Message)
	}

	if !opts.PlanOnly {
		formatter.VerboseLog("Loading tables from %s", cfg.DataDir)
		runner := pipeline.New(pipeline.Options{Source: csvio.Source{Dir: cfg.DataDir}})
		analysis, err := runner.Analyze(context.Background(), plan)
		if err != nil {
			return outputPipelineError(formatter, err)
		}
		for _, decl := range plan.Tables {
			t := analysis.Tables[decl.Name]
			result.Tables = append(result.Tables, TableSummary{Name: decl.Name, Rows: t.Len(), Columns: len(t.Schema)})
		}
		result.Integrity = analysis.Integrity
	}

	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Plan %s valid\n", result.Plan)
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn.Message)
	}

	if len(result.Tables) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tables:")
		for _, t := range result.Tables {
			fmt.Fprintf(w, "  %s [Rows: %d, Columns: %d]\n", t.Name, t.Rows, t.Columns)
		}
	}

	if len(result.Integrity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Relationships:")
		for _, rep := range result.Integrity {
			fmt.Fprintf(w, "  %s: %d referenced, %d orphaned, %d null\n",
				rep.Relationship, rep.Referenced, rep.Orphaned, rep.NullKeys)
			if len(rep.OrphanKeys) > 0 {
				fmt.Fprintf(w, "    orphan keys: %s\n", strings.Join(rep.OrphanKeys, ", "))
			}
		}
	}
	return nil
}
