package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/featsynth/internal/compiler"
	"github.com/roach88/featsynth/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is a compiled plan with its source hash.
type CompilationResult struct {
	Hash     string                  `json:"hash"`
	Plan     *ir.Plan                `json:"plan"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [plan.cue]",
		Short: "Compile a CUE plan to JSON",
		Long: `Compile a CUE plan against the plan schema, validate it, and print the
resulting plan. Without an argument the --plan flag, the config's plan, or
the embedded e-commerce plan is compiled.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Plan = args[0]
			}
			return runCompile(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, cmd *cobra.Command) error {
	_, plan, formatter, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	result := &CompilationResult{
		Hash:     plan.Hash,
		Plan:     plan,
		Warnings: compiler.AnalyzeCycles(plan),
	}

	if opts.Output != "" {
		if err := writePlanToFile(result, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	plan := result.Plan
	fmt.Fprintf(w, "✓ Compiled plan %s: %d table(s), %d relationship(s), %d output(s)\n\n",
		plan.Name, len(plan.Tables), len(plan.Relationships), len(plan.Outputs))
	fmt.Fprintf(w, "Target: %s\n", plan.Target)
	fmt.Fprintf(w, "Hash: %s\n\n", result.Hash)

	fmt.Fprintln(w, "Tables:")
	for _, t := range plan.Tables {
		fmt.Fprintf(w, "  %s: key %s", t.Name, t.Key)
		if t.Source != "" {
			fmt.Fprintf(w, ", source %s", t.Source)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	if len(plan.Relationships) > 0 {
		fmt.Fprintln(w, "Relationships:")
		for _, r := range plan.Relationships {
			fmt.Fprintf(w, "  %s.%s → %s.%s\n", r.Parent, r.ParentKey, r.Child, r.ChildKey)
		}
		fmt.Fprintln(w)
	}

	if len(plan.Outputs) > 0 {
		fmt.Fprintln(w, "Outputs:")
		for _, o := range plan.Outputs {
			fmt.Fprintf(w, "  %s: %s", o.Table, o.Mode)
			if o.By != "" {
				fmt.Fprintf(w, " by %s", o.By)
			}
			fmt.Fprintf(w, ", %d feature(s)\n", len(o.Features))
		}
		fmt.Fprintln(w)
	}

	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn.Message)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled plan to %s\n", outputFile)
	}

	return nil
}

// writePlanToFile writes the compilation result as indented JSON.
func writePlanToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
