package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/featsynth/internal/compiler"
	"github.com/roach88/featsynth/internal/config"
	"github.com/roach88/featsynth/internal/engine"
	"github.com/roach88/featsynth/internal/entity"
	"github.com/roach88/featsynth/internal/ir"
	"github.com/roach88/featsynth/internal/primitive"
	"github.com/roach88/featsynth/internal/selection"
)

// Error codes for CLI-level failures. Pipeline errors carry their own codes
// (SCHEMA, UNKNOWN_FEATURE, ...) and plan validation uses E2xx.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file or environment invalid
	ErrCodeCompile     = "E003" // Plan does not compile
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // Export or warehouse write error
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads --config and the environment, then applies --plan.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Plan != "" {
		cfg.Plan = opts.Plan
	}
	return cfg, nil
}

// setupLogging installs a text handler on w as the default logger.
// --verbose forces debug; otherwise the config's log_level applies.
func setupLogging(w io.Writer, verbose bool, cfg *config.Config) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadPlan compiles the plan at path, or the embedded plan when path is
// empty, and validates it. Compile failures are returned as the error;
// validation findings are returned separately so all can be reported.
func loadPlan(path string) (*ir.Plan, []compiler.ValidationError, error) {
	var (
		plan *ir.Plan
		err  error
	)
	if path == "" {
		plan, err = compiler.CompileDefault()
	} else {
		plan, err = compiler.CompileFile(path)
	}
	if err != nil {
		return nil, nil, err
	}
	return plan, compiler.Validate(plan), nil
}

// setup is the common prologue of commands that need a plan: load config,
// configure logging, compile and validate the plan. Failures are already
// written to the formatter when the returned error is non-nil.
func setup(opts *RootOptions, cmd *cobra.Command) (*config.Config, *ir.Plan, *OutputFormatter, error) {
	f := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, f, outputCommandError(f, ErrCodeConfig, err)
	}
	setupLogging(cmd.ErrOrStderr(), opts.Verbose, cfg)

	plan, verrs, err := loadPlan(cfg.Plan)
	if err != nil {
		return nil, nil, f, outputCompileError(f, err)
	}
	if len(verrs) > 0 {
		return nil, nil, f, outputValidationErrors(f, verrs)
	}
	f.VerboseLog("Plan %s compiled (hash %s)", plan.Name, plan.Hash)
	return cfg, plan, f, nil
}

// outputCommandError writes err and returns exit code 2.
func outputCommandError(f *OutputFormatter, code string, err error) error {
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}

// outputCompileError writes a plan compile failure with its position.
func outputCompileError(f *OutputFormatter, err error) error {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return outputCommandError(f, ErrCodeCompile, err)
	}

	var details any
	if ce.Pos.IsValid() {
		details = map[string]any{
			"file":   ce.Pos.Filename(),
			"line":   ce.Pos.Line(),
			"column": ce.Pos.Column(),
		}
	}
	if f.Format == "json" {
		_ = f.Error(ErrCodeCompile, ce.Message, details)
	} else {
		fmt.Fprintln(f.Writer, "✗ Compilation failed")
		fmt.Fprintln(f.Writer)
		if ce.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n", ce.Pos.Filename(), ce.Pos.Line(), ce.Pos.Column())
		}
		fmt.Fprintf(f.Writer, "  %s: %s: %s\n", ErrCodeCompile, ce.Field, ce.Message)
	}
	return WrapExitError(ExitCommandError, "compilation failed", err)
}

// outputValidationErrors writes every plan validation finding and returns
// exit code 1.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	if f.Format == "json" {
		_ = f.Failure(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(f.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(f.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// outputPipelineError writes a fatal pipeline error under its own code and
// returns exit code 1.
func outputPipelineError(f *OutputFormatter, err error) error {
	code := pipelineErrorCode(err)
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, code, err)
}

// pipelineErrorCode maps a fatal pipeline error to its error code.
func pipelineErrorCode(err error) string {
	var synth *engine.SynthesisError
	switch {
	case entity.IsSchemaError(err):
		return entity.ErrCodeSchema
	case selection.IsUnknownFeature(err):
		return selection.ErrCodeUnknownFeature
	case selection.IsNameCollision(err):
		return selection.ErrCodeNameCollision
	case primitive.IsUnsupportedPrimitive(err):
		return primitive.ErrCodeUnsupportedPrimitive
	case errors.As(err, &synth):
		return string(synth.Code)
	default:
		return ErrCodeGeneric
	}
}
