package cli

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/featsynth/internal/csvio"
	"github.com/roach88/featsynth/internal/engine"
	"github.com/roach88/featsynth/internal/pipeline"
)

// FeaturesOptions holds flags for the features command.
type FeaturesOptions struct {
	*RootOptions
	DataDir string
	Kind    string // identity | transform | aggregate; empty lists all
	Direct  bool
}

// FeatureInfo describes one synthesized feature.
type FeatureInfo struct {
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Type         string `json:"type"`
	Primitive    string `json:"primitive,omitempty"`
	Column       string `json:"column,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// DirectCheckInfo reports one broadcast aggregate recomputed by direct groupby.
type DirectCheckInfo struct {
	Feature    string `json:"feature"`
	Groups     int    `json:"groups"`
	Mismatches []int  `json:"mismatches,omitempty"`
}

// FeaturesResult lists the features of the target table.
type FeaturesResult struct {
	Target   string            `json:"target"`
	Rows     int               `json:"rows"`
	Features []FeatureInfo     `json:"features"`
	Direct   []DirectCheckInfo `json:"direct,omitempty"`
}

// NewFeaturesCommand creates the features command.
func NewFeaturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FeaturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "features",
		Short: "List synthesized feature names",
		Long: `Load the source tables, synthesize features for the plan's target table,
and list every feature name in synthesis order. These are the names output
declarations select from.

With --direct, every aggregate broadcast onto the target is recomputed by a
plain groupby over the child table and compared row by row. Any mismatch
exits 1.

Examples:
  featsynth features --data ./Ecommerce
  featsynth features --kind aggregate
  featsynth features --direct`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeatures(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data", "", "directory holding the source CSV files")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only list features of this kind (identity|transform|aggregate)")
	cmd.Flags().BoolVar(&opts.Direct, "direct", false, "verify broadcast aggregates against a direct groupby")

	return cmd
}

func runFeatures(opts *FeaturesOptions, cmd *cobra.Command) error {
	switch engine.Kind(opts.Kind) {
	case "", engine.KindIdentity, engine.KindTransform, engine.KindAggregate:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be identity, transform, or aggregate", opts.Kind))
	}

	cfg, plan, formatter, err := setup(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	runner := pipeline.New(pipeline.Options{Source: csvio.Source{Dir: cfg.DataDir}})
	analysis, err := runner.Analyze(context.Background(), plan)
	if err != nil {
		return outputPipelineError(formatter, err)
	}

	result := FeaturesResult{
		Target:   analysis.Frame.Target,
		Rows:     analysis.Frame.Len(),
		Features: listFeatures(analysis.Frame, engine.Kind(opts.Kind)),
	}

	mismatched := 0
	if opts.Direct {
		checks, err := engine.CheckBroadcast(analysis.EntitySet, analysis.Frame)
		if err != nil {
			return outputPipelineError(formatter, err)
		}
		for _, c := range checks {
			result.Direct = append(result.Direct, DirectCheckInfo{
				Feature:    c.Feature.String(),
				Groups:     c.Groups,
				Mismatches: c.Mismatches,
			})
			if len(c.Mismatches) > 0 {
				mismatched++
				slog.Warn("direct groupby mismatch", "feature", c.Feature.String(), "rows", c.Mismatches)
			}
		}
	}

	if formatter.Format == "json" {
		if mismatched > 0 {
			if err := formatter.Failure(ErrCodeGeneric, fmt.Sprintf("%d feature(s) differ from direct groupby", mismatched), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "direct check failed")
		}
		return formatter.Success(result)
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FEATURE\tKIND\tTYPE\n")
	for _, f := range result.Features {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Kind, f.Type)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\n%d feature(s) for %s (%d rows)\n", len(result.Features), result.Target, result.Rows)

	if !opts.Direct {
		return nil
	}
	fmt.Fprintln(formatter.Writer, "\nDirect groupby check:")
	for _, c := range result.Direct {
		if len(c.Mismatches) == 0 {
			fmt.Fprintf(formatter.Writer, "  ✓ %s (%d groups)\n", c.Feature, c.Groups)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  ✗ %s: rows %v differ\n", c.Feature, c.Mismatches)
	}
	if mismatched > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d feature(s) differ from direct groupby", mismatched))
	}
	return nil
}

// listFeatures returns the frame's definitions of the given kind, or all
// of them when kind is empty.
func listFeatures(frame *engine.FeatureFrame, kind engine.Kind) []FeatureInfo {
	out := []FeatureInfo{}
	for _, def := range frame.Definitions() {
		if kind != "" && def.Kind != kind {
			continue
		}
		info := FeatureInfo{
			Name:   def.Name.String(),
			Kind:   string(def.Kind),
			Type:   string(def.Type),
			Column: def.Column,
		}
		if def.Primitive != nil {
			info.Primitive = def.Primitive.Name()
		}
		if def.Relationship != nil {
			info.Relationship = def.Relationship.String()
		}
		out = append(out, info)
	}
	return out
}
