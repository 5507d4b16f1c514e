package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"alignbench/adapters/excel"
	"alignbench/adapters/report"
	"alignbench/domain/benchmark"
	"alignbench/domain/compare"
	"alignbench/domain/core"
	"alignbench/domain/stats"
	"alignbench/ports"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var framework, branch, kind string
	var runNumber int

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score stored reports against ground truth",
		Long: `Score raw reports under RESULTS_DIR/raw and store the scored runs.

Without --run every stored report of --framework (or of every framework) is scored.
A report that fails to load or validate is listed as a failure; the others are still scored.

Example: alignbench score --framework cursor
         alignbench score --framework cursor --branch baseline_balanced --kind missing --run 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if runNumber > 0 {
				k, err := benchmark.ParseKind(kind)
				if err != nil {
					return err
				}
				key := benchmark.RunKey{Framework: core.Framework(framework), Branch: core.Branch(branch), Kind: k, Run: runNumber}
				record, err := c.Benchmark.ScoreRun(cmd.Context(), key)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), record)
			}

			result, err := c.Benchmark.ScoreAll(cmd.Context(), core.Framework(framework))
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if len(result.Failures) > 0 {
				return fmt.Errorf("%d of %d runs failed to score", len(result.Failures), len(result.Failures)+len(result.Scored))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "Framework to score (all when empty)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch of a single run")
	cmd.Flags().StringVar(&kind, "kind", "", "Kind of a single run: missing|incorrect|extraneous")
	cmd.Flags().IntVar(&runNumber, "run", 0, "Run number of a single run")
	return cmd
}

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [framework] [branch] [kind|combined] [run] [report-file]",
		Short: "Score a report file and store the scored run",
		Long: `Score one report document directly.

With kind "combined" the document carries all three kinds and one run is stored per kind.

Example: alignbench ingest cursor baseline_balanced combined 1 report.json`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			runNumber, err := strconv.Atoi(args[3])
			if err != nil {
				return core.NewValidationError("run", "must be an integer")
			}
			data, err := os.ReadFile(args[4])
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			framework, branch := core.Framework(args[0]), core.Branch(args[1])
			if strings.EqualFold(args[2], "combined") {
				doc, err := benchmark.DecodeCombinedReport(data)
				if err != nil {
					return err
				}
				combined, err := c.Benchmark.ScoreCombined(cmd.Context(), framework, branch, runNumber, doc)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), combined)
			}

			kind, err := benchmark.ParseKind(args[2])
			if err != nil {
				return err
			}
			doc, err := benchmark.DecodeReport(data, kind)
			if err != nil {
				return err
			}
			key := benchmark.RunKey{Framework: framework, Branch: branch, Kind: kind, Run: runNumber}
			record, err := c.Benchmark.ScoreReport(cmd.Context(), key, doc)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	return cmd
}

func runFilter(framework, branch, kind string) (ports.RunFilter, error) {
	filter := ports.RunFilter{Framework: core.Framework(framework), Branch: core.Branch(branch)}
	if kind != "" {
		k, err := benchmark.ParseKind(kind)
		if err != nil {
			return ports.RunFilter{}, err
		}
		filter.Kind = k
	}
	return filter, nil
}

func newAggregateCmd() *cobra.Command {
	var framework, branch, kind, format string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Summarize scored runs per framework, branch and kind",
		Long: `Aggregate scored runs into mean, standard deviation, median, IQR and range per metric.

Unless --kind is set, each (framework, branch) also gets an overall summary pooling its kinds.

Example: alignbench aggregate --framework cursor --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := runFilter(framework, branch, kind)
			if err != nil {
				return err
			}
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			summaries, err := c.Benchmark.Summarize(cmd.Context(), filter)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), summaries)
			case "markdown":
				_, err := fmt.Fprint(cmd.OutOrStdout(), report.Markdown("Run summaries", summaries, nil))
				return err
			}
			return core.NewValidationError("format", "must be json or markdown")
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "Only this framework")
	cmd.Flags().StringVar(&branch, "branch", "", "Only this branch")
	cmd.Flags().StringVar(&kind, "kind", "", "Only this kind")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown")
	return cmd
}

func selectHypotheses(ids []string) ([]compare.Hypothesis, error) {
	if len(ids) == 0 {
		return compare.Catalog(), nil
	}
	out := make([]compare.Hypothesis, 0, len(ids))
	for _, id := range ids {
		h, err := compare.FindHypothesis(core.HypothesisID(id))
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func newCompareCmd() *cobra.Command {
	var frameworkA, frameworkB, format string
	var ids []string
	var alpha float64
	var noBonferroni bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Test the hypothesis catalog between two frameworks",
		Long: `Compare framework A against framework B for each hypothesis.

The selected hypotheses form one Bonferroni family. Hypotheses without enough runs
are reported with status insufficient_sample rather than failing the command.

Example: alignbench compare --a cursor --b claude-code --id H1 --id H5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hypotheses, err := selectHypotheses(ids)
			if err != nil {
				return err
			}
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if frameworkA == "" {
				frameworkA = c.Config.Compare.FrameworkA
			}
			if frameworkB == "" {
				frameworkB = c.Config.Compare.FrameworkB
			}
			opts := c.Config.CompareOptions()
			if alpha > 0 {
				opts.Alpha = alpha
			}
			if noBonferroni {
				opts.Bonferroni = false
			}

			evaluations, err := c.Benchmark.EvaluateHypotheses(cmd.Context(), hypotheses, core.Framework(frameworkA), core.Framework(frameworkB), opts)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), evaluations)
			case "markdown":
				title := fmt.Sprintf("%s vs %s", frameworkA, frameworkB)
				_, err := fmt.Fprint(cmd.OutOrStdout(), report.Markdown(title, nil, evaluations))
				return err
			}
			return core.NewValidationError("format", "must be json or markdown")
		},
	}

	cmd.Flags().StringVar(&frameworkA, "a", "", "Framework A (default FRAMEWORK_A)")
	cmd.Flags().StringVar(&frameworkB, "b", "", "Framework B (default FRAMEWORK_B)")
	cmd.Flags().StringArrayVar(&ids, "id", nil, "Hypothesis ID, repeatable (default: whole catalog)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0, "Significance level (default SIGNIFICANCE_ALPHA)")
	cmd.Flags().BoolVar(&noBonferroni, "no-bonferroni", false, "Disable the family-wise correction")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var framework string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check ground truth and stored reports without scoring",
		Long: `Validate every branch's ground truth and every stored report of --framework.

All problems are listed; the command fails when any were found.

Example: alignbench validate --framework cursor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			branches, err := c.GroundTruth.Branches(ctx)
			if err != nil {
				return err
			}
			out := struct {
				GroundTruth map[core.Branch]map[benchmark.Kind][]string `json:"ground_truth"`
				Reports     interface{}                                 `json:"reports"`
			}{GroundTruth: map[core.Branch]map[benchmark.Kind][]string{}}

			problems := 0
			for _, branch := range branches {
				byKind, err := c.Benchmark.ValidateGroundTruth(ctx, branch)
				if err != nil {
					return err
				}
				if len(byKind) > 0 {
					out.GroundTruth[branch] = byKind
					for _, p := range byKind {
						problems += len(p)
					}
				}
			}

			keys, err := c.Reports.ListReports(ctx, core.Framework(framework))
			if err != nil {
				return err
			}
			reports, err := c.Benchmark.Validate(ctx, keys)
			if err != nil {
				return err
			}
			out.Reports = reports
			for _, r := range reports {
				problems += len(r.Problems)
			}

			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if problems > 0 {
				return fmt.Errorf("found %d problems", problems)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&framework, "framework", "", "Only reports of this framework")
	return cmd
}

func newProgressCmd() *cobra.Command {
	var branches []string
	var target int

	cmd := &cobra.Command{
		Use:   "progress [framework]",
		Short: "Show completed runs and the next run number per branch and kind",
		Long: `Show which runs of each series are scored and which run number to produce next.

Example: alignbench progress cursor --target 5
         alignbench progress claude-code --branch baseline_balanced`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			selected := make([]core.Branch, len(branches))
			for i, b := range branches {
				selected[i] = core.Branch(b)
			}
			progress, err := c.Benchmark.Progress(cmd.Context(), core.Framework(args[0]), selected, target)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), progress)
		},
	}

	cmd.Flags().StringSliceVar(&branches, "branch", nil, "Branches to report (default: every ground-truth branch)")
	cmd.Flags().IntVar(&target, "target", 5, "Runs needed per series")
	return cmd
}

func newExportCmd() *cobra.Command {
	var xlsxPath, htmlPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write summaries and the hypothesis catalog to xlsx and HTML",
		Long: `Export summaries of FRAMEWORK_A and FRAMEWORK_B with every hypothesis result.

Example: alignbench export --xlsx results.xlsx --html results.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if xlsxPath == "" && htmlPath == "" {
				return core.NewValidationError("output", "set --xlsx or --html")
			}
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			a, b := core.Framework(c.Config.Compare.FrameworkA), core.Framework(c.Config.Compare.FrameworkB)
			var summaries []stats.Summary
			for _, fw := range []core.Framework{a, b} {
				s, err := c.Benchmark.Summarize(ctx, ports.RunFilter{Framework: fw})
				if err != nil {
					return err
				}
				summaries = append(summaries, s...)
			}
			evaluations, err := c.Benchmark.EvaluateHypotheses(ctx, compare.Catalog(), a, b, c.Config.CompareOptions())
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := excel.SaveWorkbook(xlsxPath, summaries, evaluations); err != nil {
					return err
				}
				c.Logger.Info("wrote %s", xlsxPath)
			}
			if htmlPath != "" {
				page := report.HTML(fmt.Sprintf("%s vs %s", a, b), summaries, evaluations)
				if err := os.WriteFile(htmlPath, page, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", htmlPath, err)
				}
				c.Logger.Info("wrote %s", htmlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Workbook output path")
	cmd.Flags().StringVar(&htmlPath, "html", "", "HTML report output path")
	return cmd
}
