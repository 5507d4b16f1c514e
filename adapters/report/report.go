package report

import (
	"fmt"
	"strings"

	"alignbench/domain/compare"
	"alignbench/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// reportedMetrics are the columns of the summary table
var reportedMetrics = []stats.Metric{stats.MetricPrecision, stats.MetricRecall, stats.MetricF1, stats.MetricPointScore}

// Markdown renders summaries and hypothesis evaluations as a markdown document.
// Each summary cell is "mean ± sd (n)"; "n/a" marks a metric with too little data.
func Markdown(title string, summaries []stats.Summary, evaluations []compare.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(summaries) > 0 {
		b.WriteString("## Summaries\n\n")
		b.WriteString("| framework | branch | kind | runs |")
		for _, m := range reportedMetrics {
			fmt.Fprintf(&b, " %s |", m)
		}
		b.WriteString("\n|---|---|---|---|")
		b.WriteString(strings.Repeat("---|", len(reportedMetrics)))
		b.WriteString("\n")
		for _, s := range summaries {
			kind := string(s.Kind)
			if kind == "" {
				kind = "overall"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %d |", s.Framework, s.Branch, kind, s.Runs)
			for _, m := range reportedMetrics {
				fmt.Fprintf(&b, " %s |", summaryCell(s.Metrics[m]))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(evaluations) > 0 {
		b.WriteString("## Hypotheses\n\n")
		b.WriteString("| id | description | test | p | p (corrected) | effect | direction | supported |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, e := range evaluations {
			r := e.Result
			test := string(r.TestUsed)
			if r.Status != stats.StatusOK {
				test = string(r.Status)
			}
			effect := number(r.EffectSize)
			if r.EffectMagnitude != "" {
				effect += " (" + string(r.EffectMagnitude) + ")"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				e.Hypothesis.ID, e.Hypothesis.Description, test, number(r.PValue), number(r.PValueCorrected),
				effect, r.Direction, yesNo(e.Supported))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML renders the same document through the markdown parser with table support
func HTML(title string, summaries []stats.Summary, evaluations []compare.Evaluation) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(Markdown(title, summaries, evaluations)), p, renderer)
}

func summaryCell(ms stats.MetricSummary) string {
	if ms.Status != stats.StatusOK || ms.DistributionStats == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f ± %.3f (%d)", ms.Mean, ms.StdDev, ms.N)
}

func number(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", *v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
