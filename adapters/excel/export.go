package excel

import (
	"fmt"
	"io"

	"alignbench/domain/compare"
	"alignbench/domain/stats"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet    = "Summaries"
	HypothesisSheet = "Hypotheses"
)

var summaryHeaders = []interface{}{
	"framework", "branch", "kind", "runs", "metric", "status", "n", "mean", "std_dev", "median", "iqr", "min", "max", "excluded",
}

var hypothesisHeaders = []interface{}{
	"hypothesis", "description", "framework_a", "framework_b", "status", "test", "statistic", "p_value",
	"p_value_corrected", "alpha_corrected", "effect_size", "magnitude", "direction", "expected", "significant", "supported",
}

// WriteWorkbook writes one row per (summary, metric) and one row per hypothesis evaluation.
// Undefined values are left as empty cells.
func WriteWorkbook(w io.Writer, summaries []stats.Summary, evaluations []compare.Evaluation) error {
	f, err := buildWorkbook(summaries, evaluations)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the same workbook to a file
func SaveWorkbook(path string, summaries []stats.Summary, evaluations []compare.Evaluation) error {
	f, err := buildWorkbook(summaries, evaluations)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(summaries []stats.Summary, evaluations []compare.Evaluation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(HypothesisSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create hypothesis sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, summaryHeaders, summaryRows(summaries)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, HypothesisSheet, hypothesisHeaders, hypothesisRows(evaluations)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, headers []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func summaryRows(summaries []stats.Summary) [][]interface{} {
	var rows [][]interface{}
	for _, s := range summaries {
		kind := string(s.Kind)
		if kind == "" {
			kind = "overall"
		}
		for _, metric := range stats.Metrics() {
			ms, ok := s.Metrics[metric]
			if !ok {
				continue
			}
			row := []interface{}{s.Framework.String(), s.Branch.String(), kind, s.Runs, string(metric), string(ms.Status)}
			if ms.DistributionStats != nil {
				d := ms.DistributionStats
				row = append(row, d.N, d.Mean, d.StdDev, d.Median, d.IQR, d.Min, d.Max)
			} else {
				row = append(row, nil, nil, nil, nil, nil, nil, nil)
			}
			rows = append(rows, append(row, ms.Excluded))
		}
	}
	return rows
}

func hypothesisRows(evaluations []compare.Evaluation) [][]interface{} {
	rows := make([][]interface{}, 0, len(evaluations))
	for _, e := range evaluations {
		r := e.Result
		rows = append(rows, []interface{}{
			e.Hypothesis.ID.String(), e.Hypothesis.Description, e.FrameworkA.String(), e.FrameworkB.String(),
			string(r.Status), string(r.TestUsed), cellValue(r.Statistic), cellValue(r.PValue),
			cellValue(r.PValueCorrected), r.AlphaCorrected, cellValue(r.EffectSize), string(r.EffectMagnitude),
			string(r.Direction), string(e.Hypothesis.Expected), r.Significant, e.Supported,
		})
	}
	return rows
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
