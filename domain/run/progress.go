package run

import (
	"alignbench/domain/benchmark"
)

// DefaultTargetRuns is the number of runs each series needs for a full comparison
const DefaultTargetRuns = 5

// Progress tracks how many runs of a series are scored
type Progress struct {
	Series    benchmark.SeriesKey `json:"series"`
	Completed []int               `json:"completed"`
	Target    int                 `json:"target"`
	Needed    int                 `json:"needed"`
	NextRun   int                 `json:"next_run"`
}

// NewProgress derives progress from the sorted completed run numbers.
// NextRun follows the highest completed run, so gaps are not refilled.
func NewProgress(series benchmark.SeriesKey, completed []int, target int) Progress {
	if completed == nil {
		completed = []int{}
	}
	next := 1
	for _, n := range completed {
		if n >= next {
			next = n + 1
		}
	}
	needed := target - len(completed)
	if needed < 0 {
		needed = 0
	}
	return Progress{Series: series, Completed: completed, Target: target, Needed: needed, NextRun: next}
}

// Done reports whether the series has reached its target
func (p Progress) Done() bool {
	return p.Needed == 0
}
