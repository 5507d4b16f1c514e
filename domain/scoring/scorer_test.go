package scoring

import (
	"encoding/json"
	"testing"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gtKeys(kind benchmark.Kind, keys ...string) []benchmark.GroundTruthItem {
	items := make([]benchmark.GroundTruthItem, len(keys))
	for i, k := range keys {
		items[i] = benchmark.GroundTruthItem{Kind: kind, Key: k}
	}
	return items
}

func repKeys(kind benchmark.Kind, keys ...string) []benchmark.ReportedItem {
	items := make([]benchmark.ReportedItem, len(keys))
	for i, k := range keys {
		items[i] = benchmark.ReportedItem{Kind: kind, Key: k}
	}
	return items
}

func keysOf(entries []AuditEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

func TestScenarioA_PerfectMissing(t *testing.T) {
	m, err := Evaluate(benchmark.KindMissing, gtKeys(benchmark.KindMissing, "2.1"), repKeys(benchmark.KindMissing, "2.1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2.1"}, keysOf(m.TP))
	assert.Empty(t, m.FP)
	assert.Empty(t, m.FN)
	assert.Equal(t, ptr(1.0), m.Precision)
	assert.Equal(t, ptr(1.0), m.Recall)
	assert.Equal(t, 1.0, m.F1)
	assert.Equal(t, 1.0, m.PointScore)
}

func TestScenarioB_PartialMissing(t *testing.T) {
	m, err := Evaluate(benchmark.KindMissing, gtKeys(benchmark.KindMissing, "2.1", "3.3"), repKeys(benchmark.KindMissing, "2.1", "4.4"))
	require.NoError(t, err)

	assert.Equal(t, []string{"2.1"}, keysOf(m.TP))
	assert.Equal(t, []string{"4.4"}, keysOf(m.FP))
	assert.Equal(t, []string{"3.3"}, keysOf(m.FN))
	assert.Equal(t, ptr(0.5), m.Precision)
	assert.Equal(t, ptr(0.5), m.Recall)
	assert.Equal(t, 0.5, m.F1)
	assert.Equal(t, 0.75, m.PointScore)
}

func TestScenarioC_IncorrectDisjointFiles(t *testing.T) {
	gt := []benchmark.GroundTruthItem{{Key: "3.1", Files: []string{"a.ts"}}}
	rep := []benchmark.ReportedItem{{Key: "3.1", Files: []string{"b.ts"}}}

	m, err := Evaluate(benchmark.KindIncorrect, gt, rep)
	require.NoError(t, err)
	assert.Empty(t, m.TP)
	assert.Len(t, m.FP, 1)
	assert.Len(t, m.FN, 1)
	assert.Equal(t, Counts{TP: 0, FP: 1, FN: 1}, m.Counts)
	assert.Equal(t, ptr(0.0), m.Precision)
	assert.Equal(t, 0.0, m.F1)
}

func TestScenarioD_ControlBranch(t *testing.T) {
	m, err := Evaluate(benchmark.KindMissing, nil, repKeys(benchmark.KindMissing, "x"))
	require.NoError(t, err)

	assert.Empty(t, m.TP)
	assert.Equal(t, []string{"x"}, keysOf(m.FP))
	assert.Empty(t, m.FN)
	assert.Nil(t, m.Recall)
	assert.Equal(t, ptr(0.0), m.Precision)
	assert.Equal(t, -0.25, m.PointScore)
	assert.Equal(t, 0.0, m.F1)
}

func TestEmptyReportHasNoPrecision(t *testing.T) {
	m, err := Evaluate(benchmark.KindMissing, gtKeys(benchmark.KindMissing, "2.1"), nil)
	require.NoError(t, err)
	assert.Nil(t, m.Precision)
	assert.Equal(t, ptr(0.0), m.Recall)
	assert.Equal(t, 0.0, m.F1)
	assert.Equal(t, 0.0, m.PointScore)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"precision":null`)
	assert.Contains(t, string(raw), `"tp":[]`)
}

func TestExactMatchIsCaseAndWhitespaceSensitive(t *testing.T) {
	for _, kind := range []benchmark.Kind{benchmark.KindMissing, benchmark.KindExtraneous} {
		t.Run(kind.String(), func(t *testing.T) {
			p, err := Score(kind, gtKeys(kind, "Auth-Flow"), repKeys(kind, "auth-flow", " Auth-Flow", "Auth-Flow "))
			require.NoError(t, err)
			assert.Empty(t, p.TruePositives)
			assert.Len(t, p.FalsePositives, 3)
			assert.Len(t, p.FalseNegatives, 1)
		})
	}
}

func TestIncorrectRequiresFileOverlap(t *testing.T) {
	gt := []benchmark.GroundTruthItem{{Key: "3.1", Files: []string{"a.ts", "b.ts", "c.ts"}}}

	cases := []struct {
		name  string
		files []string
		match bool
		want  []string
	}{
		{"single overlap", []string{"b.ts"}, true, []string{"b.ts"}},
		{"overlap collapses duplicates", []string{"c.ts", "a.ts", "c.ts"}, true, []string{"a.ts", "c.ts"}},
		{"disjoint", []string{"z.ts"}, false, nil},
		{"empty reported files", []string{}, false, nil},
		{"different case path", []string{"A.ts"}, false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, files := Match(benchmark.KindIncorrect, gt[0], benchmark.ReportedItem{Key: "3.1", Files: tc.files})
			assert.Equal(t, tc.match, ok)
			assert.Equal(t, tc.want, files)
		})
	}

	ok, _ := Match(benchmark.KindIncorrect, gt[0], benchmark.ReportedItem{Key: "3.2", Files: []string{"a.ts"}})
	assert.False(t, ok, "file overlap without the same key is not a match")
}

func TestFirstMatchWins(t *testing.T) {
	gt := []benchmark.GroundTruthItem{
		{Key: "3.1", Files: []string{"a.ts", "b.ts"}},
		{Key: "3.1", Files: []string{"b.ts"}},
	}
	rep := []benchmark.ReportedItem{
		{Key: "3.1", Files: []string{"b.ts"}},
		{Key: "3.1", Files: []string{"a.ts"}},
	}

	p, err := Score(benchmark.KindIncorrect, gt, rep)
	require.NoError(t, err)

	// the first expected item claims the first report; the second expected item
	// only overlaps on b.ts, which is already consumed
	require.Len(t, p.TruePositives, 1)
	assert.Equal(t, 0, p.TruePositives[0].ReportedIndex)
	assert.Equal(t, []string{"b.ts"}, p.TruePositives[0].MatchedFiles)
	assert.Len(t, p.FalseNegatives, 1)
	require.Len(t, p.FalsePositives, 1)
	assert.Equal(t, []string{"a.ts"}, p.FalsePositives[0].Files)
}

func TestDuplicateReportsBecomeFalsePositives(t *testing.T) {
	p, err := Score(benchmark.KindMissing, gtKeys(benchmark.KindMissing, "2.1"), repKeys(benchmark.KindMissing, "2.1", "2.1"))
	require.NoError(t, err)
	tp, fp, fn := p.Counts()
	assert.Equal(t, 1, tp)
	assert.Equal(t, 1, fp)
	assert.Equal(t, 0, fn)
}

func TestPartitionCompleteness(t *testing.T) {
	gt := []benchmark.GroundTruthItem{
		{Key: "a", Files: []string{"1"}},
		{Key: "b", Files: []string{"2"}},
		{Key: "c", Files: []string{"3"}},
		{Key: "a", Files: []string{"4"}},
	}
	rep := []benchmark.ReportedItem{
		{Key: "a", Files: []string{"4"}},
		{Key: "b", Files: []string{"9"}},
		{Key: "c", Files: []string{"3", "1"}},
		{Key: "d", Files: []string{"1"}},
		{Key: "a", Files: []string{"1"}},
	}

	for _, kind := range benchmark.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			p, err := Score(kind, gtForKind(kind, gt), repForKind(kind, rep))
			require.NoError(t, err)
			tp, fp, fn := p.Counts()
			assert.Equal(t, len(rep), tp+fp)
			assert.Equal(t, len(gt), tp+fn)

			m := Derive(p)
			assert.Equal(t, float64(tp)*1.0-float64(fp)*0.25, m.PointScore)
		})
	}
}

// missing-kind items carry no files and unique keys
func gtForKind(kind benchmark.Kind, items []benchmark.GroundTruthItem) []benchmark.GroundTruthItem {
	if kind != benchmark.KindMissing {
		return items
	}
	seen := map[string]bool{}
	var out []benchmark.GroundTruthItem
	for _, it := range items {
		key := it.Key
		if seen[key] {
			key += "'"
		}
		seen[key] = true
		out = append(out, benchmark.GroundTruthItem{Key: key})
	}
	return out
}

func repForKind(kind benchmark.Kind, items []benchmark.ReportedItem) []benchmark.ReportedItem {
	if kind != benchmark.KindMissing {
		return items
	}
	out := make([]benchmark.ReportedItem, len(items))
	for i, it := range items {
		out[i] = benchmark.ReportedItem{Key: it.Key}
	}
	return out
}

func TestScoreIsIdempotent(t *testing.T) {
	gt := []benchmark.GroundTruthItem{{Key: "3.1", Files: []string{"a.ts"}}, {Key: "4.1", Files: []string{"b.ts"}}}
	rep := []benchmark.ReportedItem{{Key: "4.1", Files: []string{"b.ts", "c.ts"}}, {Key: "9.9", Files: []string{"x.ts"}}}

	first, err := Evaluate(benchmark.KindIncorrect, gt, rep)
	require.NoError(t, err)
	second, err := Evaluate(benchmark.KindIncorrect, gt, rep)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.False(t, first.Fingerprint.IsEmpty())
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	reordered := []benchmark.ReportedItem{rep[1], rep[0]}
	third, err := Evaluate(benchmark.KindIncorrect, gt, reordered)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestMalformedItemsAbortTheRun(t *testing.T) {
	cases := []struct {
		name string
		kind benchmark.Kind
		gt   []benchmark.GroundTruthItem
		rep  []benchmark.ReportedItem
		side core.Side
	}{
		{"incorrect report without files", benchmark.KindIncorrect, nil, []benchmark.ReportedItem{{Key: "3.1"}}, core.SideReported},
		{"missing report with files", benchmark.KindMissing, nil, []benchmark.ReportedItem{{Key: "2.1", Files: []string{"a"}}}, core.SideReported},
		{"blank reported key", benchmark.KindExtraneous, nil, []benchmark.ReportedItem{{Key: ""}}, core.SideReported},
		{"duplicate missing ground truth", benchmark.KindMissing, gtKeys(benchmark.KindMissing, "2.1", "2.1"), nil, core.SideGroundTruth},
		{"incorrect ground truth without files", benchmark.KindIncorrect, []benchmark.GroundTruthItem{{Key: "3.1"}}, nil, core.SideGroundTruth},
		{"incorrect ground truth with empty files", benchmark.KindIncorrect, []benchmark.GroundTruthItem{{Key: "3.1", Files: []string{}}}, []benchmark.ReportedItem{{Key: "3.1", Files: []string{"a.ts"}}}, core.SideGroundTruth},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(tc.kind, tc.gt, tc.rep)
			require.Error(t, err)
			assert.True(t, core.IsMalformedReport(err))
			var mre *core.MalformedReportError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, tc.side, mre.Side)
		})
	}

	_, err := Score(benchmark.Kind("type9"), nil, nil)
	assert.ErrorIs(t, err, core.ErrUnknownKind)
}

func TestF1(t *testing.T) {
	assert.Equal(t, 0.0, F1(nil, ptr(1)))
	assert.Equal(t, 0.0, F1(ptr(1), nil))
	assert.Equal(t, 0.0, F1(ptr(0), ptr(0)))
	assert.InDelta(t, 2*0.5*0.25/0.75, F1(ptr(0.5), ptr(0.25)), 1e-12)
}
