package postgres

import (
	"testing"
	"time"

	"alignbench/domain/benchmark"
	"alignbench/domain/core"
	"alignbench/domain/run"
	"alignbench/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRow_RoundTrip(t *testing.T) {
	key := benchmark.RunKey{Framework: "cursor", Branch: "baseline_balanced", Kind: benchmark.KindIncorrect, Run: 3}
	m, err := scoring.Evaluate(key.Kind,
		[]benchmark.GroundTruthItem{{Key: "3.2", Files: []string{"src/api.ts"}}},
		[]benchmark.ReportedItem{{Key: "3.2", Files: []string{"src/api.ts", "src/db.ts"}}})
	require.NoError(t, err)
	record := run.NewRecord(key, m)
	record.ScoredAt = core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	row, err := toRow(record)
	require.NoError(t, err)
	assert.Equal(t, "incorrect", row.Kind)
	assert.Equal(t, 3, row.RunNumber)
	assert.True(t, row.Precision.Valid)
	assert.Equal(t, 1.0, row.Precision.Float64)
	assert.Equal(t, 1, row.TP)

	back, err := row.toRecord()
	require.NoError(t, err)
	assert.Equal(t, record.Key, back.Key)
	assert.Equal(t, record.ID, back.ID)
	assert.Equal(t, record.Fingerprint, back.Fingerprint)
	assert.Equal(t, []string{"src/api.ts"}, back.Metrics.TP[0].MatchedFiles)
	assert.True(t, record.ScoredAt.Time().Equal(back.ScoredAt.Time()))
}

func TestRunRow_NullPrecision(t *testing.T) {
	key := benchmark.RunKey{Framework: "claude-code", Branch: "control_perfect", Kind: benchmark.KindMissing, Run: 1}
	m, err := scoring.Evaluate(key.Kind, nil, nil)
	require.NoError(t, err)

	row, err := toRow(run.NewRecord(key, m))
	require.NoError(t, err)
	assert.False(t, row.Precision.Valid)
	assert.False(t, row.Recall.Valid)

	back, err := row.toRecord()
	require.NoError(t, err)
	assert.Nil(t, back.Metrics.Precision)
	assert.Nil(t, back.Metrics.Recall)
}
