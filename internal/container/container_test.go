package container

import (
	"context"
	"testing"

	"alignbench/adapters/filesystem"
	"alignbench/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_WithoutDatabaseUsesFiles(t *testing.T) {
	cfg := &config.Config{
		Paths:   config.PathConfig{BenchmarkDir: t.TempDir(), ResultsDir: t.TempDir()},
		Scoring: config.ScoringConfig{Workers: 2},
	}

	c, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.DB)
	assert.IsType(t, &filesystem.RunStore{}, c.Runs)
	assert.NotNil(t, c.Benchmark)
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
