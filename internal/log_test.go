package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel(" TRACE "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := captureLog(t)
	l := NewLogger(LogLevelWarn)

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)

	assert.Equal(t, "[WARN] shown 2\n", buf.String())
}

func TestLogger_WithComponent(t *testing.T) {
	buf := captureLog(t)
	l := NewLogger(LogLevelInfo).With("scorer").With("worker")

	l.Info("run %s failed", "cursor/baseline/missing/1")

	assert.Equal(t, "[INFO] scorer.worker: run cursor/baseline/missing/1 failed\n", buf.String())
	assert.Equal(t, LogLevelInfo, l.GetLevel())
}
