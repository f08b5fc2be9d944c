package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedLogger(level Level, jsonFormat bool) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(level, jsonFormat)
	l.SetOutput(&buf)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return l, &buf
}

func TestTextFormat(t *testing.T) {
	l, buf := fixedLogger(INFO, false)
	l.WithField("label", "build").Info("measured", map[string]interface{}{"unit": "second(s)"})

	assert.Equal(t, "[2024-05-01 12:00:00] INFO: measured label=build unit=second(s)\n", buf.String())
}

func TestLevelFilter(t *testing.T) {
	l, buf := fixedLogger(WARN, false)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	assert.Contains(t, buf.String(), "WARN: shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestJSONFormat(t *testing.T) {
	l, buf := fixedLogger(DEBUG, true)
	l.Error("range exceeded", map[string]interface{}{"seconds": 90000.0})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "range exceeded", entry.Message)
	assert.Equal(t, 90000.0, entry.Fields["seconds"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	l, buf := fixedLogger(INFO, false)
	_ = l.WithField("k", "v")
	l.Info("plain")

	assert.NotContains(t, buf.String(), "k=v")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "scopetimer.log")
	l, err := NewFileLogger(path, INFO, false)
	require.NoError(t, err)
	defer l.Close()

	l.Info("run finished", map[string]interface{}{"exit_code": 0})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: run finished exit_code=0")
}

func TestDiscard(t *testing.T) {
	var buf bytes.Buffer
	l := Discard()
	l.SetOutput(&buf)

	l.Error("nothing")
	l.WithField("k", "v").Error("still nothing")
	assert.Empty(t, buf.String())
}
