package config_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/safecheck/internal/config"
	"github.com/mrz1836/safecheck/internal/graph"
)

// The graph logs through this interface.
var _ graph.Logger = (*config.Logger)(nil)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"none", config.LogLevelOff},
		{" OFF ", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"Error", config.LogLevelError},
		{"debug", config.LogLevelDebug},
		{"DEBUG", config.LogLevelDebug},
		{"", config.LogLevelError},
		{"trace", config.LogLevelError},
		{"warn", config.LogLevelError},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, config.ParseLogLevel(tc.input))
		})
	}
}

func TestLogLevel_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, level := range []config.LogLevel{config.LogLevelOff, config.LogLevelError, config.LogLevelDebug} {
		assert.Equal(t, level, config.ParseLogLevel(level.String()))
	}
	assert.Equal(t, "error", config.LogLevel(42).String())
}

func TestNewLogger_NoFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level config.LogLevel
		path  string
	}{
		{"level off", config.LogLevelOff, filepath.Join(t.TempDir(), "off.log")},
		{"empty path", config.LogLevelDebug, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger, err := config.NewLogger(tc.level, tc.path)
			require.NoError(t, err)
			defer func() { _ = logger.Close() }()

			logger.Error("chainState failed: %s", "boom")
			assert.Nil(t, logger.Structured())

			if tc.path != "" {
				_, statErr := os.Stat(tc.path)
				assert.True(t, os.IsNotExist(statErr), "no file is created")
			}
		})
	}
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "nested", "dir", "safecheck.log")

	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	assert.Equal(t, logPath, logger.Path())
	assert.FileExists(t, logPath)
}

func TestNewLogger_TildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	name := fmt.Sprintf(".safecheck-logtest-%d", os.Getpid())
	t.Cleanup(func() { _ = os.RemoveAll(filepath.Join(home, name)) })

	logger, err := config.NewLogger(config.LogLevelError, "~/"+name+"/safecheck.log")
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	assert.Equal(t, filepath.Join(home, name, "safecheck.log"), logger.Path())
}

func TestNewLogger_InvalidPath(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := config.NewLogger(config.LogLevelError, filepath.Join(blocker, "safecheck.log"))
	require.Error(t, err)
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := config.NullLogger()
	require.NotNil(t, logger)

	assert.Equal(t, config.LogLevelOff, logger.Level())
	assert.Empty(t, logger.Path())
	assert.NotPanics(t, func() {
		logger.Debug("node %s: %s -> %s", "address", "idle", "pending")
		logger.Error("node %s failed", "safeInfo")
		logger.DebugAttrs("check finished", slog.String("input", "eth:0x1"))
		logger.ErrorAttrs("check failed")
		_, _ = logger.Writer(config.LogLevelDebug).Write([]byte("ignored"))
	})
	require.NoError(t, logger.Close())
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		level     config.LogLevel
		wantDebug bool
		wantError bool
	}{
		{"debug logs everything", config.LogLevelDebug, true, true},
		{"error drops debug", config.LogLevelError, false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logPath := filepath.Join(t.TempDir(), "safecheck.log")
			logger, err := config.NewLogger(tc.level, logPath)
			require.NoError(t, err)

			logger.Debug("node %s: %s -> %s (gen %d)", "chainInfo", "idle", "pending", 1)
			logger.Error("node %s failed: %s", "chainState", "missing auth token")
			require.NoError(t, logger.Close())

			content := readLogFile(t, logPath)
			assert.Equal(t, tc.wantDebug, strings.Contains(content, "[DEBUG] node chainInfo: idle -> pending (gen 1)"))
			assert.Equal(t, tc.wantError, strings.Contains(content, "[ERROR] node chainState failed: missing auth token"))
		})
	}
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)

	logger.Debug("before")
	logger.SetLevel(config.LogLevelDebug)
	assert.Equal(t, config.LogLevelDebug, logger.Level())
	logger.Debug("after")
	logger.DebugAttrs("attrs after", slog.Int("nodes", 6))
	require.NoError(t, logger.Close())

	content := readLogFile(t, logPath)
	assert.NotContains(t, content, "before")
	assert.Contains(t, content, "after")
	assert.Contains(t, content, "nodes=6")
}

func TestLogger_LineFormat(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)

	logger.Debug("submitted %q", "eth:0x1")
	require.NoError(t, logger.Close())

	line := strings.TrimSpace(readLogFile(t, logPath))
	// 2006-01-02 15:04:05.000 [DEBUG] submitted "eth:0x1"
	parts := strings.SplitN(line, " ", 4)
	require.Len(t, parts, 4)
	assert.Len(t, parts[0], len("2006-01-02"))
	assert.Len(t, parts[1], len("15:04:05.000"))
	assert.Equal(t, "[DEBUG]", parts[2])
	assert.Equal(t, `submitted "eth:0x1"`, parts[3])
}

func TestLogger_Writer(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelError, logPath)
	require.NoError(t, err)

	n, err := fmt.Fprintln(logger.Writer(config.LogLevelError), "  upstream returned 502  ")
	require.NoError(t, err)
	assert.Positive(t, n)
	_, _ = fmt.Fprintln(logger.Writer(config.LogLevelDebug), "filtered out")
	require.NoError(t, logger.Close())

	content := readLogFile(t, logPath)
	assert.Contains(t, content, "[ERROR] upstream returned 502\n")
	assert.NotContains(t, content, "filtered out")
}

func TestLogger_StructuredText(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)

	s := logger.Structured()
	require.NotNil(t, s)
	assert.Same(t, s, logger.Structured(), "the slog logger is cached")

	logger.DebugAttrs("check finished",
		slog.String("input", "eth:0x1"),
		slog.String("chainState", "ready"),
		slog.Int64("requests", 7),
	)
	logger.ErrorAttrs("check failed", slog.String("node", "safeInfo"))
	require.NoError(t, logger.Close())

	content := readLogFile(t, logPath)
	assert.Contains(t, content, "level=DEBUG")
	assert.Contains(t, content, `msg="check finished"`)
	assert.Contains(t, content, "input=eth:0x1")
	assert.Contains(t, content, "chainState=ready")
	assert.Contains(t, content, "requests=7")
	assert.Contains(t, content, "level=ERROR")
	assert.Contains(t, content, "node=safeInfo")
}

func TestNewStructuredLogger_JSON(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewStructuredLogger(config.LogLevelError, logPath)
	require.NoError(t, err)

	logger.DebugAttrs("dropped", slog.String("k", "v"))
	logger.ErrorAttrs("chain state failed", slog.String("code", "MISSING_AUTH_TOKEN"))
	require.NoError(t, logger.Close())

	lines := strings.Split(strings.TrimSpace(readLogFile(t, logPath)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "chain state failed", record["msg"])
	assert.Equal(t, "MISSING_AUTH_TOKEN", record["code"])
}

func TestNewStructuredLogger_InvalidPath(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := config.NewStructuredLogger(config.LogLevelDebug, filepath.Join(blocker, "x.log"))
	require.Error(t, err)
}

func TestLogger_SetJSONOutputResetsHandler(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)

	text := logger.Structured()
	logger.SetJSONOutput(true)
	jsonLogger := logger.Structured()
	assert.NotSame(t, text, jsonLogger)

	logger.DebugAttrs("as json", slog.Bool("ok", true))
	require.NoError(t, logger.Close())

	assert.Contains(t, readLogFile(t, logPath), `"msg":"as json"`)
}

func TestLogger_ConcurrentTransitions(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "safecheck.log")
	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)

	const writers = 6
	const perWriter = 50

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range perWriter {
				if j%2 == 0 {
					logger.Debug("node %d transition %d", id, j)
				} else {
					logger.DebugAttrs("transition", slog.Int("node", id), slog.Int("seq", j))
				}
			}
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	lines := strings.Split(strings.TrimSpace(readLogFile(t, logPath)), "\n")
	assert.Len(t, lines, writers*perWriter, "lines are never interleaved")
}

func readLogFile(t *testing.T, path string) string {
	t.Helper()
	// #nosec G304 -- test file path from t.TempDir
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
