package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/lifegoal-go/internal/config"
)

// testLogger returns a debug-level logger that writes to t.Log.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

// resetFlags restores the global flag vars after a test touches them.
func resetFlags(t *testing.T) {
	t.Helper()

	t.Cleanup(func() {
		flagConfigPath, flagDBPath = "", ""
		flagJSON, flagVerbose, flagDebug, flagQuiet, flagOffline = false, false, false, false, false
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelWarn},
		{"bogus", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestFlagLevel(t *testing.T) {
	resetFlags(t)

	assert.Equal(t, slog.LevelInfo, flagLevel(slog.LevelInfo), "no flags keeps the base level")

	flagVerbose = true
	assert.Equal(t, slog.LevelInfo, flagLevel(slog.LevelWarn))

	flagDebug = true
	assert.Equal(t, slog.LevelDebug, flagLevel(slog.LevelWarn), "--debug beats --verbose")

	flagQuiet = true
	assert.Equal(t, slog.LevelError, flagLevel(slog.LevelDebug), "--quiet beats everything")
}

func TestBuildLogger_ConfigLevel(t *testing.T) {
	resetFlags(t)

	cfg := config.DefaultConfig()
	cfg.Logging.LogLevel = "debug"
	cfg.Logging.LogFormat = "text"

	logger := buildLogger(cfg)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))

	flagQuiet = true
	logger = buildLogger(cfg)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelError))
}

func TestBootstrapLogger_DefaultsToWarn(t *testing.T) {
	resetFlags(t)

	logger := bootstrapLogger()
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestUseJSONLogs_Explicit(t *testing.T) {
	assert.True(t, useJSONLogs("json", 0))
	assert.False(t, useJSONLogs("text", 0))
}

func TestNewRootCmd_RegistersCommands(t *testing.T) {
	resetFlags(t)

	root := newRootCmd()

	for _, name := range []string{
		"goal", "habit", "task", "board", "memo", "plan", "advice", "timer",
		"undo", "redo", "shell", "status", "export", "history",
		"login", "logout", "whoami", "config",
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestMustCLIContext_PanicsWithoutContext(t *testing.T) {
	assert.Panics(t, func() { mustCLIContext(t.Context()) })

	cc := &CLIContext{Logger: testLogger(t)}
	assert.Same(t, cc, mustCLIContext(withCLIContext(t.Context(), cc)))
}
