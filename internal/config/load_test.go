package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeTestConfig(t, `
[storage]
db_path = "/tmp/lifegoal.db"

[remote]
enabled = true
url = "https://abc.supabase.co"
api_key = "anon"
timeout = "15s"
requests_per_second = 2.5

[ai]
model = "gemini-pro"
timeout = "20s"

[sync]
propagation_workers = 2
max_in_flight = 1
coalesce = true
shutdown_timeout = "3s"

[logging]
log_level = "debug"
log_format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/lifegoal.db", cfg.Storage.DBPath)
	assert.Equal(t, "https://abc.supabase.co", cfg.Remote.URL)
	assert.Equal(t, "anon", cfg.Remote.APIKey)
	assert.InDelta(t, 2.5, cfg.Remote.RequestsPerSecond, 0)
	assert.Equal(t, "gemini-pro", cfg.AI.Model)
	assert.Equal(t, 2, cfg.Sync.PropagationWorkers)
	assert.Equal(t, 1, cfg.Sync.MaxInFlight)
	assert.True(t, cfg.Sync.Coalesce)
	assert.Equal(t, "json", cfg.Logging.LogFormat)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeTestConfig(t, "[logging]\nlog_level = \"info\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, "auto", cfg.Logging.LogFormat)
	assert.Equal(t, 8, cfg.Sync.PropagationWorkers)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, "[remote\nurl = ")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeTestConfig(t, "[sync]\nmax_in_flight = 0\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.max_in_flight")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolve_Layering(t *testing.T) {
	path := writeTestConfig(t, `
[storage]
db_path = "/from/file.db"

[remote]
url = "https://file.example"
`)

	env := EnvOverrides{
		ConfigPath: path,
		RemoteURL:  "https://env.example",
		RemoteKey:  "env-key",
		AIKey:      "gemini-key",
	}
	db := "/from/flag.db"

	cfg, used, err := Resolve(env, CLIOverrides{DBPath: &db}, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, path, used)
	assert.Equal(t, "/from/flag.db", cfg.Storage.DBPath)
	assert.Equal(t, "https://env.example", cfg.Remote.URL)
	assert.Equal(t, "env-key", cfg.Remote.APIKey)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.NotEmpty(t, cfg.Storage.SessionPath)
	assert.True(t, cfg.RemoteActive())
}

func TestResolve_CLIConfigPathWins(t *testing.T) {
	envPath := writeTestConfig(t, "[logging]\nlog_level = \"debug\"\n")
	cliPath := writeTestConfig(t, "[logging]\nlog_level = \"error\"\n")

	cfg, used, err := Resolve(EnvOverrides{ConfigPath: envPath}, CLIOverrides{ConfigPath: cliPath}, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, cliPath, used)
	assert.Equal(t, "error", cfg.Logging.LogLevel)
}

func TestResolve_Offline(t *testing.T) {
	offline := true

	cfg, _, err := Resolve(
		EnvOverrides{ConfigPath: filepath.Join(t.TempDir(), "none.toml"), RemoteURL: "https://x.example"},
		CLIOverrides{Offline: &offline},
		testLogger(t),
	)
	require.NoError(t, err)
	assert.False(t, cfg.RemoteActive())
}

func TestResolve_BadFile(t *testing.T) {
	path := writeTestConfig(t, "[remot]\nurl = \"x\"\n")

	_, _, err := Resolve(EnvOverrides{ConfigPath: path}, CLIOverrides{}, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "remote"`)
}

func TestRenderEffective_RedactsRemoteAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remote.URL = "https://abc.supabase.co"
	cfg.Remote.APIKey = "super-secret"

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, "/etc/config.toml", &buf))

	out := buf.String()
	assert.Contains(t, out, "[remote]")
	assert.Contains(t, out, "https://abc.supabase.co")
	assert.Contains(t, out, redacted)
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, "not set (GEMINI_API_KEY)")
}

func TestRenderJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remote.APIKey = "super-secret"
	cfg.AI.APIKey = "gemini-secret"

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(cfg, &buf))

	assert.NotContains(t, buf.String(), "secret")

	var decoded Config
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, cfg.Sync, decoded.Sync)
	assert.Equal(t, redacted, decoded.Remote.APIKey)
	assert.Equal(t, "super-secret", cfg.Remote.APIKey, "input is not modified")
}
