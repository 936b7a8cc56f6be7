package config

import (
	"encoding/json"
	"fmt"
	"io"
)

// redacted replaces secrets in rendered output.
const redacted = "********"

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers "config show".
func RenderEffective(cfg *Config, path string, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", path)

	ew.printf("[storage]\n")
	ew.printf("  db_path      = %q\n", cfg.Storage.DBPath)
	ew.printf("  session_path = %q\n", cfg.Storage.SessionPath)
	ew.printf("\n")

	ew.printf("[remote]\n")
	ew.printf("  enabled             = %t\n", cfg.Remote.Enabled)
	ew.printf("  url                 = %q\n", cfg.Remote.URL)
	ew.printf("  api_key             = %q\n", mask(cfg.Remote.APIKey))
	ew.printf("  timeout             = %q\n", cfg.Remote.Timeout)
	ew.printf("  fetch_timeout       = %q\n", cfg.Remote.FetchTimeout)
	ew.printf("  requests_per_second = %g\n", cfg.Remote.RequestsPerSecond)
	ew.printf("\n")

	ew.printf("[ai]\n")
	ew.printf("  model    = %q\n", cfg.AI.Model)
	ew.printf("  base_url = %q\n", cfg.AI.BaseURL)
	ew.printf("  timeout  = %q\n", cfg.AI.Timeout)
	ew.printf("  # api key %s\n", keyState(cfg.AI.APIKey))
	ew.printf("\n")

	ew.printf("[sync]\n")
	ew.printf("  propagation_workers = %d\n", cfg.Sync.PropagationWorkers)
	ew.printf("  max_in_flight       = %d\n", cfg.Sync.MaxInFlight)
	ew.printf("  coalesce            = %t\n", cfg.Sync.Coalesce)
	ew.printf("  shutdown_timeout    = %q\n", cfg.Sync.ShutdownTimeout)
	ew.printf("\n")

	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", cfg.Logging.LogLevel)
	ew.printf("  log_format = %q\n", cfg.Logging.LogFormat)

	return ew.err
}

// RenderJSON writes the resolved configuration as indented JSON with
// secrets redacted.
func RenderJSON(cfg *Config, w io.Writer) error {
	out := *cfg
	out.Remote.APIKey = mask(out.Remote.APIKey)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return redacted
}

func keyState(key string) string {
	if key == "" {
		return "not set (" + EnvAIKey + ")"
	}

	return "set from " + EnvAIKey
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
