// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for lifegoal-go. Values are layered:
// defaults -> config file -> environment -> CLI flags.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Storage StorageConfig `toml:"storage" json:"storage"`
	Remote  RemoteConfig  `toml:"remote" json:"remote"`
	AI      AIConfig      `toml:"ai" json:"ai"`
	Sync    SyncConfig    `toml:"sync" json:"sync"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
}

// StorageConfig locates the on-device database. An empty DBPath means the
// platform data directory.
type StorageConfig struct {
	DBPath      string `toml:"db_path" json:"db_path"`
	SessionPath string `toml:"session_path" json:"session_path"`
}

// RemoteConfig points at the hosted backend. With Enabled false or an empty
// URL the app runs local-only.
type RemoteConfig struct {
	Enabled           bool    `toml:"enabled" json:"enabled"`
	URL               string  `toml:"url" json:"url"`
	APIKey            string  `toml:"api_key" json:"api_key"`
	Timeout           string  `toml:"timeout" json:"timeout"`
	FetchTimeout      string  `toml:"fetch_timeout" json:"fetch_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// AIConfig configures the plan and advice generator. The API key only comes
// from the environment so it never lands in a config file by accident.
type AIConfig struct {
	Model   string `toml:"model" json:"model"`
	BaseURL string `toml:"base_url" json:"base_url"`
	Timeout string `toml:"timeout" json:"timeout"`
	APIKey  string `toml:"-" json:"-"`
}

// SyncConfig controls background propagation of committed changes.
type SyncConfig struct {
	PropagationWorkers int    `toml:"propagation_workers" json:"propagation_workers"`
	MaxInFlight        int    `toml:"max_in_flight" json:"max_in_flight"`
	Coalesce           bool   `toml:"coalesce" json:"coalesce"`
	ShutdownTimeout    string `toml:"shutdown_timeout" json:"shutdown_timeout"`
}

// LoggingConfig controls log output: level and format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level" json:"log_level"`
	LogFormat string `toml:"log_format" json:"log_format"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	DBPath     *string // --db flag
	Offline    *bool   // --offline flag
}
