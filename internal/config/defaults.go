package config

import (
	"github.com/tonimelisma/lifegoal-go/internal/ai"
	"github.com/tonimelisma/lifegoal-go/internal/propagate"
)

// Default values for configuration options.
const (
	defaultRemoteTimeout     = "30s"
	defaultFetchTimeout      = "5s"
	defaultRequestsPerSecond = 10
	defaultAITimeout         = "60s"
	defaultShutdownTimeout   = "10s"
	defaultLogLevel          = "warn"
	defaultLogFormat         = "auto"
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			Enabled:           true,
			Timeout:           defaultRemoteTimeout,
			FetchTimeout:      defaultFetchTimeout,
			RequestsPerSecond: defaultRequestsPerSecond,
		},
		AI: AIConfig{
			Model:   ai.DefaultModel,
			BaseURL: ai.DefaultBaseURL,
			Timeout: defaultAITimeout,
		},
		Sync: SyncConfig{
			PropagationWorkers: propagate.DefaultWorkers,
			MaxInFlight:        propagate.DefaultMaxInFlight,
			ShutdownTimeout:    defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
	}
}
