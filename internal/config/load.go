package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal and come with "did you mean?"
// suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain
// defaults -> config file -> environment -> CLI flags. It returns the
// effective config and the config file path that was consulted.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Config, string, error) {
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, cfgPath, err
	}

	if env.DBPath != "" {
		cfg.Storage.DBPath = env.DBPath
	}

	if env.RemoteURL != "" {
		cfg.Remote.URL = env.RemoteURL
	}

	if env.RemoteKey != "" {
		cfg.Remote.APIKey = env.RemoteKey
	}

	cfg.AI.APIKey = env.AIKey

	if cli.DBPath != nil {
		cfg.Storage.DBPath = *cli.DBPath
	}

	if cli.Offline != nil && *cli.Offline {
		cfg.Remote.Enabled = false
	}

	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = DefaultDBPath()
	}

	if cfg.Storage.SessionPath == "" {
		cfg.Storage.SessionPath = DefaultSessionPath()
	}

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, fmt.Errorf("config validation: %w", err)
	}

	logger.Debug("config resolved",
		slog.String("path", cfgPath),
		slog.String("db", cfg.Storage.DBPath),
		slog.Bool("remote", cfg.RemoteActive()),
	)

	return cfg, cfgPath, nil
}

// RemoteActive reports whether the backend should be used.
func (c *Config) RemoteActive() bool {
	return c.Remote.Enabled && c.Remote.URL != ""
}
