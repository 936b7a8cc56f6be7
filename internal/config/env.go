package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variable names for overrides.
const (
	EnvConfig    = "LIFEGOAL_CONFIG"
	EnvDB        = "LIFEGOAL_DB"
	EnvRemoteURL = "LIFEGOAL_REMOTE_URL"
	EnvRemoteKey = "LIFEGOAL_REMOTE_KEY"
	EnvAIKey     = "GEMINI_API_KEY"
)

// dotenvFiles are read in order from the working directory. Earlier files
// win because godotenv never overrides a variable that is already set.
var dotenvFiles = []string{".env.local", ".env"}

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // LIFEGOAL_CONFIG: override config file path
	DBPath     string // LIFEGOAL_DB: database path
	RemoteURL  string // LIFEGOAL_REMOTE_URL: backend base URL
	RemoteKey  string // LIFEGOAL_REMOTE_KEY: backend anon key
	AIKey      string // GEMINI_API_KEY: generator credential
}

// LoadDotEnv loads .env.local then .env from dir into the process
// environment. Missing files are skipped; variables already set are kept.
func LoadDotEnv(dir string, logger *slog.Logger) error {
	for _, name := range dotenvFiles {
		path := filepath.Join(dir, name)

		err := godotenv.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("config: loading %s: %w", path, err)
		}

		logger.Debug("loaded environment file", slog.String("path", path))
	}

	return nil
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. It does not modify a Config; Resolve applies the fields.
func ReadEnvOverrides(logger *slog.Logger) EnvOverrides {
	o := EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		DBPath:     os.Getenv(EnvDB),
		RemoteURL:  os.Getenv(EnvRemoteURL),
		RemoteKey:  os.Getenv(EnvRemoteKey),
		AIKey:      os.Getenv(EnvAIKey),
	}

	if o.ConfigPath != "" {
		logger.Debug("config path from environment", slog.String("path", o.ConfigPath))
	}

	if o.RemoteURL != "" {
		logger.Debug("remote URL from environment", slog.String("url", o.RemoteURL))
	}

	return o
}
