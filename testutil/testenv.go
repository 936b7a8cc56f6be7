// Package testutil provides shared environment helpers for E2E tests, which
// drive the built binary and cannot import internal/.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by the E2E suite.
const (
	EnvE2ERemoteURL   = "LIFEGOAL_E2E_REMOTE_URL"
	EnvE2ERemoteKey   = "LIFEGOAL_E2E_REMOTE_KEY"
	EnvE2EUser        = "LIFEGOAL_E2E_USER"
	EnvE2EToken       = "LIFEGOAL_E2E_TOKEN"
	EnvAllowedE2EUser = "LIFEGOAL_ALLOWED_TEST_USERS"
)

// LoadDotEnv loads KEY=VALUE pairs from envPath. A missing file is not an
// error (CI sets env vars directly) and existing env vars win.
func LoadDotEnv(envPath string) {
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARNING: reading %s: %v\n", envPath, err)
	}
}

// RemoteConfigured reports whether a live backend is configured for E2E.
func RemoteConfigured() bool {
	return os.Getenv(EnvE2ERemoteURL) != "" && os.Getenv(EnvE2EToken) != ""
}

// ValidateAllowlist crashes the process unless the E2E user is listed in
// LIFEGOAL_ALLOWED_TEST_USERS. The suite writes and deletes that user's
// data, so it must never run against a real account by accident.
func ValidateAllowlist() {
	allowlist := os.Getenv(EnvAllowedE2EUser)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", EnvAllowedE2EUser)
		fmt.Fprintf(os.Stderr, "Example: %s=e2e-user-1,e2e-user-2\n", EnvAllowedE2EUser)
		os.Exit(1)
	}

	user := os.Getenv(EnvE2EUser)
	if user == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", EnvE2EUser)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == user {
			return
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", EnvE2EUser, user, EnvAllowedE2EUser, allowlist)
	os.Exit(1)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
