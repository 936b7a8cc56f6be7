// Package tokenfile reads and writes the session file: the signed-in user's
// identity and the bearer token used for remote calls.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// FilePerms restricts session files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the session directory.
const DirPerms = 0o700

// Session is the on-disk format of a session file.
type Session struct {
	UserID string        `json:"user_id"`
	Email  string        `json:"email,omitempty"`
	Token  *oauth2.Token `json:"token"`
}

// Valid reports whether the session names a user and carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.UserID != "" && s.Token != nil && s.Token.AccessToken != ""
}

// Load reads a session file. Returns (nil, nil) if the file does not exist.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	if s.UserID == "" {
		return nil, fmt.Errorf("tokenfile: %s missing user_id (sign in again)", path)
	}

	if s.Token == nil {
		return nil, fmt.Errorf("tokenfile: %s missing token field (sign in again)", path)
	}

	return &s, nil
}

// Save writes a session file atomically (write-to-temp + rename) with 0600
// permissions. Never logs token values.
func Save(path string, s *Session) error {
	if !s.Valid() {
		return fmt.Errorf("tokenfile: refusing to save incomplete session")
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenfile: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenfile: creating directory %s: %w", dir, mkErr)
	}

	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenfile: renaming: %w", err)
	}

	success = true

	return nil
}

// Remove deletes the session file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenfile: removing %s: %w", path, err)
	}

	return nil
}
