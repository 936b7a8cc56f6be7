package tokenfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLoad_FileNotFound(t *testing.T) {
	s, err := Load("/nonexistent/path/session.json")
	assert.Nil(t, s)
	assert.NoError(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	expiry := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	original := &Session{
		UserID: "u-123",
		Email:  "ada@example.com",
		Token: &oauth2.Token{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			TokenType:    "Bearer",
			Expiry:       expiry,
		},
	}

	require.NoError(t, Save(path, original))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "u-123", s.UserID)
	assert.Equal(t, "ada@example.com", s.Email)
	assert.Equal(t, "access-123", s.Token.AccessToken)
	assert.Equal(t, "refresh-456", s.Token.RefreshToken)
	assert.True(t, s.Token.Expiry.Equal(expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoad_MissingFields(t *testing.T) {
	dir := t.TempDir()

	noUser := filepath.Join(dir, "no-user.json")
	require.NoError(t, os.WriteFile(noUser, []byte(`{"token":{"access_token":"x"}}`), 0o600))

	_, err := Load(noUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing user_id")

	noToken := filepath.Join(dir, "no-token.json")
	require.NoError(t, os.WriteFile(noToken, []byte(`{"user_id":"u"}`), 0o600))

	_, err = Load(noToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing token field")
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RejectsIncompleteSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	assert.Error(t, Save(path, nil))
	assert.Error(t, Save(path, &Session{UserID: "u"}))
	assert.Error(t, Save(path, &Session{Token: &oauth2.Token{AccessToken: "x"}}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, Save(path, &Session{UserID: "u", Token: &oauth2.Token{AccessToken: "x"}}))

	require.NoError(t, Remove(path))
	require.NoError(t, Remove(path))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, s)
}
