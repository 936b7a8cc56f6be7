package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHome = "/home/testuser"

func TestDefaultConfigDir_NonEmpty(t *testing.T) {
	dir := DefaultConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultDataDir_NonEmpty(t *testing.T) {
	dir := DefaultDataDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultConfigPath_EndsWithConfigToml(t *testing.T) {
	path := DefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, "config.toml"))
}

func TestDefaultDataFiles(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	if runtime.GOOS == platformLinux {
		assert.Equal(t, "/custom/data/lifegoal-go/lifegoal.db", DefaultDBPath())
		assert.Equal(t, "/custom/data/lifegoal-go/session.json", DefaultSessionPath())

		return
	}

	assert.True(t, strings.HasSuffix(DefaultDBPath(), dbFileName))
	assert.True(t, strings.HasSuffix(DefaultSessionPath(), sessionFileName))
}

func TestDefaultConfigDir_MacOS(t *testing.T) {
	if runtime.GOOS != platformDarwin {
		t.Skip("macOS-only test")
	}

	dir := DefaultConfigDir()
	assert.Contains(t, dir, "Library/Application Support")
}

func TestLinuxConfigDir_XDGOverride(t *testing.T) {
	xdgDir := "/custom/config"

	t.Setenv("XDG_CONFIG_HOME", xdgDir)
	result := linuxConfigDir(testHome)
	assert.Equal(t, filepath.Join(xdgDir, appName), result)
}

func TestLinuxConfigDir_DefaultFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	os.Unsetenv("XDG_CONFIG_HOME")
	result := linuxConfigDir(testHome)
	assert.Equal(t, filepath.Join(testHome, ".config", appName), result)
}

func TestLinuxDataDir_XDGOverride(t *testing.T) {
	xdgDir := "/custom/data"

	t.Setenv("XDG_DATA_HOME", xdgDir)
	result := linuxDataDir(testHome)
	assert.Equal(t, filepath.Join(xdgDir, appName), result)
}

func TestLinuxDataDir_DefaultFallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	os.Unsetenv("XDG_DATA_HOME")
	result := linuxDataDir(testHome)
	assert.Equal(t, filepath.Join(testHome, ".local", "share", appName), result)
}
