package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_UnknownSection(t *testing.T) {
	path := writeTestConfig(t, "[loging]\nlog_level = \"info\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config section "loging"`)
	assert.Contains(t, err.Error(), `did you mean "logging"`)
}

func TestLoad_UnknownKey_InSection(t *testing.T) {
	path := writeTestConfig(t, "[sync]\nmax_inflight = 2\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "max_inflight" in [sync]`)
	assert.Contains(t, err.Error(), "max_in_flight")
}

func TestLoad_UnknownKey_NoSuggestion(t *testing.T) {
	path := writeTestConfig(t, "[remote]\ncompletely_unrelated_key = true\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLoad_UnknownTopLevelKey(t *testing.T) {
	path := writeTestConfig(t, "verbose = true\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config section "verbose"`)
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"log_levl", "log_level", 1},
		{"max_inflight", "max_in_flight", 1},
		{"completely_different", "xyz", 19},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, levenshtein(tt.a, tt.b))
		})
	}
}

func TestClosestMatch(t *testing.T) {
	assert.Equal(t, "db_path", closestMatch("dbpath", knownKeys["storage"]))
	assert.Equal(t, "", closestMatch("completely_unrelated", knownKeys["storage"]))
}
