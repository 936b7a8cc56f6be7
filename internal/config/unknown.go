package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys lists the valid keys of every section.
var knownKeys = map[string][]string{
	"storage": {"db_path", "session_path"},
	"remote":  {"enabled", "url", "api_key", "timeout", "fetch_timeout", "requests_per_second"},
	"ai":      {"model", "base_url", "timeout"},
	"sync":    {"propagation_workers", "max_in_flight", "coalesce", "shutdown_timeout"},
	"logging": {"log_level", "log_format"},
}

// knownSections is the sorted list of section names. Sorted for
// deterministic suggestions when two candidates have the same distance.
var knownSections = func() []string {
	out := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	seen := make(map[string]bool)

	for _, key := range md.Undecoded() {
		err := unknownKeyError(key)
		if err == nil || seen[err.Error()] {
			continue
		}

		seen[err.Error()] = true
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func unknownKeyError(key toml.Key) error {
	section := key[0]

	fields, ok := knownKeys[section]
	if !ok {
		return withSuggestion(fmt.Sprintf("unknown config section %q", section), section, knownSections)
	}

	if len(key) < 2 {
		return nil
	}

	return withSuggestion(fmt.Sprintf("unknown config key %q in [%s]", key[1], section), key[1], fields)
}

func withSuggestion(msg, unknown string, known []string) error {
	if s := closestMatch(unknown, known); s != "" {
		return fmt.Errorf("%s, did you mean %q?", msg, s)
	}

	return errors.New(msg)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Single-row optimization avoids allocating a full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
