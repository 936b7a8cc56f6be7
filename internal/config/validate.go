package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validation range constants.
const (
	minWorkers         = 1
	maxWorkers         = 64
	minInFlight        = 1
	maxInFlight        = 32
	minTimeout         = 1 * time.Second
	minFetchTimeout    = 100 * time.Millisecond
	minShutdownTimeout = 1 * time.Second
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"auto": true, "text": true, "json": true}
)

// Validate checks all configuration values and returns all errors found,
// so users can fix every issue in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateRemote(&cfg.Remote)...)
	errs = append(errs, validateAI(&cfg.AI)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateRemote(r *RemoteConfig) []error {
	var errs []error

	if r.URL != "" {
		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("remote.url: must be an http(s) URL, got %q", r.URL))
		}
	}

	if err := validateDuration("remote.timeout", r.Timeout, minTimeout); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("remote.fetch_timeout", r.FetchTimeout, minFetchTimeout); err != nil {
		errs = append(errs, err)
	}

	if r.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("remote.requests_per_second: must not be negative, got %g", r.RequestsPerSecond))
	}

	return errs
}

func validateAI(a *AIConfig) []error {
	var errs []error

	if a.Model == "" {
		errs = append(errs, errors.New("ai.model: must not be empty"))
	}

	if a.BaseURL != "" {
		if u, err := url.Parse(a.BaseURL); err != nil || u.Host == "" {
			errs = append(errs, fmt.Errorf("ai.base_url: must be an absolute URL, got %q", a.BaseURL))
		}
	}

	if err := validateDuration("ai.timeout", a.Timeout, minTimeout); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func validateSync(s *SyncConfig) []error {
	var errs []error

	if s.PropagationWorkers < minWorkers || s.PropagationWorkers > maxWorkers {
		errs = append(errs, fmt.Errorf("sync.propagation_workers: must be between %d and %d, got %d",
			minWorkers, maxWorkers, s.PropagationWorkers))
	}

	if s.MaxInFlight < minInFlight || s.MaxInFlight > maxInFlight {
		errs = append(errs, fmt.Errorf("sync.max_in_flight: must be between %d and %d, got %d",
			minInFlight, maxInFlight, s.MaxInFlight))
	}

	if err := validateDuration("sync.shutdown_timeout", s.ShutdownTimeout, minShutdownTimeout); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

func validateDuration(field, value string, floor time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}

	if d < floor {
		return fmt.Errorf("%s: must be at least %s, got %s", field, floor, value)
	}

	return nil
}

// durationOr parses value, returning fallback when it is empty or invalid.
// Validate has already rejected invalid values for loaded configs.
func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}

	return d
}

// TimeoutDuration returns the remote request timeout.
func (r RemoteConfig) TimeoutDuration() time.Duration {
	return durationOr(r.Timeout, 30*time.Second)
}

// FetchDuration returns the bound on reads made while the user waits,
// retries included.
func (r RemoteConfig) FetchDuration() time.Duration {
	return durationOr(r.FetchTimeout, 5*time.Second)
}

// TimeoutDuration returns the generator request timeout.
func (a AIConfig) TimeoutDuration() time.Duration {
	return durationOr(a.Timeout, time.Minute)
}

// ShutdownDuration returns how long exit waits for pending propagations.
func (s SyncConfig) ShutdownDuration() time.Duration {
	return durationOr(s.ShutdownTimeout, 10*time.Second)
}
