// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by this package.
const (
	EnvConfig      = "KAGI_CONFIG"
	EnvSession     = "KAGI_SESSION"
	EnvSessionFile = "KAGI_SESSION_FILE"
)

// Formats accepted for defaults.format and --format.
var Formats = []string{"console", "json", "md", "csv"}

// Config is the CLI configuration.
type Config struct {
	// Session is the kagi_session cookie value. Prefer KAGI_SESSION or
	// the session file written by kagi login over storing it here.
	Session string `yaml:"session"`

	// SessionFile overrides where kagi login saves the session.
	SessionFile string `yaml:"session_file"`

	// Endpoints override the upstream URLs. Empty fields keep the
	// built-in defaults.
	Endpoints EndpointsConfig `yaml:"endpoints"`

	Timeouts TimeoutsConfig `yaml:"timeouts"`

	// RefreshMargin is how long before expiry a bearer token is
	// replaced.
	RefreshMargin Duration `yaml:"refresh_margin"`

	UserAgent string `yaml:"user_agent"`

	// TokenCache keeps minted tokens on disk between runs.
	TokenCache bool `yaml:"token_cache"`

	Defaults DefaultsConfig `yaml:"defaults"`
}

// EndpointsConfig overrides upstream URLs.
type EndpointsConfig struct {
	Auth      string `yaml:"auth"`
	Proofread string `yaml:"proofread"`
	Summarize string `yaml:"summarize"`
	Assistant string `yaml:"assistant"`
	Search    string `yaml:"search"`
}

// TimeoutsConfig bounds network waits. Zero disables a bound.
type TimeoutsConfig struct {
	// FirstByte bounds the wait for response headers.
	FirstByte Duration `yaml:"first_byte"`

	// Idle bounds the gap between stream events.
	Idle Duration `yaml:"idle"`

	// Refresh bounds a whole token refresh.
	Refresh Duration `yaml:"refresh"`
}

// DefaultsConfig holds per-command flag defaults. Empty fields leave
// the command's own default in place.
type DefaultsConfig struct {
	Format    string            `yaml:"format"`
	Proofread ProofreadDefaults `yaml:"proofread"`
	Summarize SummarizeDefaults `yaml:"summarize"`
	Ask       AskDefaults       `yaml:"ask"`
}

type ProofreadDefaults struct {
	Language  string `yaml:"language"`
	Style     string `yaml:"style"`
	Level     string `yaml:"level"`
	Formality string `yaml:"formality"`
	Model     string `yaml:"model"`
}

type SummarizeDefaults struct {
	Type     string `yaml:"type"`
	Language string `yaml:"language"`
}

type AskDefaults struct {
	Model string `yaml:"model"`
}

// Duration is a time.Duration that reads from YAML as either a Go
// duration string ("90s", "5m") or a bare number of seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if seconds, err := strconv.ParseFloat(value.Value, 64); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Timeouts: TimeoutsConfig{
			FirstByte: Duration(10 * time.Second),
			Idle:      Duration(300 * time.Second),
			Refresh:   Duration(30 * time.Second),
		},
		RefreshMargin: Duration(60 * time.Second),
		TokenCache:    true,
		Defaults:      DefaultsConfig{Format: "console"},
	}
}

// Path returns the configuration file location and whether it was
// chosen explicitly through KAGI_CONFIG.
func Path() (string, bool, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		return path, true, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false, fmt.Errorf("locating configuration directory: %w", err)
	}
	return filepath.Join(dir, "kagi", "config.yaml"), false, nil
}

// Load loads the file named by [Path]. The default location may be
// absent; an explicit KAGI_CONFIG may not.
func Load() (*Config, error) {
	path, explicit, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		cfg = Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return cfg, err
}

// LoadFile loads configuration from path over [Default], expands
// variables and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile merges path into c. JSON is a subset of YAML, so JSONC is
// normalised to JSON and read by the same decoder.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// LoadDotenv loads .env files into the process environment. Variables
// already set are not overridden. Missing files are skipped unless
// required.
func LoadDotenv(required bool, paths ...string) error {
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) && !required {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for name, value := range values {
			if _, set := os.LookupEnv(name); set {
				continue
			}
			if err := os.Setenv(name, value); err != nil {
				return fmt.Errorf("setting %s from %s: %w", name, path, err)
			}
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in every string
// value.
func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Session,
		&c.SessionFile,
		&c.Endpoints.Auth,
		&c.Endpoints.Proofread,
		&c.Endpoints.Summarize,
		&c.Endpoints.Assistant,
		&c.Endpoints.Search,
		&c.UserAgent,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	for name, endpoint := range map[string]string{
		"endpoints.auth":      c.Endpoints.Auth,
		"endpoints.proofread": c.Endpoints.Proofread,
		"endpoints.summarize": c.Endpoints.Summarize,
		"endpoints.assistant": c.Endpoints.Assistant,
		"endpoints.search":    c.Endpoints.Search,
	} {
		if endpoint == "" {
			continue
		}
		parsed, err := url.Parse(endpoint)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, endpoint))
		}
	}

	if c.RefreshMargin <= 0 {
		errs = append(errs, fmt.Errorf("refresh_margin must be positive, got %s", c.RefreshMargin))
	}
	for name, timeout := range map[string]Duration{
		"timeouts.first_byte": c.Timeouts.FirstByte,
		"timeouts.idle":       c.Timeouts.Idle,
		"timeouts.refresh":    c.Timeouts.Refresh,
	} {
		if timeout < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, timeout))
		}
	}

	if c.Defaults.Format != "" && !slices.Contains(Formats, c.Defaults.Format) {
		errs = append(errs, fmt.Errorf("defaults.format must be one of: %v", Formats))
	}

	return errors.Join(errs...)
}

// SessionFilePath is where kagi login saves the session cookie:
// $KAGI_SESSION_FILE, then session_file, then "session" beside the
// default configuration file.
func (c *Config) SessionFilePath() (string, error) {
	if path := os.Getenv(EnvSessionFile); path != "" {
		return path, nil
	}
	if c.SessionFile != "" {
		return c.SessionFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating configuration directory: %w", err)
	}
	return filepath.Join(dir, "kagi", "session"), nil
}
