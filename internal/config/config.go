// Package config provides configuration management for safecheck.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/safecheck/internal/fileutil"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Token storage backends.
const (
	TokenBackendFile    = "file"
	TokenBackendKeyring = "keyring"
	// TokenBackendAuto uses the keyring when it works and the file otherwise.
	TokenBackendAuto = "auto"
)

// Config represents the application configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Home     string         `yaml:"home"`
	Services ServicesConfig `yaml:"services"`
	HTTP     HTTPConfig     `yaml:"http"`
	Check    CheckConfig    `yaml:"check"`
	Token    TokenConfig    `yaml:"token"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`

	// AuthToken comes from the environment only and is never written to disk.
	AuthToken string `yaml:"-"`
}

// ServicesConfig defines upstream service endpoints.
type ServicesConfig struct {
	ClientGateway string `yaml:"client_gateway"`
}

// HTTPConfig defines shared transport settings.
type HTTPConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

// CheckConfig defines how long a check may run before giving up.
type CheckConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// TokenConfig defines where the RPC auth token is persisted.
type TokenConfig struct {
	Backend string `yaml:"backend"`
	File    string `yaml:"file"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file. Missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, checkerr.WithDetails(checkerr.WithCause(checkerr.ErrConfigInvalid, err), map[string]string{
			"path": path,
		})
	}

	return cfg, nil
}

// LoadOrDefault reads the config at path, falling back to defaults when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the config file path inside home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default safecheck home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".safecheck"
	}
	return filepath.Join(home, ".safecheck")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}

// HTTPTimeout returns the per-request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// CheckTimeout returns how long a check may wait to settle. Zero means no limit.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.Check.TimeoutSeconds) * time.Second
}

// TokenFile returns the token file path, resolved against home when unset.
func (c *Config) TokenFile() string {
	if c.Token.File != "" {
		return c.Token.File
	}
	return filepath.Join(c.Home, "token.yaml")
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	invalid := func(key, value, expected string) error {
		return checkerr.WithSuggestion(
			checkerr.WithDetails(checkerr.ErrConfigInvalid, map[string]string{
				"key":   key,
				"value": value,
			}),
			"expected "+expected,
		)
	}

	switch c.Output.DefaultFormat {
	case "text", "json", "auto":
	default:
		return invalid("output.default_format", c.Output.DefaultFormat, "text, json or auto")
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return invalid("output.color", c.Output.Color, "auto, always or never")
	}
	switch c.Token.Backend {
	case TokenBackendFile, TokenBackendKeyring, TokenBackendAuto:
	default:
		return invalid("token.backend", c.Token.Backend, "file, keyring or auto")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "off", "none", "error", "debug":
	default:
		return invalid("logging.level", c.Logging.Level, "off, error or debug")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return invalid("http.timeout_seconds", itoa(c.HTTP.TimeoutSeconds), "a positive number of seconds")
	}
	if c.HTTP.RatePerSecond <= 0 {
		return invalid("http.rate_per_second", ftoa(c.HTTP.RatePerSecond), "a positive rate")
	}
	if c.HTTP.Burst <= 0 {
		return invalid("http.burst", itoa(c.HTTP.Burst), "a positive burst size")
	}
	if c.Check.TimeoutSeconds < 0 {
		return invalid("check.timeout_seconds", itoa(c.Check.TimeoutSeconds), "zero or a positive number of seconds")
	}
	if c.Services.ClientGateway == "" {
		return invalid("services.client_gateway", "", "a gateway URL")
	}
	return nil
}
