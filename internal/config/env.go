package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome          = "SAFECHECK_HOME"
	EnvClientGateway = "SAFECHECK_CLIENT_GATEWAY"
	EnvAuthToken     = "SAFECHECK_AUTH_TOKEN" // #nosec G101 -- false positive, this is a const name not a credential
	EnvTokenBackend  = "SAFECHECK_TOKEN_BACKEND"
	EnvCheckTimeout  = "SAFECHECK_CHECK_TIMEOUT"
	EnvOutputFormat  = "SAFECHECK_OUTPUT_FORMAT"
	EnvVerbose       = "SAFECHECK_VERBOSE"
	EnvLogLevel      = "SAFECHECK_LOG_LEVEL"
	EnvNoColor       = "NO_COLOR"
)

// envKeys binds environment variables to config keys.
//
//nolint:gochecknoglobals // Static binding table
var envKeys = []struct {
	env string
	key string
}{
	{EnvHome, "home"},
	{EnvClientGateway, "services.client_gateway"},
	{EnvTokenBackend, "token.backend"},
	{EnvCheckTimeout, "check.timeout_seconds"},
	{EnvOutputFormat, "output.default_format"},
	{EnvVerbose, "output.verbose"},
	{EnvLogLevel, "logging.level"},
}

// ApplyEnvironment overlays environment variables onto cfg. Empty variables
// and values the key cannot parse are skipped; Validate catches values that
// parse but are out of range.
func ApplyEnvironment(cfg *Config) {
	for _, b := range envKeys {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			_ = cfg.Set(b.key, v)
		}
	}

	// The token is never persisted, so it has no config key.
	if v := os.Getenv(EnvAuthToken); v != "" {
		cfg.AuthToken = SanitizeToken(v)
	}

	// https://no-color.org: presence alone disables color.
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool accepts the usual spellings of on and off.
func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, true
	case "0", "f", "false", "n", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// SanitizeURL trims s and drops characters that cannot appear in a URL.
func SanitizeURL(s string) string {
	return sanitize.URL(strings.TrimSpace(s))
}

// SanitizeToken keeps only ASCII letters, digits, hyphens and underscores.
// The token is appended to RPC URLs verbatim.
func SanitizeToken(token string) string {
	return sanitize.PathName(strings.TrimSpace(token))
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
