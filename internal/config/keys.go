package config

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// MaxKeyDistance is the largest edit distance for which an unknown key
// still gets a suggestion.
const MaxKeyDistance = 4

// field reads and writes one dot-path setting.
type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

//nolint:gochecknoglobals // Static key table
var fields = map[string]field{
	"home": {
		get: func(c *Config) string { return c.Home },
		set: func(c *Config, v string) error { c.Home = v; return nil },
	},
	"services.client_gateway": {
		get: func(c *Config) string { return c.Services.ClientGateway },
		set: func(c *Config, v string) error { c.Services.ClientGateway = SanitizeURL(v); return nil },
	},
	"http.timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.HTTP.TimeoutSeconds) },
		set: intSetter("http.timeout_seconds", func(c *Config, n int) { c.HTTP.TimeoutSeconds = n }),
	},
	"http.rate_per_second": {
		get: func(c *Config) string { return ftoa(c.HTTP.RatePerSecond) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return invalidValue("http.rate_per_second", v, "number")
			}
			c.HTTP.RatePerSecond = f
			return nil
		},
	},
	"http.burst": {
		get: func(c *Config) string { return strconv.Itoa(c.HTTP.Burst) },
		set: intSetter("http.burst", func(c *Config, n int) { c.HTTP.Burst = n }),
	},
	"check.timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.Check.TimeoutSeconds) },
		set: intSetter("check.timeout_seconds", func(c *Config, n int) { c.Check.TimeoutSeconds = n }),
	},
	"token.backend": {
		get: func(c *Config) string { return c.Token.Backend },
		set: func(c *Config, v string) error { c.Token.Backend = strings.ToLower(v); return nil },
	},
	"token.file": {
		get: func(c *Config) string { return c.Token.File },
		set: func(c *Config, v string) error { c.Token.File = v; return nil },
	},
	"output.default_format": {
		get: func(c *Config) string { return c.Output.DefaultFormat },
		set: func(c *Config, v string) error { c.Output.DefaultFormat = strings.ToLower(v); return nil },
	},
	"output.color": {
		get: func(c *Config) string { return c.Output.Color },
		set: func(c *Config, v string) error { c.Output.Color = strings.ToLower(v); return nil },
	},
	"output.verbose": {
		get: func(c *Config) string { return strconv.FormatBool(c.Output.Verbose) },
		set: func(c *Config, v string) error {
			b, ok := parseBool(v)
			if !ok {
				return invalidValue("output.verbose", v, "boolean")
			}
			c.Output.Verbose = b
			return nil
		},
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = strings.ToLower(v); return nil },
	},
	"logging.file": {
		get: func(c *Config) string { return c.Logging.File },
		set: func(c *Config, v string) error { c.Logging.File = v; return nil },
	},
}

// Keys returns every settable dot path in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value at a dot path such as "output.color".
func (c *Config) Get(path string) (string, error) {
	f, ok := fields[path]
	if !ok {
		return "", unknownKey(path)
	}
	return f.get(c), nil
}

// Set assigns the value at a dot path. The result is not validated; call
// Validate before saving.
func (c *Config) Set(path, value string) error {
	f, ok := fields[path]
	if !ok {
		return unknownKey(path)
	}
	return f.set(c, value)
}

// SuggestKey returns the known key closest to path, or "" when nothing is
// within MaxKeyDistance.
func SuggestKey(path string) string {
	path = strings.ToLower(strings.TrimSpace(path))

	minDist := math.MaxInt
	var suggestion string
	for _, key := range Keys() {
		dist := levenshtein.ComputeDistance(path, key)
		if dist < minDist {
			minDist = dist
			suggestion = key
		}
	}

	if minDist <= MaxKeyDistance {
		return suggestion
	}
	return ""
}

func unknownKey(path string) error {
	err := checkerr.WithDetails(checkerr.ErrUnknownConfigKey, map[string]string{"key": path})
	if s := SuggestKey(path); s != "" {
		return checkerr.WithSuggestion(err, "did you mean '"+s+"'?")
	}
	return checkerr.WithSuggestion(err, "valid keys: "+strings.Join(Keys(), ", "))
}

func invalidValue(key, value, expected string) error {
	return checkerr.WithDetails(checkerr.ErrInvalidFormat, map[string]string{
		"key":      key,
		"value":    value,
		"expected": expected,
	})
}

func intSetter(key string, assign func(c *Config, n int)) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return invalidValue(key, v, "integer")
		}
		assign(c, n)
		return nil
	}
}
