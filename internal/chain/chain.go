// Package chain provides the HTTP plumbing shared by the upstream service
// clients: a hardened HTTP client, per-host rate limiting, and JSON round
// trips that map upstream failures onto the error kinds a check reports.
package chain

import (
	"crypto/tls"
	"net/http"
	"time"
)

const (
	// DefaultHTTPTimeout bounds a single upstream request.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRatePerSecond is the default per-host request rate.
	DefaultRatePerSecond = 5

	// DefaultBurst is the default per-host burst size.
	DefaultBurst = 10
)

// NewHTTPClient returns an HTTP client with the given timeout that refuses
// anything older than TLS 1.2. A non-positive timeout uses DefaultHTTPTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}
