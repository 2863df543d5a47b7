package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mrz1836/safecheck/internal/metrics"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

const (
	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20

	// maxErrorBody caps how much of an error response ends up in details.
	maxErrorBody = 512
)

// Request describes one JSON round trip to an upstream service.
type Request struct {
	Method string
	URL    string
	// Body is encoded as JSON when non-nil.
	Body any
	// Source replaces URL in error details. Set it when URL carries a secret.
	Source string
}

// GetJSON fetches rawURL and decodes the JSON response into out.
func GetJSON(ctx context.Context, client *http.Client, limiter *RateLimiter, rawURL string, out any) error {
	return Do(ctx, client, limiter, Request{Method: http.MethodGet, URL: rawURL}, out)
}

// Do performs req and decodes the JSON response into out (skipped when out is nil).
//
// Upstream failures are mapped onto error kinds: 404 is ErrNotFound, 429 is
// ErrRateLimited, any other non-2xx status or transport failure is
// ErrNetworkError, and an undecodable body is ErrInvalidResponse.
func Do(ctx context.Context, client *http.Client, limiter *RateLimiter, req Request, out any) (err error) {
	source := req.Source
	if source == "" {
		source = req.URL
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		payload, marshalErr := json.Marshal(req.Body)
		if marshalErr != nil {
			return fmt.Errorf("marshaling request: %w", marshalErr)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return failure(checkerr.ErrNetworkError, scrub(err, req), map[string]string{"url": source})
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	m := metrics.Global
	if limiter != nil {
		if waitErr := limiter.Wait(ctx, httpReq.URL.Host); waitErr != nil {
			return failure(checkerr.ErrNetworkError, waitErr, map[string]string{"url": source})
		}
		if limiter.metrics != nil {
			m = limiter.metrics
		}
	}

	start := time.Now()
	defer func() { m.RecordRequest(time.Since(start), err) }()

	resp, err := client.Do(httpReq) //nolint:gosec // G107: URL is built from upstream-provided service endpoints
	if err != nil {
		return failure(checkerr.ErrNetworkError, scrub(err, req), map[string]string{"url": source})
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return failure(checkerr.ErrNetworkError, err, map[string]string{"url": source})
	}

	status := fmt.Sprintf("%d", resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return failure(checkerr.ErrNotFound, nil, map[string]string{
			"url":    source,
			"status": status,
		})
	case resp.StatusCode == http.StatusTooManyRequests:
		details := map[string]string{"url": source, "status": status}
		if after := resp.Header.Get("Retry-After"); after != "" {
			details["retry_after"] = after
		}
		return failure(checkerr.ErrRateLimited, nil, details)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return failure(checkerr.ErrNetworkError, nil, map[string]string{
			"url":    source,
			"status": status,
			"body":   truncateBody(string(raw), maxErrorBody),
		})
	}

	if out == nil {
		return nil
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return failure(checkerr.ErrInvalidResponse, err, map[string]string{"url": source})
	}
	return nil
}

// failure builds an error of the given kind with an optional cause and details.
func failure(kind *checkerr.CheckError, cause error, details map[string]string) error {
	return checkerr.WithDetails(checkerr.WithCause(kind, cause), details)
}

// scrub drops the url.Error wrapper, which repeats the full request URL,
// when the request URL must not be reported.
func scrub(err error, req Request) error {
	var urlErr *url.Error
	if req.Source != "" && errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// truncateBody truncates a string to maxLen characters.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
