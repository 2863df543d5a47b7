package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrz1836/safecheck/internal/metrics"
)

// RateLimiter keeps one token bucket per upstream host, so a slow RPC node
// never starves gateway or transaction service lookups.
type RateLimiter struct {
	buckets   sync.Map // host -> *rate.Limiter
	perSecond rate.Limit
	burst     int
	metrics   *metrics.Metrics
}

// NewRateLimiter returns a limiter admitting ratePerSecond requests per host
// with bursts of up to burst.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		perSecond: rate.Limit(ratePerSecond),
		burst:     burst,
		metrics:   metrics.Global,
	}
}

// DefaultRateLimiter uses DefaultRatePerSecond and DefaultBurst.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRatePerSecond, DefaultBurst)
}

// WithMetrics directs wait accounting to m instead of metrics.Global.
func (r *RateLimiter) WithMetrics(m *metrics.Metrics) *RateLimiter {
	r.metrics = m
	return r
}

// Allow reports whether a request to host may go out now, consuming a token
// if so.
func (r *RateLimiter) Allow(host string) bool {
	return r.bucket(host).Allow()
}

// Wait blocks until host has a token or ctx is done. Only completed waits
// are recorded in metrics.
func (r *RateLimiter) Wait(ctx context.Context, host string) error {
	res := r.bucket(host).Reserve()
	if !res.OK() {
		return fmt.Errorf("rate limiter for %s admits no requests (burst %d)", host, r.burst)
	}

	delay := res.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	case <-timer.C:
	}

	if r.metrics != nil {
		r.metrics.RecordRateLimitWait(delay)
	}
	return nil
}

func (r *RateLimiter) bucket(host string) *rate.Limiter {
	if b, ok := r.buckets.Load(host); ok {
		return b.(*rate.Limiter) //nolint:forcetypeassert // only *rate.Limiter is stored
	}
	b, _ := r.buckets.LoadOrStore(host, rate.NewLimiter(r.perSecond, r.burst))
	return b.(*rate.Limiter) //nolint:forcetypeassert // only *rate.Limiter is stored
}
