// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Upstream HTTP / JSON-RPC requests
	requestsTotal   atomic.Int64
	requestErrors   atomic.Int64
	requestLatency  atomic.Int64
	rateLimitWaits  atomic.Int64
	rateLimitWaitNs atomic.Int64

	mu    sync.RWMutex
	nodes map[string]*nodeCounters
}

// nodeCounters tracks the fetch lifecycle of one graph node.
type nodeCounters struct {
	started   atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	discarded atomic.Int64
	latencyNs atomic.Int64
}

// Global is the global metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRequest records an upstream request with its duration and outcome.
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.requestsTotal.Add(1)
	m.requestLatency.Add(duration.Nanoseconds())
	if err != nil {
		m.requestErrors.Add(1)
	}
}

// RecordRateLimitWait records time spent blocked on a rate limiter.
func (m *Metrics) RecordRateLimitWait(waited time.Duration) {
	if waited <= 0 {
		return
	}
	m.rateLimitWaits.Add(1)
	m.rateLimitWaitNs.Add(waited.Nanoseconds())
}

// RecordFetchStarted records a producer launch for a node.
func (m *Metrics) RecordFetchStarted(node string) {
	m.counters(node).started.Add(1)
}

// RecordFetchCompleted records a producer result that was accepted by the node.
func (m *Metrics) RecordFetchCompleted(node string, duration time.Duration, err error) {
	c := m.counters(node)
	c.latencyNs.Add(duration.Nanoseconds())
	if err != nil {
		c.failed.Add(1)
		return
	}
	c.succeeded.Add(1)
}

// RecordFetchDiscarded records a superseded producer result that was ignored.
func (m *Metrics) RecordFetchDiscarded(node string) {
	m.counters(node).discarded.Add(1)
}

func (m *Metrics) counters(node string) *nodeCounters {
	m.mu.RLock()
	c, ok := m.nodes[node]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.nodes == nil {
		m.nodes = make(map[string]*nodeCounters)
	}
	if c, ok = m.nodes[node]; ok {
		return c
	}
	c = &nodeCounters{}
	m.nodes[node] = c
	return c
}

// NodeSnapshot is a point-in-time copy of one node's counters.
type NodeSnapshot struct {
	Node         string  `json:"node"`
	Started      int64   `json:"started"`
	Succeeded    int64   `json:"succeeded"`
	Failed       int64   `json:"failed"`
	Discarded    int64   `json:"discarded"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RequestsTotal    int64          `json:"requests_total"`
	RequestErrors    int64          `json:"request_errors"`
	RequestLatencyMs float64        `json:"request_latency_avg_ms"`
	RateLimitWaits   int64          `json:"rate_limit_waits"`
	Nodes            []NodeSnapshot `json:"nodes,omitempty"`
}

// Snapshot returns a point-in-time copy of all metrics.
// Nodes are sorted by name.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		RequestsTotal:    m.requestsTotal.Load(),
		RequestErrors:    m.requestErrors.Load(),
		RequestLatencyMs: m.RequestLatencyAvgMs(),
		RateLimitWaits:   m.rateLimitWaits.Load(),
	}

	m.mu.RLock()
	for name, c := range m.nodes {
		ns := NodeSnapshot{
			Node:      name,
			Started:   c.started.Load(),
			Succeeded: c.succeeded.Load(),
			Failed:    c.failed.Load(),
			Discarded: c.discarded.Load(),
		}
		if done := ns.Succeeded + ns.Failed; done > 0 {
			ns.AvgLatencyMs = float64(c.latencyNs.Load()) / float64(done) / 1e6
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	m.mu.RUnlock()

	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Node < snap.Nodes[j].Node })
	return snap
}

// RequestsTotal returns the total number of upstream requests made.
func (m *Metrics) RequestsTotal() int64 {
	return m.requestsTotal.Load()
}

// RequestErrors returns the number of failed upstream requests.
func (m *Metrics) RequestErrors() int64 {
	return m.requestErrors.Load()
}

// RequestLatencyAvgMs returns the average request latency in milliseconds.
// Returns 0 if no requests have been made.
func (m *Metrics) RequestLatencyAvgMs() float64 {
	calls := m.requestsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.requestLatency.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.requestsTotal.Store(0)
	m.requestErrors.Store(0)
	m.requestLatency.Store(0)
	m.rateLimitWaits.Store(0)
	m.rateLimitWaitNs.Store(0)

	m.mu.Lock()
	m.nodes = nil
	m.mu.Unlock()
}
