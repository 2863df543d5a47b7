// Package graph implements a fixed dependency graph of asynchronous fetch nodes.
//
// Each node binds its inputs from upstream nodes, runs a producer in its own
// goroutine, and reports a tri-state status. Every state change happens inside
// one critical section: when a node changes, all of its dependents are
// re-evaluated (and cleared if their inputs are gone) before any newly
// required producer is launched. Results from superseded producers are
// discarded by a per-node generation counter.
package graph

import (
	"context"
	"sync"

	"github.com/mrz1836/safecheck/internal/metrics"
)

// Logger receives transition and failure logs.
type Logger interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Report is a type-erased view of a node's status.
type Report struct {
	Node       string
	State      State
	Value      any
	Err        error
	Generation uint64
}

// Options configures a Graph.
type Options struct {
	// Logger receives transition logs. Defaults to a no-op logger.
	Logger Logger
	// Metrics records fetch counters. Defaults to metrics.Global.
	Metrics *metrics.Metrics
}

// Graph owns a set of nodes and serializes all of their state changes.
type Graph struct {
	ctx     context.Context
	logger  Logger
	metrics *metrics.Metrics

	mu          sync.Mutex
	nodes       []Vertex
	pending     int
	queue       []Report
	subscribers map[int]func(Report)
	nextSubID   int
	settled     chan struct{}
	isSettled   bool

	// emitMu serializes delivery so subscribers see reports in commit order.
	emitMu sync.Mutex
}

// New creates an empty graph. Producers receive ctx.
func New(ctx context.Context, opts *Options) *Graph {
	g := &Graph{
		ctx:         ctx,
		logger:      nopLogger{},
		metrics:     metrics.Global,
		subscribers: make(map[int]func(Report)),
		settled:     make(chan struct{}),
		isSettled:   true,
	}
	close(g.settled)

	if opts != nil {
		if opts.Logger != nil {
			g.logger = opts.Logger
		}
		if opts.Metrics != nil {
			g.metrics = opts.Metrics
		}
	}

	return g
}

// Update applies fn to external inputs and re-evaluates roots, all inside one
// critical section. fn may be nil when only a re-run is wanted.
func (g *Graph) Update(fn func(), roots ...Vertex) {
	g.Apply(func() []Vertex {
		if fn != nil {
			fn()
		}
		return roots
	})
}

// Apply runs fn inside the critical section and re-evaluates the nodes it
// returns. Returning no nodes leaves the graph untouched.
func (g *Graph) Apply(fn func() []Vertex) {
	g.commit(func(c *cascade) {
		for _, root := range fn() {
			root.core().notify(c)
		}
	})
}

// Subscribe registers fn to receive every visible transition in commit order.
// fn runs on whichever goroutine committed the change and should return quickly.
//
// unsubscribe waits for any delivery in flight, so fn is never called after
// it returns. It must not be called from inside a subscriber.
func (g *Graph) Subscribe(fn func(Report)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextSubID
	g.nextSubID++
	g.subscribers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()

		g.emitMu.Lock()
		g.emitMu.Unlock() //nolint:staticcheck // barrier for in-flight delivery
	}
}

// Snapshot returns the status of every node in registration order.
func (g *Graph) Snapshot() []Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	reports := make([]Report, 0, len(g.nodes))
	for _, n := range g.nodes {
		reports = append(reports, n.core().report())
	}
	return reports
}

// Pending returns the number of nodes currently waiting on a producer.
func (g *Graph) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Wait blocks until no node is pending and all reports have been delivered,
// or until ctx is done. A producer that never returns keeps Wait blocked.
func (g *Graph) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.settled
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cascade collects producers to launch once a critical section has finished
// propagating.
type cascade struct {
	launches []launch
}

type launch struct {
	node Vertex
	gen  uint64
	run  func()
}

func (c *cascade) launch(node Vertex, gen uint64, run func()) {
	c.launches = append(c.launches, launch{node: node, gen: gen, run: run})
}

// commit runs fn under the graph lock, starts the producers it scheduled,
// and then delivers queued reports.
func (g *Graph) commit(fn func(c *cascade)) {
	c := &cascade{}

	g.mu.Lock()
	fn(c)

	if g.pending > 0 && g.isSettled {
		g.settled = make(chan struct{})
		g.isSettled = false
	}

	// Every dependent has been cleared by now; only launch producers whose
	// node has not been re-triggered later in the same cascade.
	for _, l := range c.launches {
		if l.node.core().gen == l.gen {
			go l.run()
		}
	}
	g.mu.Unlock()

	g.dispatch()
}

// dispatch drains the report queue. If another goroutine is already
// draining, it will pick up this goroutine's reports.
func (g *Graph) dispatch() {
	for {
		if !g.emitMu.TryLock() {
			return
		}
		g.drain()
		g.emitMu.Unlock()

		g.mu.Lock()
		empty := len(g.queue) == 0
		if empty && g.pending == 0 && !g.isSettled {
			close(g.settled)
			g.isSettled = true
		}
		g.mu.Unlock()

		if empty {
			return
		}
	}
}

func (g *Graph) drain() {
	for {
		g.mu.Lock()
		batch := g.queue
		g.queue = nil
		subs := make([]func(Report), 0, len(g.subscribers))
		for id := 0; id < g.nextSubID; id++ {
			if fn, ok := g.subscribers[id]; ok {
				subs = append(subs, fn)
			}
		}
		g.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, r := range batch {
			for _, fn := range subs {
				fn(r)
			}
		}
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
