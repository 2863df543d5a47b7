package graph

import (
	"context"
	"fmt"
	"time"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// State is the lifecycle state of a node.
type State int

// Node states.
const (
	StateIdle State = iota
	StatePending
	StateReady
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is the observable state of a node.
// Value is only meaningful when State is StateReady, Err only when StateFailed.
type Status[T any] struct {
	State State
	Value T
	Err   error
}

// Producer performs one fetch for a node.
type Producer[T any] func(ctx context.Context) (T, error)

// BindFunc snapshots a node's inputs and returns the producer to run.
// It returns false when a required input is not ready, which leaves the node idle.
// BindFuncs run inside the graph's critical section and must not block.
type BindFunc[T any] func() (Producer[T], bool)

// Vertex is a node of any value type.
type Vertex interface {
	Name() string
	core() *core
}

// core holds the type-independent bookkeeping of a node.
type core struct {
	name     string
	state    State
	gen      uint64
	children []Vertex

	notify func(c *cascade)
	report func() Report
}

// Node is a fetch node producing values of type T.
type Node[T any] struct {
	c      core
	graph  *Graph
	bind   BindFunc[T]
	status Status[T]
}

// Add registers a node whose inputs are read by bind and which depends on deps.
// Dependencies must already be registered, so the graph is acyclic by construction.
func Add[T any](g *Graph, name string, bind BindFunc[T], deps ...Vertex) *Node[T] {
	n := &Node[T]{
		c:     core{name: name},
		graph: g,
		bind:  bind,
	}
	n.c.notify = n.notifyInputsChanged
	n.c.report = n.snapshot

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, dep := range deps {
		parent := dep.core()
		parent.children = append(parent.children, n)
	}
	g.nodes = append(g.nodes, n)

	return n
}

// Name returns the node name.
func (n *Node[T]) Name() string {
	return n.c.name
}

func (n *Node[T]) core() *core {
	return &n.c
}

// Status returns the current status of the node.
func (n *Node[T]) Status() Status[T] {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.status
}

// Resolved returns the node's value if it is ready.
// It does not lock and is meant to be called from a BindFunc.
func Resolved[T any](n *Node[T]) (T, bool) {
	if n.status.State != StateReady {
		var zero T
		return zero, false
	}
	return n.status.Value, true
}

// notifyInputsChanged re-evaluates the node after an input changed.
// The caller holds the graph lock.
func (n *Node[T]) notifyInputsChanged(c *cascade) {
	n.c.gen++
	gen := n.c.gen

	produce, ok := n.bind()
	if !ok {
		n.transition(c, Status[T]{State: StateIdle})
		return
	}

	n.transition(c, Status[T]{State: StatePending})
	c.launch(n, gen, func() { n.run(gen, produce) })
}

// run executes produce outside the lock and hands the result back to the graph.
func (n *Node[T]) run(gen uint64, produce Producer[T]) {
	g := n.graph
	g.metrics.RecordFetchStarted(n.c.name)

	start := time.Now()
	value, err := invoke(g.ctx, produce)
	elapsed := time.Since(start)

	g.commit(func(c *cascade) {
		if n.c.gen != gen {
			g.metrics.RecordFetchDiscarded(n.c.name)
			g.logger.Debug("node %s: discarding stale result (gen %d, current %d)", n.c.name, gen, n.c.gen)
			return
		}

		g.metrics.RecordFetchCompleted(n.c.name, elapsed, err)
		if err != nil {
			g.logger.Error("node %s failed: %v", n.c.name, err)
			n.transition(c, Status[T]{State: StateFailed, Err: err})
			return
		}
		n.transition(c, Status[T]{State: StateReady, Value: value})
	})
}

// transition moves the node to next and cascades to dependents when the
// change is visible downstream. The caller holds the graph lock.
func (n *Node[T]) transition(c *cascade, next Status[T]) {
	prev := n.status.State
	n.status = next
	n.c.state = next.State

	g := n.graph
	if prev == StatePending {
		g.pending--
	}
	if next.State == StatePending {
		g.pending++
	}

	// Idle and pending nodes expose no value, so repeating either state
	// changes nothing a dependent can observe.
	if prev == next.State && (prev == StateIdle || prev == StatePending) {
		return
	}

	g.logger.Debug("node %s: %s -> %s (gen %d)", n.c.name, prev, next.State, n.c.gen)
	g.queue = append(g.queue, n.snapshot())

	for _, child := range n.c.children {
		child.core().notify(c)
	}
}

func (n *Node[T]) snapshot() Report {
	r := Report{
		Node:       n.c.name,
		State:      n.status.State,
		Generation: n.c.gen,
	}
	switch n.status.State {
	case StateReady:
		r.Value = n.status.Value
	case StateFailed:
		r.Err = n.status.Err
	case StateIdle, StatePending:
	}
	return r
}

// invoke runs produce and converts a panic into an error.
func invoke[T any](ctx context.Context, produce Producer[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = checkerr.WithDetails(checkerr.ErrGeneral, map[string]string{
				"panic": fmt.Sprint(r),
			})
		}
	}()
	return produce(ctx)
}
