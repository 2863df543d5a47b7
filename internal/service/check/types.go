package check

import (
	"github.com/mrz1836/safecheck/internal/graph"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Node names, in topological order.
const (
	NodeAddress       = "address"
	NodeChainInfo     = "chainInfo"
	NodeSafeInfo      = "safeInfo"
	NodeIndexingState = "indexingState"
	NodeCachingState  = "cachingState"
	NodeChainState    = "chainState"
)

// NodeOrder lists every node in topological order.
//
//nolint:gochecknoglobals // Fixed topology
var NodeOrder = []string{
	NodeAddress,
	NodeChainInfo,
	NodeSafeInfo,
	NodeIndexingState,
	NodeCachingState,
	NodeChainState,
}

// InfoWithSource pairs a fetched value with the URL it came from.
type InfoWithSource[T any] struct {
	Content T      `json:"content"`
	Source  string `json:"source"`
}

func (i InfoWithSource[T]) payload() any {
	return i.Content
}

func (i InfoWithSource[T]) origin() string {
	return i.Source
}

// sourced is implemented by every InfoWithSource instantiation.
type sourced interface {
	payload() any
	origin() string
}

// CachingState compares the gateway's view of an account with the indexer's.
type CachingState struct {
	QueuedTxs int64 `json:"queuedTxs"`
	// MissingExecutedTxs is the gateway nonce minus one minus the newest
	// executed nonce the indexer knows about. It can be negative.
	MissingExecutedTxs int64 `json:"missingExecutedTxs"`
}

// ChainState is the live state read from the chain's RPC node.
type ChainState struct {
	CurrentBlock string `json:"currentBlock"`
}

// NodeStatus is the renderable status of one node.
type NodeStatus struct {
	Node       string      `json:"node"`
	State      graph.State `json:"state"`
	Value      any         `json:"value,omitempty"`
	Source     string      `json:"source,omitempty"`
	Err        error       `json:"-"`
	Error      string      `json:"error,omitempty"`
	ErrorCode  string      `json:"error_code,omitempty"`
	Generation uint64      `json:"generation"`
}

// statusFromReport converts a graph report into a NodeStatus.
func statusFromReport(r graph.Report) NodeStatus {
	ns := NodeStatus{
		Node:       r.Node,
		State:      r.State,
		Generation: r.Generation,
	}

	switch r.State {
	case graph.StateReady:
		if s, ok := r.Value.(sourced); ok {
			ns.Value = s.payload()
			ns.Source = s.origin()
		} else {
			ns.Value = r.Value
		}
	case graph.StateFailed:
		ns.Err = r.Err
		if r.Err != nil {
			ns.Error = r.Err.Error()
			ns.ErrorCode = checkerr.Code(r.Err)
		}
	case graph.StateIdle, graph.StatePending:
	}

	return ns
}
