// Package check runs a Safe status check: a fixed graph of six dependent
// lookups that resolves an account identifier into chain, account, indexing,
// caching and live chain state, reporting each step independently.
package check

import (
	"context"
	"net/http"

	"github.com/mrz1836/safecheck/internal/address"
	"github.com/mrz1836/safecheck/internal/chain"
	"github.com/mrz1836/safecheck/internal/chain/eth/rpc"
	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/chain/txservice"
	"github.com/mrz1836/safecheck/internal/graph"
	"github.com/mrz1836/safecheck/internal/metrics"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// Config holds the collaborators of a Runner.
type Config struct {
	// Registry is required.
	Registry ChainRegistry
	// Indexers defaults to DefaultIndexers(nil, nil).
	Indexers IndexerFactory
	// Dial defaults to DefaultDialer(nil, nil).
	Dial BlockReaderFactory
	// AuthToken is the initial RPC auth token.
	AuthToken string
	// Logger receives node transitions and failures.
	Logger graph.Logger
	// Metrics defaults to metrics.Global.
	Metrics *metrics.Metrics
}

// Runner owns the six nodes of a check and the external inputs feeding them.
type Runner struct {
	g *graph.Graph

	registry ChainRegistry
	indexers IndexerFactory
	dial     BlockReaderFactory

	// Root inputs. Only read or written inside the graph's critical section.
	raw       string
	submitted bool
	token     string

	address       *graph.Node[address.AccountID]
	chainInfo     *graph.Node[InfoWithSource[gateway.ChainInfo]]
	safeInfo      *graph.Node[InfoWithSource[gateway.SafeInfo]]
	indexingState *graph.Node[InfoWithSource[txservice.MasterCopy]]
	cachingState  *graph.Node[InfoWithSource[CachingState]]
	chainState    *graph.Node[InfoWithSource[ChainState]]
}

// New builds a Runner. Producers run with ctx.
func New(ctx context.Context, cfg *Config) (*Runner, error) {
	if cfg == nil || cfg.Registry == nil {
		return nil, checkerr.WithDetails(checkerr.ErrInvalidInput, map[string]string{
			"reason": "a chain registry is required",
		})
	}

	r := &Runner{
		g: graph.New(ctx, &graph.Options{
			Logger:  cfg.Logger,
			Metrics: cfg.Metrics,
		}),
		registry: cfg.Registry,
		indexers: cfg.Indexers,
		dial:     cfg.Dial,
		token:    cfg.AuthToken,
	}
	if r.indexers == nil {
		r.indexers = DefaultIndexers(nil, nil)
	}
	if r.dial == nil {
		r.dial = DefaultDialer(nil, nil)
	}

	r.address = graph.Add(r.g, NodeAddress, r.bindAddress)
	r.chainInfo = graph.Add(r.g, NodeChainInfo, r.bindChainInfo, r.address)
	r.safeInfo = graph.Add(r.g, NodeSafeInfo, r.bindSafeInfo, r.address, r.chainInfo)
	r.indexingState = graph.Add(r.g, NodeIndexingState, r.bindIndexingState, r.chainInfo, r.safeInfo)
	r.cachingState = graph.Add(r.g, NodeCachingState, r.bindCachingState, r.chainInfo, r.address, r.safeInfo)
	r.chainState = graph.Add(r.g, NodeChainState, r.bindChainState, r.chainInfo)

	return r, nil
}

// Submit replaces the address text and re-runs the whole check, even when
// the text is unchanged.
func (r *Runner) Submit(raw string) {
	r.g.Update(func() {
		r.raw = raw
		r.submitted = true
	}, r.address)
}

// Reload re-runs the whole check with the last submitted address text.
// It does nothing before the first Submit.
func (r *Runner) Reload() {
	r.g.Apply(func() []graph.Vertex {
		if !r.submitted {
			return nil
		}
		return []graph.Vertex{r.address}
	})
}

// SetAuthToken replaces the RPC auth token. Only the chain state is
// re-fetched, and only when the token actually changed.
func (r *Runner) SetAuthToken(token string) {
	r.g.Apply(func() []graph.Vertex {
		if token == r.token {
			return nil
		}
		r.token = token
		return []graph.Vertex{r.chainState}
	})
}

// Wait blocks until no node is pending or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	return r.g.Wait(ctx)
}

// Pending returns the number of lookups still in flight.
func (r *Runner) Pending() int {
	return r.g.Pending()
}

// Snapshot returns the status of every node in topological order.
func (r *Runner) Snapshot() []NodeStatus {
	reports := r.g.Snapshot()
	statuses := make([]NodeStatus, 0, len(reports))
	for _, rep := range reports {
		statuses = append(statuses, statusFromReport(rep))
	}
	return statuses
}

// Subscribe streams every visible node transition, in order, to fn.
// fn should return quickly.
func (r *Runner) Subscribe(fn func(NodeStatus)) (unsubscribe func()) {
	return r.g.Subscribe(func(rep graph.Report) {
		fn(statusFromReport(rep))
	})
}

// Address returns the status of the address node.
func (r *Runner) Address() graph.Status[address.AccountID] {
	return r.address.Status()
}

// ChainInfo returns the status of the chainInfo node.
func (r *Runner) ChainInfo() graph.Status[InfoWithSource[gateway.ChainInfo]] {
	return r.chainInfo.Status()
}

// SafeInfo returns the status of the safeInfo node.
func (r *Runner) SafeInfo() graph.Status[InfoWithSource[gateway.SafeInfo]] {
	return r.safeInfo.Status()
}

// IndexingState returns the status of the indexingState node.
func (r *Runner) IndexingState() graph.Status[InfoWithSource[txservice.MasterCopy]] {
	return r.indexingState.Status()
}

// CachingState returns the status of the cachingState node.
func (r *Runner) CachingState() graph.Status[InfoWithSource[CachingState]] {
	return r.cachingState.Status()
}

// ChainState returns the status of the chainState node.
func (r *Runner) ChainState() graph.Status[InfoWithSource[ChainState]] {
	return r.chainState.Status()
}

// DefaultIndexers returns a factory of transaction service clients sharing
// httpClient and limiter. Nil arguments use the package defaults.
func DefaultIndexers(httpClient *http.Client, limiter *chain.RateLimiter) IndexerFactory {
	if limiter == nil {
		limiter = chain.DefaultRateLimiter()
	}
	return func(baseURL string) Indexer {
		return txservice.NewClient(baseURL, &txservice.ClientOptions{
			HTTPClient:  httpClient,
			RateLimiter: limiter,
		})
	}
}

// DefaultDialer returns a factory of RPC clients sharing httpClient and
// limiter. Nil arguments use the package defaults.
func DefaultDialer(httpClient *http.Client, limiter *chain.RateLimiter) BlockReaderFactory {
	if limiter == nil {
		limiter = chain.DefaultRateLimiter()
	}
	return func(url, source string) BlockReader {
		return rpc.NewClient(url, &rpc.ClientOptions{
			HTTPClient:  httpClient,
			RateLimiter: limiter,
			Source:      source,
		})
	}
}
