package check

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/safecheck/internal/address"
	"github.com/mrz1836/safecheck/internal/chain/eth/rpc"
	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/chain/txservice"
	"github.com/mrz1836/safecheck/internal/graph"
)

// Bind functions run inside the graph's critical section: they snapshot
// their inputs and return the producer to launch, or false when an input is
// not ready.

func (r *Runner) bindAddress() (graph.Producer[address.AccountID], bool) {
	if !r.submitted {
		return nil, false
	}
	raw := r.raw
	return func(context.Context) (address.AccountID, error) {
		return address.Parse(raw)
	}, true
}

func (r *Runner) bindChainInfo() (graph.Producer[InfoWithSource[gateway.ChainInfo]], bool) {
	acct, ok := graph.Resolved(r.address)
	if !ok {
		return nil, false
	}
	return func(ctx context.Context) (InfoWithSource[gateway.ChainInfo], error) {
		info, err := r.registry.ChainInfo(ctx, acct.Network)
		if err != nil {
			return InfoWithSource[gateway.ChainInfo]{}, err
		}
		return InfoWithSource[gateway.ChainInfo]{
			Content: info,
			Source:  r.registry.ChainInfoURL(acct.Network),
		}, nil
	}, true
}

func (r *Runner) bindSafeInfo() (graph.Producer[InfoWithSource[gateway.SafeInfo]], bool) {
	acct, ok := graph.Resolved(r.address)
	if !ok {
		return nil, false
	}
	chainInfo, ok := graph.Resolved(r.chainInfo)
	if !ok {
		return nil, false
	}
	chainID := chainInfo.Content.ChainID
	return func(ctx context.Context) (InfoWithSource[gateway.SafeInfo], error) {
		info, err := r.registry.SafeInfo(ctx, chainID, acct.ID)
		if err != nil {
			return InfoWithSource[gateway.SafeInfo]{}, err
		}
		return InfoWithSource[gateway.SafeInfo]{
			Content: info,
			Source:  r.registry.SafeInfoURL(chainID, acct.ID),
		}, nil
	}, true
}

func (r *Runner) bindIndexingState() (graph.Producer[InfoWithSource[txservice.MasterCopy]], bool) {
	chainInfo, ok := graph.Resolved(r.chainInfo)
	if !ok {
		return nil, false
	}
	safeInfo, ok := graph.Resolved(r.safeInfo)
	if !ok {
		return nil, false
	}
	service := chainInfo.Content.TransactionService
	implementation := safeInfo.Content.Implementation.Value
	return func(ctx context.Context) (InfoWithSource[txservice.MasterCopy], error) {
		idx := r.indexers(service)
		copies, err := idx.MasterCopies(ctx)
		if err != nil {
			return InfoWithSource[txservice.MasterCopy]{}, err
		}
		mc, err := txservice.FindMasterCopy(copies, implementation)
		if err != nil {
			return InfoWithSource[txservice.MasterCopy]{}, err
		}
		return InfoWithSource[txservice.MasterCopy]{
			Content: mc,
			Source:  idx.MasterCopiesURL(),
		}, nil
	}, true
}

func (r *Runner) bindCachingState() (graph.Producer[InfoWithSource[CachingState]], bool) {
	chainInfo, ok := graph.Resolved(r.chainInfo)
	if !ok {
		return nil, false
	}
	acct, ok := graph.Resolved(r.address)
	if !ok {
		return nil, false
	}
	safeInfo, ok := graph.Resolved(r.safeInfo)
	if !ok {
		return nil, false
	}
	service := chainInfo.Content.TransactionService
	nonce := safeInfo.Content.Nonce
	return func(ctx context.Context) (InfoWithSource[CachingState], error) {
		idx := r.indexers(service)

		var executed, queued txservice.Page[txservice.MultisigTransaction]
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			executed, err = idx.MultisigTransactions(gctx, acct.ID, true)
			return err
		})
		g.Go(func() error {
			var err error
			queued, err = idx.MultisigTransactions(gctx, acct.ID, false)
			return err
		})
		if err := g.Wait(); err != nil {
			return InfoWithSource[CachingState]{}, err
		}

		return InfoWithSource[CachingState]{
			Content: CachingState{
				QueuedTxs:          queued.Count,
				MissingExecutedTxs: missingExecutedTxs(nonce, executed),
			},
			Source: idx.MultisigTransactionsURL(acct.ID, true),
		}, nil
	}, true
}

func (r *Runner) bindChainState() (graph.Producer[InfoWithSource[ChainState]], bool) {
	chainInfo, ok := graph.Resolved(r.chainInfo)
	if !ok {
		return nil, false
	}
	endpoint := chainInfo.Content.PublicRPCURI
	token := r.token
	return func(ctx context.Context) (InfoWithSource[ChainState], error) {
		url, err := rpc.BuildURL(endpoint, token)
		if err != nil {
			return InfoWithSource[ChainState]{}, err
		}
		source, err := rpc.Source(endpoint, token)
		if err != nil {
			return InfoWithSource[ChainState]{}, err
		}

		block, err := r.dial(url, source).CurrentBlock(ctx)
		if err != nil {
			return InfoWithSource[ChainState]{}, err
		}
		return InfoWithSource[ChainState]{
			Content: ChainState{CurrentBlock: block},
			Source:  source,
		}, nil
	}, true
}

// missingExecutedTxs is nonce - 1 - the newest executed nonce, with an empty
// page counting as nonce 0.
func missingExecutedTxs(nonce int64, executed txservice.Page[txservice.MultisigTransaction]) int64 {
	var top int64
	if len(executed.Results) > 0 {
		top = executed.Results[0].Nonce
	}
	return nonce - 1 - top
}
