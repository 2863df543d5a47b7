package check

import (
	"context"

	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/chain/txservice"
)

// ChainRegistry resolves network short names and account metadata.
// Adapter for gateway.Client.
type ChainRegistry interface {
	ChainInfoURL(shortName string) string
	SafeInfoURL(chainID, address string) string
	ChainInfo(ctx context.Context, shortName string) (gateway.ChainInfo, error)
	SafeInfo(ctx context.Context, chainID, address string) (gateway.SafeInfo, error)
}

// Indexer reads one chain's transaction service.
// Adapter for txservice.Client.
type Indexer interface {
	MasterCopiesURL() string
	MultisigTransactionsURL(safe string, executed bool) string
	MasterCopies(ctx context.Context) ([]txservice.MasterCopy, error)
	MultisigTransactions(ctx context.Context, safe string, executed bool) (txservice.Page[txservice.MultisigTransaction], error)
}

// IndexerFactory binds an Indexer to a transaction service base URL.
type IndexerFactory func(baseURL string) Indexer

// BlockReader reads live chain state from an RPC node.
// Adapter for rpc.Client.
type BlockReader interface {
	CurrentBlock(ctx context.Context) (string, error)
}

// BlockReaderFactory dials the RPC node at url. source is the printable form
// of url with any auth token masked.
type BlockReaderFactory func(url, source string) BlockReader
