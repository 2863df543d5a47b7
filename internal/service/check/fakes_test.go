package check

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/chain/txservice"
	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

// fakeRegistry serves chain and account metadata from maps. Lookups for a
// short name listed in gates block until the gate is closed.
type fakeRegistry struct {
	mu         sync.Mutex
	chains     map[string]gateway.ChainInfo
	safes      map[string]gateway.SafeInfo
	gates      map[string]chan struct{}
	chainCalls int
	safeCalls  int
}

func (f *fakeRegistry) ChainInfoURL(shortName string) string {
	return "https://gateway/v1/chains/" + shortName
}

func (f *fakeRegistry) SafeInfoURL(chainID, address string) string {
	return fmt.Sprintf("https://gateway/v1/chains/%s/safes/%s", chainID, address)
}

func (f *fakeRegistry) ChainInfo(ctx context.Context, shortName string) (gateway.ChainInfo, error) {
	f.mu.Lock()
	f.chainCalls++
	gate := f.gates[shortName]
	info, ok := f.chains[shortName]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return gateway.ChainInfo{}, ctx.Err()
		}
	}
	if !ok {
		return gateway.ChainInfo{}, checkerr.ErrNotFound
	}
	return info, nil
}

func (f *fakeRegistry) SafeInfo(_ context.Context, chainID, address string) (gateway.SafeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.safeCalls++

	info, ok := f.safes[chainID+"/"+address]
	if !ok {
		return gateway.SafeInfo{}, checkerr.ErrNotFound
	}
	return info, nil
}

func (f *fakeRegistry) calls() (chains, safes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chainCalls, f.safeCalls
}

// fakeIndexer is one transaction service.
type fakeIndexer struct {
	baseURL  string
	copies   []txservice.MasterCopy
	executed txservice.Page[txservice.MultisigTransaction]
	queued   txservice.Page[txservice.MultisigTransaction]
	err      error
}

func (f *fakeIndexer) MasterCopiesURL() string {
	return f.baseURL + "/api/v1/about/master-copies/"
}

func (f *fakeIndexer) MultisigTransactionsURL(safe string, executed bool) string {
	return fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/?ordering=-nonce&trusted=true&limit=1&executed=%t",
		f.baseURL, safe, executed)
}

func (f *fakeIndexer) MasterCopies(context.Context) ([]txservice.MasterCopy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.copies, nil
}

func (f *fakeIndexer) MultisigTransactions(_ context.Context, _ string, executed bool) (txservice.Page[txservice.MultisigTransaction], error) {
	if f.err != nil {
		return txservice.Page[txservice.MultisigTransaction]{}, f.err
	}
	if executed {
		return f.executed, nil
	}
	return f.queued, nil
}

// fakeDialer records every dial and answers with a fixed block number.
type fakeDialer struct {
	mu    sync.Mutex
	block string
	err   error
	dials []dial
}

type dial struct {
	url    string
	source string
}

func (f *fakeDialer) factory() BlockReaderFactory {
	return func(url, source string) BlockReader {
		f.mu.Lock()
		f.dials = append(f.dials, dial{url: url, source: source})
		f.mu.Unlock()
		return fakeBlockReader{block: f.block, err: f.err}
	}
}

func (f *fakeDialer) recorded() []dial {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dial(nil), f.dials...)
}

type fakeBlockReader struct {
	block string
	err   error
}

func (f fakeBlockReader) CurrentBlock(context.Context) (string, error) {
	return f.block, f.err
}
