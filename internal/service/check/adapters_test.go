package check

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/safecheck/internal/chain"
	"github.com/mrz1836/safecheck/internal/chain/gateway"
	"github.com/mrz1836/safecheck/internal/graph"
	"github.com/mrz1836/safecheck/internal/metrics"
)

// newUpstream serves the gateway, the transaction service and the RPC node
// from one test server.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chains/eth", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"chainId":            "1",
			"transactionService": server.URL + "/ts",
			"publicRpcUri": map[string]string{
				"authentication": "API_KEY_PATH",
				"value":          server.URL + "/rpc/",
			},
		})
	})
	mux.HandleFunc("/v1/chains/1/safes/"+safeAddress, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"value":"` + safeAddress + `"},"nonce":5,"threshold":2,` +
			`"owners":[{"value":"0x1"}],"implementation":{"value":"` + singleton + `"},"version":"1.3.0"}`))
	})
	mux.HandleFunc("/ts/api/v1/about/master-copies/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"address":"` + singleton + `","version":"1.3.0","lastIndexedBlockNumber":100,"l2":false}]`))
	})
	mux.HandleFunc("/ts/api/v1/safes/"+safeAddress+"/multisig-transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("executed") == "true" {
			_, _ = w.Write([]byte(`{"count":4,"next":null,"previous":null,"results":[{"nonce":3}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
	})
	mux.HandleFunc("/rpc/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/secret-token") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunner_AgainstHTTPAdapters(t *testing.T) {
	t.Parallel()

	server := newUpstream(t)
	m := &metrics.Metrics{}
	limiter := chain.NewRateLimiter(1000, 1000).WithMetrics(m)

	runner, err := New(context.Background(), &Config{
		Registry: gateway.NewClient(&gateway.ClientOptions{
			BaseURL:     server.URL,
			HTTPClient:  server.Client(),
			RateLimiter: limiter,
		}),
		Indexers:  DefaultIndexers(server.Client(), limiter),
		Dial:      DefaultDialer(server.Client(), limiter),
		AuthToken: "secret-token",
		Metrics:   m,
	})
	require.NoError(t, err)

	runner.Submit(strings.ToLower(safeAddress))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Wait(ctx))

	for _, s := range runner.Snapshot() {
		require.Equal(t, graph.StateReady, s.State, "%s: %s", s.Node, s.Error)
	}

	assert.Equal(t, "1.3.0", runner.IndexingState().Value.Content.Version)
	assert.Equal(t, int64(1), runner.CachingState().Value.Content.MissingExecutedTxs)
	assert.Equal(t, int64(0), runner.CachingState().Value.Content.QueuedTxs)
	assert.Equal(t, "16", runner.ChainState().Value.Content.CurrentBlock)
	assert.Equal(t, server.URL+"/rpc/secr...", runner.ChainState().Value.Source)

	// chainInfo, safeInfo, master copies, two transaction pages and one RPC call.
	assert.Equal(t, int64(6), m.RequestsTotal())
	assert.Zero(t, m.RequestErrors())
}

func TestRunner_AgainstHTTPAdapters_BadToken(t *testing.T) {
	t.Parallel()

	server := newUpstream(t)
	limiter := chain.NewRateLimiter(1000, 1000).WithMetrics(&metrics.Metrics{})

	runner, err := New(context.Background(), &Config{
		Registry: gateway.NewClient(&gateway.ClientOptions{
			BaseURL:     server.URL,
			HTTPClient:  server.Client(),
			RateLimiter: limiter,
		}),
		Indexers:  DefaultIndexers(server.Client(), limiter),
		Dial:      DefaultDialer(server.Client(), limiter),
		AuthToken: "wrong-token",
		Metrics:   &metrics.Metrics{},
	})
	require.NoError(t, err)

	runner.Submit(safeAddress)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Wait(ctx))

	chainState := runner.ChainState()
	require.Equal(t, graph.StateFailed, chainState.State)
	assert.NotContains(t, chainState.Err.Error(), "wrong-token")
	assert.Equal(t, graph.StateReady, runner.CachingState().State)
}
