package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/safecheck/internal/config"
)

const (
	testSafe      = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testSingleton = "0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552"
	testToken     = "secret-token"
)

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, secret string, confirm bool) {
	t.Helper()
	origSecret := promptSecretFn
	origConfirm := promptConfirmFn
	t.Cleanup(func() {
		promptSecretFn = origSecret
		promptConfirmFn = origConfirm
	})
	promptSecretFn = func(_ string, _ io.Reader) (string, error) { return secret, nil }
	promptConfirmFn = func(_ string, _ io.Reader) bool { return confirm }
}

// newUpstream serves the client gateway, the transaction service and an
// RPC node that wants testToken from one server. The "slow" network never
// answers.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chains/eth", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"chainId":            "1",
			"chainName":          "Ethereum",
			"transactionService": server.URL + "/ts",
			"publicRpcUri": map[string]string{
				"authentication": "API_KEY_PATH",
				"value":          server.URL + "/rpc/",
			},
		})
	})
	mux.HandleFunc("/v1/chains/slow", func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	mux.HandleFunc("/v1/chains/1/safes/"+testSafe, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"value":"` + testSafe + `"},"nonce":5,"threshold":2,` +
			`"owners":[{"value":"0x1"}],"implementation":{"value":"` + testSingleton + `"},"version":"1.3.0"}`))
	})
	mux.HandleFunc("/ts/api/v1/about/master-copies/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"address":"` + testSingleton + `","version":"1.3.0","lastIndexedBlockNumber":100,"l2":false}]`))
	})
	mux.HandleFunc("/ts/api/v1/safes/"+testSafe+"/multisig-transactions/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("executed") == "true" {
			_, _ = w.Write([]byte(`{"count":4,"next":null,"previous":null,"results":[{"nonce":3}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"count":0,"next":null,"previous":null,"results":[]}`))
	})
	mux.HandleFunc("/rpc/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/"+testToken) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// newTestHome writes a config pointing at server into a fresh home and
// returns the home path.
func newTestHome(t *testing.T, server *httptest.Server) string {
	t.Helper()

	home := t.TempDir()
	c := config.Defaults()
	c.Home = home
	c.Check.TimeoutSeconds = 10
	c.HTTP.RatePerSecond = 1000
	c.HTTP.Burst = 1000
	c.Logging.Level = "off"
	if server != nil {
		c.Services.ClientGateway = server.URL
	}
	require.NoError(t, config.Save(c, config.Path(home)))
	return home
}

// resetFlags restores every flag in the command tree to its default so
// runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	walkCommands(cmd, func(c *cobra.Command) {
		reset := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	})
}

// runCLI executes the root command with args and stdin and returns stdout.
// NOT parallel safe: the command tree and globals are package-level.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	restore := saveGlobals(t)
	defer restore()

	t.Setenv(config.EnvAuthToken, "")
	t.Setenv(config.EnvOutputFormat, "")
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}
